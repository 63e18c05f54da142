package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hackgods/autoservice-booking/internal/api"
	"github.com/hackgods/autoservice-booking/internal/auth"
	"github.com/hackgods/autoservice-booking/internal/config"
	"github.com/hackgods/autoservice-booking/internal/logging"
)

type SimConfig struct {
	APIBaseURL string
	Workers    int
	Category   string
	Service    string // empty picks the category's first service
	Date       string
	Rounds     int
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	pct := func(p int) time.Duration {
		idx := len(latencies) * p / 100
		if idx >= len(latencies) {
			idx = len(latencies) - 1
		}
		return latencies[idx]
	}

	return sum / time.Duration(len(latencies)), latencies[0], latencies[len(latencies)-1], pct(50), pct(95)
}

// Simulator races workers against each other for the same open slots.
type Simulator struct {
	config  SimConfig
	service string // catalog title booked by every worker
	client  *http.Client
	tokens  []string
	admin   string
	faker   *gofakeit.Faker
	metrics OperationMetrics
	logger  zerolog.Logger

	mu      sync.Mutex
	winners map[string]int // slot start -> successful bookings
	fakerMu sync.Mutex
}

func main() {
	base, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}
	logger := logging.New(base.Env, base.LogLevel, "simulate")

	cfg := SimConfig{
		APIBaseURL: getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Workers:    getInt("SIM_WORKERS", 20),
		Category:   getEnv("SIM_CATEGORY", "Oil Change"),
		Service:    os.Getenv("SIM_SERVICE"),
		Date:       getEnv("SIM_DATE", time.Now().In(base.Location).AddDate(0, 0, 1).Format("2006-01-02")),
		Rounds:     getInt("SIM_ROUNDS", 1),
	}
	logger.Info().
		Int("workers", cfg.Workers).
		Str("category", cfg.Category).
		Str("date", cfg.Date).
		Int("rounds", cfg.Rounds).
		Msg("simulator starting")

	verifier := auth.NewVerifier(base.JWTSecret)
	sim := &Simulator{
		config:  cfg,
		client:  &http.Client{Timeout: 10 * time.Second},
		faker:   gofakeit.New(0),
		logger:  logger,
		winners: make(map[string]int),
	}

	for i := 0; i < cfg.Workers; i++ {
		tok, err := verifier.Issue(auth.Principal{UserID: uuid.New(), Role: auth.RoleCustomer}, time.Hour)
		if err != nil {
			logger.Fatal().Err(err).Msg("issue token")
		}
		sim.tokens = append(sim.tokens, tok)
	}
	sim.admin, err = verifier.Issue(auth.Principal{UserID: uuid.New(), Role: auth.RoleAdmin}, time.Hour)
	if err != nil {
		logger.Fatal().Err(err).Msg("issue token")
	}

	ctx := context.Background()
	if sim.service, err = sim.pickService(ctx); err != nil {
		logger.Fatal().Err(err).Msg("load catalog")
	}
	logger.Info().Str("service", sim.service).Msg("booking service picked")

	for round := 0; round < cfg.Rounds; round++ {
		slots, err := sim.openSlots(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("load slot board")
		}
		if len(slots) == 0 {
			logger.Warn().Int("round", round).Msg("no open slots left")
			break
		}
		sim.race(ctx, slots)
	}

	if !sim.PrintReport() {
		os.Exit(1)
	}
}

func (s *Simulator) pickService(ctx context.Context) (string, error) {
	var cat api.CatalogResponse
	if err := s.getJSON(ctx, "/catalog", &cat); err != nil {
		return "", err
	}
	return serviceFor(cat, s.config.Category, s.config.Service)
}

// serviceFor picks the title to book within category. want, when set, must
// name one of the category's services.
func serviceFor(cat api.CatalogResponse, category, want string) (string, error) {
	for _, c := range cat.Categories {
		if !strings.EqualFold(c.Name, category) {
			continue
		}
		if len(c.Services) == 0 {
			return "", fmt.Errorf("category %q has no services", category)
		}
		if want == "" {
			return c.Services[0].Title, nil
		}
		for _, svc := range c.Services {
			if strings.EqualFold(svc.Title, want) {
				return svc.Title, nil
			}
		}
		return "", fmt.Errorf("%q is not offered in %q", want, category)
	}
	return "", fmt.Errorf("category %q is not in the catalog", category)
}

func (s *Simulator) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.APIBaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.admin)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s: %d %s", path, resp.StatusCode, body)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (s *Simulator) openSlots(ctx context.Context) ([]time.Time, error) {
	q := url.Values{"date": {s.config.Date}, "category": {s.config.Category}}

	var board api.SlotBoardResponse
	if err := s.getJSON(ctx, "/slots?"+q.Encode(), &board); err != nil {
		return nil, err
	}

	var open []time.Time
	for _, sl := range board.Slots {
		if sl.Status == "Open" {
			open = append(open, sl.Start)
		}
	}
	return open, nil
}

// race sends every worker at every slot at the same moment.
func (s *Simulator) race(ctx context.Context, slots []time.Time) {
	for _, at := range slots {
		start := make(chan struct{})
		var wg sync.WaitGroup

		for w := 0; w < s.config.Workers; w++ {
			wg.Add(1)
			go func(worker int) {
				defer wg.Done()
				<-start
				s.book(ctx, worker, at)
			}(w)
		}

		close(start)
		wg.Wait()
	}
}

func (s *Simulator) book(ctx context.Context, worker int, at time.Time) {
	s.fakerMu.Lock()
	person := s.faker.Person()
	phone := s.faker.Numerify("0##########")
	s.fakerMu.Unlock()

	body, _ := json.Marshal(api.AppointmentRequest{
		FirstName:           person.FirstName,
		LastName:            person.LastName,
		ContactNumber:       phone,
		Email:               person.Contact.Email,
		ServiceCategory:     s.config.Category,
		ServiceType:         s.service,
		AppointmentDateTime: at,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIBaseURL+"/appointments", bytes.NewReader(body))
	if err != nil {
		s.metrics.Record(0, false, false)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.tokens[worker])

	start := time.Now()
	resp, err := s.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		s.logger.Debug().Err(err).Int("worker", worker).Msg("booking request failed")
		s.metrics.Record(latency, false, false)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusCreated:
		s.metrics.Record(latency, true, false)
		s.mu.Lock()
		s.winners[at.UTC().Format(time.RFC3339)]++
		s.mu.Unlock()
	case http.StatusConflict:
		s.metrics.Record(latency, false, true)
	default:
		s.logger.Debug().Int("status", resp.StatusCode).Int("worker", worker).Msg("unexpected booking response")
		s.metrics.Record(latency, false, false)
	}
}

// PrintReport prints the run summary and reports whether no slot was double booked.
func (s *Simulator) PrintReport() bool {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("CONTENTION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Workers: %d  Category: %s  Service: %s  Date: %s\n\n", s.config.Workers, s.config.Category, s.service, s.config.Date)

	om := &s.metrics
	total := atomic.LoadInt64(&om.Total)
	if total > 0 {
		success := atomic.LoadInt64(&om.Success)
		conflict := atomic.LoadInt64(&om.Conflict)
		failed := atomic.LoadInt64(&om.Error)
		avg, min, max, p50, p95 := om.Stats()

		fmt.Printf("Booking attempts: %d\n", total)
		fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
		if failed > 0 {
			fmt.Printf("  Errors: %d (%.1f%%)\n", failed, float64(failed)/float64(total)*100)
		}
		fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n\n",
			avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
			p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.winners))
	for k := range s.winners {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ok := true
	for _, k := range keys {
		n := s.winners[k]
		mark := "ok"
		if n > 1 {
			mark = "DOUBLE BOOKED"
			ok = false
		}
		fmt.Printf("  %s  bookings=%d  %s\n", k, n, mark)
	}
	return ok
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
