package main

import (
	"context"
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hackgods/autoservice-booking/internal/appointment"
	"github.com/hackgods/autoservice-booking/internal/catalog"
	"github.com/hackgods/autoservice-booking/internal/config"
	"github.com/hackgods/autoservice-booking/internal/db"
	"github.com/hackgods/autoservice-booking/internal/logging"
	redisclient "github.com/hackgods/autoservice-booking/internal/redis"
	"github.com/hackgods/autoservice-booking/internal/slot"
)

var notes = []string{
	"",
	"Squeaking noise when braking.",
	"Please call before starting any extra work.",
	"Car will be dropped off the evening before.",
	"Warning light came on yesterday.",
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}
	logger := logging.New(cfg.Env, cfg.LogLevel, "seed")

	customers := getInt("SEED_CUSTOMERS", 40)
	days := getInt("SEED_DAYS", 7)
	logger.Info().Int("customers", customers).Int("days", days).Msg("seed starting")
	if cfg.ReadOnly {
		logger.Fatal().Msg("bookings are read-only; unset BOOKINGS_READ_ONLY to seed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, 4)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("migrate")
	}

	cat := catalog.NewService(catalog.NewPgRepository(pool), logger)
	if err := cat.EnsureDefaults(ctx, catalog.Defaults); err != nil {
		logger.Fatal().Err(err).Msg("seed catalog")
	}
	categories, err := bookable(ctx, cat)
	if err != nil {
		logger.Fatal().Err(err).Msg("load catalog")
	}
	logger.Info().Int("categories", len(categories)).Msg("catalog ready")

	// Bookings go through the service so seeded data obeys the slot and catalog rules.
	svc := appointment.NewService(appointment.NewPgRepository(pool), redisclient.NewLocalSlotLocker(), cat, cfg, zerolog.Nop())

	faker := gofakeit.New(uint64(time.Now().UnixNano()))

	var booked, skipped int
	for i := 0; i < customers; i++ {
		customer := appointment.Actor{UserID: uuid.New()}
		visits := faker.Number(1, 3)

		for v := 0; v < visits; v++ {
			d := randomDraft(faker, cfg, categories, days)
			_, err := svc.BookAppointment(ctx, customer, d)
			var verr *appointment.ValidationError
			switch {
			case err == nil:
				booked++
			case errors.Is(err, slot.ErrSlotAlreadyBooked), errors.As(err, &verr):
				skipped++
			default:
				logger.Fatal().Err(err).Msg("book appointment")
			}
		}
	}

	logger.Info().Int("booked", booked).Int("skipped", skipped).Msg("seed complete")
}

type categoryLister interface {
	ListCategories(ctx context.Context) ([]catalog.Category, error)
}

// bookable lists the categories that offer at least one service.
func bookable(ctx context.Context, cat categoryLister) ([]catalog.Category, error) {
	all, err := cat.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, c := range all {
		if len(c.Offerings) > 0 {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("catalog has no bookable services")
	}
	return out, nil
}

func randomDraft(faker *gofakeit.Faker, cfg config.Config, categories []catalog.Category, days int) appointment.Draft {
	grid, _ := slot.Enumerate(cfg.Slots)
	category := categories[faker.Number(0, len(categories)-1)]
	offering := category.Offerings[faker.Number(0, len(category.Offerings)-1)]

	day := time.Now().In(cfg.Location).AddDate(0, 0, faker.Number(1, days))
	at := grid[faker.Number(0, len(grid)-1)].At(day)

	person := faker.Person()

	return appointment.Draft{
		FirstName:           person.FirstName,
		LastName:            person.LastName,
		ContactNumber:       faker.Numerify("0##########"),
		Email:               person.Contact.Email,
		ServiceCategory:     category.Name,
		ServiceType:         offering.Title,
		AppointmentDateTime: at,
		AdditionalNotes:     notes[faker.Number(0, len(notes)-1)],
	}
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
