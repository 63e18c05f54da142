package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/autoservice-booking/internal/appointment"
	"github.com/hackgods/autoservice-booking/internal/auth"
	"github.com/hackgods/autoservice-booking/internal/catalog"
	"github.com/hackgods/autoservice-booking/internal/slot"
)

// AppointmentService is the part of appointment.Service the handlers use.
type AppointmentService interface {
	Availability(ctx context.Context, day time.Time, category string) ([]slot.Classified, error)
	BookAppointment(ctx context.Context, by appointment.Actor, d appointment.Draft) (*appointment.Appointment, error)
	UpdateAppointment(ctx context.Context, by appointment.Actor, id uuid.UUID, d appointment.Draft) (*appointment.Appointment, error)
	ChangeStatus(ctx context.Context, by appointment.Actor, id uuid.UUID, to appointment.AppointmentStatus) (*appointment.Appointment, error)
	CancelAppointment(ctx context.Context, by appointment.Actor, id uuid.UUID) (*appointment.Appointment, error)
	DeleteAppointment(ctx context.Context, by appointment.Actor, id uuid.UUID) error
	SubmitReview(ctx context.Context, by appointment.Actor, id uuid.UUID, rating int, comment string) (*appointment.Appointment, error)
	GetAppointment(ctx context.Context, by appointment.Actor, id uuid.UUID) (*appointment.Appointment, error)
	ListAppointments(ctx context.Context, by appointment.Actor, f appointment.Filter) ([]appointment.Appointment, error)
	Stats(ctx context.Context, by appointment.Actor, from, to time.Time) (*appointment.Stats, error)
}

// CatalogService is the part of catalog.Service the handlers use.
type CatalogService interface {
	ListCategories(ctx context.Context) ([]catalog.Category, error)
	CreateCategory(ctx context.Context, in catalog.CategoryInput) (*catalog.Category, error)
	RenameCategory(ctx context.Context, id uuid.UUID, in catalog.CategoryInput) (*catalog.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	CreateOffering(ctx context.Context, in catalog.OfferingInput) (*catalog.Offering, error)
	UpdateOffering(ctx context.Context, id uuid.UUID, in catalog.OfferingInput) (*catalog.Offering, error)
	DeleteOffering(ctx context.Context, id uuid.UUID) error
}

type RouterConfig struct {
	Service  AppointmentService
	Catalog  CatalogService
	Verifier *auth.Verifier
	Health   *HealthHandler
	Location *time.Location // dates in query strings are read in this zone
	Logger   zerolog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	h := &handlers{svc: cfg.Service, catalog: cfg.Catalog, loc: loc}

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(RecoveryMiddleware(cfg.Logger))

	if cfg.Health != nil {
		r.Get("/health/live", cfg.Health.Liveness)
		r.Get("/health/ready", cfg.Health.Readiness)
	}

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Verifier))

		r.Get("/slots", h.slotBoard)

		r.Route("/appointments", func(r chi.Router) {
			r.Post("/", h.createAppointment)
			r.Get("/", h.listAppointments)
			r.Get("/stats", h.stats)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.getAppointment)
				r.Put("/", h.updateAppointment)
				r.Delete("/", h.deleteAppointment)
				r.Post("/status", h.changeStatus)
				r.Post("/cancel", h.cancelAppointment)
				r.Put("/review", h.submitReview)
			})
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/", h.listCatalog)

			r.Group(func(r chi.Router) {
				r.Use(RequireAdmin)

				r.Post("/categories", h.createCategory)
				r.Put("/categories/{id}", h.renameCategory)
				r.Delete("/categories/{id}", h.deleteCategory)
				r.Post("/services", h.createOffering)
				r.Put("/services/{id}", h.updateOffering)
				r.Delete("/services/{id}", h.deleteOffering)
			})
		})
	})

	return r
}
