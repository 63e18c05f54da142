package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var fieldMessages = map[string]string{
	"Name":       "Category name is required and at most 80 characters",
	"CategoryID": "Service category is required",
	"Title":      "Service title is required and at most 120 characters",
	"PriceCents": "Price cannot be negative",
}

// Service manages the catalog. Callers are expected to restrict mutations
// to staff.
type Service struct {
	repo     Repository
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.With().Str("component", "catalog").Logger(),
	}
}

// ListCategories returns every category with its services.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// ResolveCategory finds a category by name, ignoring case and surrounding space.
func (s *Service) ResolveCategory(ctx context.Context, name string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrCategoryNotFound
	}
	c, err := s.repo.GetCategoryByName(ctx, name)
	if err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("resolve category: %w", err)
	}
	return c, nil
}

func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (*Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := s.check(in); err != nil {
		return nil, err
	}

	c, err := s.repo.CreateCategory(ctx, in.Name)
	if err != nil {
		return nil, wrap("create category", err)
	}
	s.logger.Info().Str("category_id", c.ID.String()).Str("name", c.Name).Msg("category created")
	return c, nil
}

// RenameCategory changes a category's name. Appointments already booked
// keep the name they were booked under.
func (s *Service) RenameCategory(ctx context.Context, id uuid.UUID, in CategoryInput) (*Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := s.check(in); err != nil {
		return nil, err
	}

	c, err := s.repo.RenameCategory(ctx, id, in.Name)
	if err != nil {
		return nil, wrap("rename category", err)
	}
	s.logger.Info().Str("category_id", c.ID.String()).Str("name", c.Name).Msg("category renamed")
	return c, nil
}

// DeleteCategory removes an empty category.
func (s *Service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return wrap("delete category", err)
	}
	s.logger.Info().Str("category_id", id.String()).Msg("category deleted")
	return nil
}

func (s *Service) CreateOffering(ctx context.Context, in OfferingInput) (*Offering, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := s.check(in); err != nil {
		return nil, err
	}

	o, err := s.repo.CreateOffering(ctx, in)
	if err != nil {
		return nil, wrap("create service", err)
	}
	s.logger.Info().Str("service_id", o.ID.String()).Str("title", o.Title).Msg("service created")
	return o, nil
}

func (s *Service) UpdateOffering(ctx context.Context, id uuid.UUID, in OfferingInput) (*Offering, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := s.check(in); err != nil {
		return nil, err
	}

	o, err := s.repo.UpdateOffering(ctx, id, in)
	if err != nil {
		return nil, wrap("update service", err)
	}
	return o, nil
}

func (s *Service) DeleteOffering(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteOffering(ctx, id); err != nil {
		return wrap("delete service", err)
	}
	s.logger.Info().Str("service_id", id.String()).Msg("service deleted")
	return nil
}

// EnsureDefaults adds any category or service from defaults that is missing.
// Existing entries are left untouched.
func (s *Service) EnsureDefaults(ctx context.Context, defaults []Category) error {
	for _, want := range defaults {
		c, err := s.ResolveCategory(ctx, want.Name)
		if errors.Is(err, ErrCategoryNotFound) {
			c, err = s.CreateCategory(ctx, CategoryInput{Name: want.Name})
		}
		if err != nil {
			return err
		}

		for _, o := range want.Offerings {
			if c.Offers(o.Title) {
				continue
			}
			_, err := s.CreateOffering(ctx, OfferingInput{CategoryID: c.ID, Title: o.Title, PriceCents: o.PriceCents})
			if err != nil && !errors.Is(err, ErrDuplicate) {
				return err
			}
		}
	}
	return nil
}

func (s *Service) check(in any) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Fields[fe.Field()] = fieldMessages[fe.Field()]
	}
	return out
}

func wrap(op string, err error) error {
	switch {
	case errors.Is(err, ErrCategoryNotFound),
		errors.Is(err, ErrOfferingNotFound),
		errors.Is(err, ErrDuplicate),
		errors.Is(err, ErrCategoryInUse):
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
