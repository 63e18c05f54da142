package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrCategoryNotFound = errors.New("service category not found")
	ErrOfferingNotFound = errors.New("service not found")
	ErrDuplicate        = errors.New("already exists in the catalog")
	ErrCategoryInUse    = errors.New("service category still has services")
)

// Category groups the services a customer picks from on the booking form.
// Its name is what appointments store as their service category.
type Category struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
	Offerings []Offering
}

// Offering is one bookable service within a category. Its title is what
// appointments store as their service type.
type Offering struct {
	ID         uuid.UUID
	CategoryID uuid.UUID
	Title      string
	PriceCents int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CategoryInput is the admin form for a category.
type CategoryInput struct {
	Name string `validate:"required,max=80"`
}

// OfferingInput is the admin form for a service.
type OfferingInput struct {
	CategoryID uuid.UUID `validate:"required"`
	Title      string    `validate:"required,max=120"`
	PriceCents int64     `validate:"gte=0"`
}

// ValidationError lists a message per offending form field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "invalid catalog entry: " + strings.Join(parts, "; ")
}

// Offering finds a service of the category by title, ignoring case.
func (c Category) Offering(title string) (Offering, bool) {
	title = strings.TrimSpace(title)
	for _, o := range c.Offerings {
		if strings.EqualFold(o.Title, title) {
			return o, true
		}
	}
	return Offering{}, false
}

func (c Category) Offers(title string) bool {
	_, ok := c.Offering(title)
	return ok
}
