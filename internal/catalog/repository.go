package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Repository stores categories and their services.
type Repository interface {
	ListCategories(ctx context.Context) ([]Category, error)
	// GetCategoryByName matches case-insensitively and loads the category's services.
	GetCategoryByName(ctx context.Context, name string) (*Category, error)
	CreateCategory(ctx context.Context, name string) (*Category, error)
	RenameCategory(ctx context.Context, id uuid.UUID, name string) (*Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	CreateOffering(ctx context.Context, in OfferingInput) (*Offering, error)
	UpdateOffering(ctx context.Context, id uuid.UUID, in OfferingInput) (*Offering, error)
	DeleteOffering(ctx context.Context, id uuid.UUID) error
}

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// translateError maps constraint violations onto catalog errors. onForeignKey
// is what a 23503 means for the calling statement.
func translateError(err error, onForeignKey error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return ErrDuplicate
	case pgForeignKeyViolation:
		return onForeignKey
	}
	return err
}

func scanCategory(row pgx.Row) (*Category, error) {
	var c Category
	if err := row.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, translateError(err, ErrCategoryInUse)
	}
	return &c, nil
}

func scanOffering(row pgx.Row) (*Offering, error) {
	var o Offering
	if err := row.Scan(&o.ID, &o.CategoryID, &o.Title, &o.PriceCents, &o.CreatedAt, &o.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOfferingNotFound
		}
		return nil, translateError(err, ErrCategoryNotFound)
	}
	return &o, nil
}

func (r *PgRepository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, created_at
		FROM service_categories
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		categories []Category
		index      = map[uuid.UUID]int{}
	)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		index[c.ID] = len(categories)
		categories = append(categories, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	offerings, err := r.listOfferings(ctx, nil)
	if err != nil {
		return nil, err
	}
	for _, o := range offerings {
		if i, ok := index[o.CategoryID]; ok {
			categories[i].Offerings = append(categories[i].Offerings, o)
		}
	}
	return categories, nil
}

func (r *PgRepository) GetCategoryByName(ctx context.Context, name string) (*Category, error) {
	c, err := scanCategory(r.pool.QueryRow(ctx, `
		SELECT id, name, created_at
		FROM service_categories
		WHERE lower(name) = lower($1)
	`, name))
	if err != nil {
		return nil, err
	}

	c.Offerings, err = r.listOfferings(ctx, &c.ID)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *PgRepository) listOfferings(ctx context.Context, categoryID *uuid.UUID) ([]Offering, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, category_id, title, price_cents, created_at, updated_at
		FROM services
		WHERE $1::uuid IS NULL OR category_id = $1
		ORDER BY title
	`, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var offerings []Offering
	for rows.Next() {
		o, err := scanOffering(rows)
		if err != nil {
			return nil, err
		}
		offerings = append(offerings, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return offerings, nil
}

func (r *PgRepository) CreateCategory(ctx context.Context, name string) (*Category, error) {
	return scanCategory(r.pool.QueryRow(ctx, `
		INSERT INTO service_categories (id, name, created_at)
		VALUES ($1, $2, now())
		RETURNING id, name, created_at
	`, uuid.New(), name))
}

func (r *PgRepository) RenameCategory(ctx context.Context, id uuid.UUID, name string) (*Category, error) {
	return scanCategory(r.pool.QueryRow(ctx, `
		UPDATE service_categories
		SET name = $2
		WHERE id = $1
		RETURNING id, name, created_at
	`, id, name))
}

func (r *PgRepository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM service_categories WHERE id = $1`, id)
	if err != nil {
		return translateError(err, ErrCategoryInUse)
	}
	if tag.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func (r *PgRepository) CreateOffering(ctx context.Context, in OfferingInput) (*Offering, error) {
	return scanOffering(r.pool.QueryRow(ctx, `
		INSERT INTO services (id, category_id, title, price_cents, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING id, category_id, title, price_cents, created_at, updated_at
	`, uuid.New(), in.CategoryID, in.Title, in.PriceCents))
}

func (r *PgRepository) UpdateOffering(ctx context.Context, id uuid.UUID, in OfferingInput) (*Offering, error) {
	return scanOffering(r.pool.QueryRow(ctx, `
		UPDATE services
		SET category_id = $2,
		    title = $3,
		    price_cents = $4,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, category_id, title, price_cents, created_at, updated_at
	`, id, in.CategoryID, in.Title, in.PriceCents))
}

func (r *PgRepository) DeleteOffering(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOfferingNotFound
	}
	return nil
}
