package core

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"`
	Specs       []string  `json:"specs"`
	Description string    `json:"description"`
	Image       *string   `json:"image"`
	Visible     bool      `json:"visible"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductInput carries the writable product fields.
type ProductInput struct {
	Name        string
	Category    string
	Price       float64
	Specs       []string
	Description string
	Image       *string
	Visible     bool
}

type ProductRepository interface {
	ListAll(ctx context.Context) ([]Product, error)
	ListVisible(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id int64) (*Product, error)
	Create(ctx context.Context, in ProductInput) (*Product, error)
	Update(ctx context.Context, id int64, in ProductInput) (*Product, error)
	Delete(ctx context.Context, id int64) error
	ToggleVisibility(ctx context.Context, id int64) (*Product, error)
}

type PgProductRepository struct {
	db DBTX
}

func NewPgProductRepository(db DBTX) *PgProductRepository {
	return &PgProductRepository{db: db}
}

const productColumns = `id, name, category, price, specs, description, image, visible, created_at, updated_at`

func (r *PgProductRepository) ListAll(ctx context.Context) ([]Product, error) {
	return r.list(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
}

func (r *PgProductRepository) ListVisible(ctx context.Context) ([]Product, error) {
	return r.list(ctx, `SELECT `+productColumns+` FROM products WHERE visible=TRUE ORDER BY id`)
}

func (r *PgProductRepository) Get(ctx context.Context, id int64) (*Product, error) {
	return scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id))
}

func (r *PgProductRepository) Create(ctx context.Context, in ProductInput) (*Product, error) {
	specs, err := encodeSpecs(in.Specs)
	if err != nil {
		return nil, err
	}
	const q = `
INSERT INTO products (name, category, price, specs, description, image, visible)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING ` + productColumns
	return scanProduct(r.db.QueryRow(ctx, q,
		strings.TrimSpace(in.Name), strings.TrimSpace(in.Category), roundPrice(in.Price),
		specs, in.Description, in.Image, in.Visible))
}

func (r *PgProductRepository) Update(ctx context.Context, id int64, in ProductInput) (*Product, error) {
	specs, err := encodeSpecs(in.Specs)
	if err != nil {
		return nil, err
	}
	const q = `
UPDATE products
SET name=$1, category=$2, price=$3, specs=$4, description=$5, image=$6, visible=$7, updated_at=now()
WHERE id=$8
RETURNING ` + productColumns
	return scanProduct(r.db.QueryRow(ctx, q,
		strings.TrimSpace(in.Name), strings.TrimSpace(in.Category), roundPrice(in.Price),
		specs, in.Description, in.Image, in.Visible, id))
}

func (r *PgProductRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgProductRepository) ToggleVisibility(ctx context.Context, id int64) (*Product, error) {
	const q = `UPDATE products SET visible = NOT visible, updated_at=now() WHERE id=$1 RETURNING ` + productColumns
	return scanProduct(r.db.QueryRow(ctx, q, id))
}

func (r *PgProductRepository) list(ctx context.Context, q string) ([]Product, error) {
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

func scanProduct(row pgx.Row) (*Product, error) {
	var (
		p     Product
		specs string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &specs, &p.Description, &p.Image, &p.Visible, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	parsed, err := decodeSpecs(specs)
	if err != nil {
		return nil, fmt.Errorf("product %d: %w", p.ID, err)
	}
	p.Specs = parsed
	return &p, nil
}

// Specs are stored as a JSON array in a text column.
func encodeSpecs(specs []string) (string, error) {
	if specs == nil {
		specs = []string{}
	}
	b, err := json.Marshal(specs)
	if err != nil {
		return "", fmt.Errorf("encode specs: %w", err)
	}
	return string(b), nil
}

func decodeSpecs(raw string) ([]string, error) {
	specs := []string{}
	if strings.TrimSpace(raw) == "" {
		return specs, nil
	}
	if err := json.Unmarshal([]byte(raw), &specs); err != nil {
		return nil, fmt.Errorf("decode specs: %w", err)
	}
	return specs, nil
}

func roundPrice(p float64) float64 {
	return math.Round(p*100) / 100
}
