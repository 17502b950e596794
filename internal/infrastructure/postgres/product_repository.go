package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/shelf-inventory/internal/domain"
	"github.com/jhoicas/shelf-inventory/internal/domain/entity"
	"github.com/jhoicas/shelf-inventory/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// productSortColumns mapea las claves públicas de orden a columnas físicas.
var productSortColumns = map[repository.SortKey]string{
	repository.SortCreatedAt:    "created_at",
	repository.SortUpdatedAt:    "updated_at",
	repository.SortName:         "name",
	repository.SortPrice:        "price",
	repository.SortInitialStock: "initial_stock",
}

func init() {
	if err := repository.CheckSortTable(productSortColumns, repository.ProductSortKeys); err != nil {
		panic("postgres products: " + err.Error())
	}
}

const productColumns = `id, name, spec, unit, initial_stock, price, running_balance, version, image_url, created_at, updated_at`

// ProductRepo implementa ProductRepository sobre PostgreSQL (pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador sobre un pool o una transacción.
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(&p.ID, &p.Name, &p.Spec, &p.Unit, &p.InitialStock, &p.Price,
		&p.RunningBalance, &p.Version, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func collectProducts(rows pgx.Rows) ([]*entity.Product, error) {
	defer rows.Close()
	var out []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Create inserta un producto. El índice único sobre (lower(name), lower(spec)) respalda
// la validación de duplicados del caso de uso.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.Name, p.Spec, p.Unit, p.InitialStock, p.Price,
		p.RunningBalance, p.Version, p.ImageURL, p.CreatedAt, p.UpdatedAt,
	)
	return mapError("insert product", err)
}

func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

// GetForUpdate bloquea la fila del producto hasta que termine la transacción.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id)
}

func (r *ProductRepo) getOne(ctx context.Context, query, id string) (*entity.Product, error) {
	if !validID(id) {
		return nil, nil
	}
	p, err := scanProduct(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get product", err)
	}
	return p, nil
}

func (r *ProductRepo) FindByNameAndSpec(ctx context.Context, name, spec string) ([]*entity.Product, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE lower(name) = lower($1) AND lower(spec) = lower($2)`,
		strings.TrimSpace(name), strings.TrimSpace(spec))
	if err != nil {
		return nil, mapError("find product by name and spec", err)
	}
	out, err := collectProducts(rows)
	return out, mapError("find product by name and spec", err)
}

// Update escribe las columnas descriptivas. Las de stock son del motor de inventario.
func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE products SET name = $2, spec = $3, unit = $4, price = $5, image_url = $6, updated_at = $7
		WHERE id = $1`,
		p.ID, p.Name, p.Spec, p.Unit, p.Price, p.ImageURL, p.UpdatedAt,
	)
	if err != nil {
		return mapError("update product", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateBalance es un compare-and-swap sobre version.
func (r *ProductRepo) UpdateBalance(ctx context.Context, id string, balance, version int64) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE products SET running_balance = $2, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $3`,
		id, balance, version,
	)
	if err != nil {
		return mapError("update product balance", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("update product balance %s: %w", id, domain.ErrConflict)
	}
	return nil
}

func (r *ProductRepo) List(ctx context.Context, q repository.ProductQuery) ([]*entity.Product, int64, error) {
	column, ok := productSortColumns[q.Sort.Key]
	if !ok {
		column = productSortColumns[repository.SortCreatedAt]
	}
	order := "ASC"
	if q.Sort.Desc {
		order = "DESC"
	}
	name, spec := containsPattern(q.Filter.Name), containsPattern(q.Filter.Spec)
	rows, err := r.q.Query(ctx, `
		SELECT `+productColumns+`, COUNT(*) OVER() FROM products
		WHERE ($1::text = '' OR name ILIKE $1)
		  AND ($2::text = '' OR spec ILIKE $2)
		ORDER BY `+column+` `+order+`, id `+order+`
		LIMIT $3 OFFSET $4`,
		name, spec, q.Limit, q.Offset,
	)
	if err != nil {
		return nil, 0, mapError("list products", err)
	}
	defer rows.Close()
	var (
		out   []*entity.Product
		total int64
	)
	for rows.Next() {
		var p entity.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Spec, &p.Unit, &p.InitialStock, &p.Price,
			&p.RunningBalance, &p.Version, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt, &total); err != nil {
			return nil, 0, mapError("scan product", err)
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError("list products", err)
	}
	if len(out) == 0 && q.Offset > 0 {
		// Pasada la última página COUNT(*) OVER() no tiene fila en la que viajar.
		if err := r.q.QueryRow(ctx, `
			SELECT COUNT(*) FROM products
			WHERE ($1::text = '' OR name ILIKE $1)
			  AND ($2::text = '' OR spec ILIKE $2)`,
			name, spec).Scan(&total); err != nil {
			return nil, 0, mapError("count products", err)
		}
	}
	return out, total, nil
}

func (r *ProductRepo) ListAll(ctx context.Context) ([]*entity.Product, error) {
	rows, err := r.q.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY name, spec, id`)
	if err != nil {
		return nil, mapError("list all products", err)
	}
	out, err := collectProducts(rows)
	return out, mapError("list all products", err)
}

func (r *ProductRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&n)
	return n, mapError("count products", err)
}

func (r *ProductRepo) EarliestCreatedAt(ctx context.Context) (*time.Time, error) {
	var t *time.Time
	if err := r.q.QueryRow(ctx, `SELECT MIN(created_at) FROM products`).Scan(&t); err != nil {
		return nil, mapError("earliest product", err)
	}
	return t, nil
}

// Delete elimina el producto. Los registros que queden en el libro lo impiden (ON DELETE RESTRICT).
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return domain.ErrNotFound
	}
	cmd, err := r.q.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return mapError("delete product", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
