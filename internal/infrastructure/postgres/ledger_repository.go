package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/shelf-inventory/internal/domain"
	"github.com/jhoicas/shelf-inventory/internal/domain/entity"
	"github.com/jhoicas/shelf-inventory/internal/domain/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

const entryColumns = `id, product_id, direction, quantity, entry_date, image_snapshot, recipient_name, paid, created_at, updated_at`

// LedgerRepo implementa LedgerRepository sobre PostgreSQL (pool o tx).
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository construye el adaptador sobre un pool o una transacción.
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

func scanEntry(row pgx.Row) (*entity.LedgerEntry, error) {
	var (
		e   entity.LedgerEntry
		dir string
	)
	if err := row.Scan(&e.ID, &e.ProductID, &dir, &e.Quantity, &e.Date, &e.ImageSnapshot,
		&e.RecipientName, &e.Paid, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.Direction = entity.Direction(dir)
	e.Date = entity.Date(e.Date)
	return &e, nil
}

func (r *LedgerRepo) Create(ctx context.Context, e *entity.LedgerEntry) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO ledger_entries (`+entryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, e.ProductID, string(e.Direction), e.Quantity, e.Date, e.ImageSnapshot,
		e.RecipientName, e.Paid, e.CreatedAt, e.UpdatedAt,
	)
	return mapError("insert ledger entry", err)
}

func (r *LedgerRepo) GetByID(ctx context.Context, id string) (*entity.LedgerEntry, error) {
	return r.getOne(ctx, `SELECT `+entryColumns+` FROM ledger_entries WHERE id = $1`, id)
}

// GetForUpdate bloquea la fila del registro hasta que termine la transacción.
func (r *LedgerRepo) GetForUpdate(ctx context.Context, id string) (*entity.LedgerEntry, error) {
	return r.getOne(ctx, `SELECT `+entryColumns+` FROM ledger_entries WHERE id = $1 FOR UPDATE`, id)
}

func (r *LedgerRepo) getOne(ctx context.Context, query, id string) (*entity.LedgerEntry, error) {
	if !validID(id) {
		return nil, nil
	}
	e, err := scanEntry(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get ledger entry", err)
	}
	return e, nil
}

func (r *LedgerRepo) Update(ctx context.Context, e *entity.LedgerEntry) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE ledger_entries
		SET product_id = $2, quantity = $3, entry_date = $4, image_snapshot = $5,
		    recipient_name = $6, paid = $7, updated_at = $8
		WHERE id = $1`,
		e.ID, e.ProductID, e.Quantity, e.Date, e.ImageSnapshot, e.RecipientName, e.Paid, e.UpdatedAt,
	)
	if err != nil {
		return mapError("update ledger entry", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *LedgerRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return domain.ErrNotFound
	}
	cmd, err := r.q.Exec(ctx, `DELETE FROM ledger_entries WHERE id = $1`, id)
	if err != nil {
		return mapError("delete ledger entry", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *LedgerRepo) CountByProduct(ctx context.Context, productID string, dir entity.Direction) (int64, error) {
	var n int64
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM ledger_entries WHERE product_id = $1 AND direction = $2`,
		productID, string(dir)).Scan(&n)
	return n, mapError("count ledger entries", err)
}

func (r *LedgerRepo) DeleteByProduct(ctx context.Context, productID string, dir entity.Direction) (int64, error) {
	cmd, err := r.q.Exec(ctx,
		`DELETE FROM ledger_entries WHERE product_id = $1 AND direction = $2`,
		productID, string(dir))
	if err != nil {
		return 0, mapError("delete ledger entries", err)
	}
	return cmd.RowsAffected(), nil
}

// TotalsUntil agrega ambas direcciones en una sola pasada.
func (r *LedgerRepo) TotalsUntil(ctx context.Context, productID string, until time.Time) (entity.MovementTotals, error) {
	var t entity.MovementTotals
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity) FILTER (WHERE direction = 'IN'), 0),
		       COALESCE(SUM(quantity) FILTER (WHERE direction = 'OUT'), 0)
		FROM ledger_entries
		WHERE product_id = $1 AND entry_date <= $2`,
		productID, entity.Date(until)).Scan(&t.Inbound, &t.Outbound)
	return t, mapError("sum ledger entries", err)
}

func (r *LedgerRepo) TotalsByProductUntil(ctx context.Context, until time.Time) (map[string]entity.MovementTotals, error) {
	rows, err := r.q.Query(ctx, `
		SELECT product_id,
		       COALESCE(SUM(quantity) FILTER (WHERE direction = 'IN'), 0),
		       COALESCE(SUM(quantity) FILTER (WHERE direction = 'OUT'), 0)
		FROM ledger_entries
		WHERE entry_date <= $1
		GROUP BY product_id`,
		entity.Date(until))
	if err != nil {
		return nil, mapError("sum ledger entries by product", err)
	}
	defer rows.Close()
	out := make(map[string]entity.MovementTotals)
	for rows.Next() {
		var (
			id string
			t  entity.MovementTotals
		)
		if err := rows.Scan(&id, &t.Inbound, &t.Outbound); err != nil {
			return nil, mapError("scan ledger totals", err)
		}
		out[id] = t
	}
	return out, mapError("sum ledger entries by product", rows.Err())
}

func (r *LedgerRepo) SumBetween(ctx context.Context, dir entity.Direction, from, to time.Time) (int64, error) {
	var n int64
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity), 0) FROM ledger_entries
		WHERE direction = $1 AND entry_date BETWEEN $2 AND $3`,
		string(dir), entity.Date(from), entity.Date(to)).Scan(&n)
	return n, mapError("sum ledger entries between", err)
}

func (r *LedgerRepo) DailyTotals(ctx context.Context, dir entity.Direction, from, to time.Time) ([]entity.DailyTotal, error) {
	rows, err := r.q.Query(ctx, `
		SELECT entry_date, SUM(quantity) FROM ledger_entries
		WHERE direction = $1 AND entry_date BETWEEN $2 AND $3
		GROUP BY entry_date
		ORDER BY entry_date`,
		string(dir), entity.Date(from), entity.Date(to))
	if err != nil {
		return nil, mapError("daily ledger totals", err)
	}
	defer rows.Close()
	var out []entity.DailyTotal
	for rows.Next() {
		var d entity.DailyTotal
		if err := rows.Scan(&d.Date, &d.Quantity); err != nil {
			return nil, mapError("scan daily total", err)
		}
		d.Date = entity.Date(d.Date)
		out = append(out, d)
	}
	return out, mapError("daily ledger totals", rows.Err())
}
