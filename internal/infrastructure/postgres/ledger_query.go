package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/shelf-inventory/internal/domain/entity"
	"github.com/jhoicas/shelf-inventory/internal/domain/repository"
)

// ledgerSortColumns mapea las claves públicas de orden a columnas físicas.
var ledgerSortColumns = map[repository.SortKey]string{
	repository.SortDate:          "e.entry_date",
	repository.SortCreatedAt:     "e.created_at",
	repository.SortQuantity:      "e.quantity",
	repository.SortProductID:     "e.product_id",
	repository.SortPaymentStatus: "e.paid",
}

func init() {
	if err := repository.CheckSortTable(ledgerSortColumns, repository.LedgerSortKeys); err != nil {
		panic("postgres ledger: " + err.Error())
	}
}

const ledgerRowSelect = `
	SELECT e.id, e.product_id, e.direction, e.quantity, e.entry_date, e.image_snapshot,
	       e.recipient_name, e.paid, e.created_at, e.updated_at,
	       COALESCE(p.name, ''), COALESCE(p.spec, ''), COALESCE(p.unit, '')`

const ledgerFrom = `
	FROM ledger_entries e
	LEFT JOIN products p ON p.id = e.product_id`

// NewLedgerQueryStrategies devuelve las estrategias de listado sobre q, la preferida primero.
func NewLedgerQueryStrategies(q Querier) []repository.LedgerQueryStrategy {
	return []repository.LedgerQueryStrategy{
		&PreferredLedgerQuery{q: q},
		&DegradedLedgerQuery{q: q},
		&MinimalLedgerQuery{q: q},
	}
}

// PreferredLedgerQuery responde en un solo viaje: los filtros opcionales son chequeos NULL tipados
// y el total viaja como conteo de ventana.
type PreferredLedgerQuery struct {
	q Querier
}

func (s *PreferredLedgerQuery) Tier() repository.QueryTier { return repository.TierPreferred }

func (s *PreferredLedgerQuery) Find(ctx context.Context, lq repository.LedgerQuery) (*repository.LedgerPage, error) {
	f := lq.Filter
	var productID, name, recipient *string
	if f.ProductID != "" {
		productID = &f.ProductID
	}
	if f.ProductName != "" {
		p := likePattern(f.ProductName)
		name = &p
	}
	if f.Recipient != "" {
		p := likePattern(f.Recipient)
		recipient = &p
	}
	rows, err := s.q.Query(ctx, ledgerRowSelect+`, COUNT(*) OVER()`+ledgerFrom+`
		WHERE e.direction = $1
		  AND ($2::uuid IS NULL OR e.product_id = $2::uuid)
		  AND ($3::text IS NULL OR p.name ILIKE $3::text)
		  AND ($4::text IS NULL OR e.recipient_name ILIKE $4::text)
		  AND ($5::boolean IS NULL OR e.paid = $5::boolean)
		  AND ($6::date IS NULL OR e.entry_date >= $6::date)
		  AND ($7::date IS NULL OR e.entry_date <= $7::date)
		`+orderBy(lq.Sort)+`
		LIMIT $8 OFFSET $9`,
		string(f.Direction), productID, name, recipient, f.Paid, f.From, f.To, lq.Limit, lq.Offset,
	)
	if err != nil {
		return nil, mapError("preferred ledger query", err)
	}
	page, err := collectRows(rows, true)
	if err != nil {
		return nil, mapError("preferred ledger query", err)
	}
	if len(page.Rows) == 0 && lq.Offset > 0 {
		// Pasada la última página no hay fila que lleve el conteo de ventana.
		where, args := dynamicWhere(f)
		if page.Total, err = count(ctx, s.q, where, args); err != nil {
			return nil, mapError("preferred ledger count", err)
		}
	}
	return page, nil
}

// DegradedLedgerQuery arma el WHERE solo con los filtros presentes, con LIKE simple sobre
// texto en minúsculas y un conteo aparte.
type DegradedLedgerQuery struct {
	q Querier
}

func (s *DegradedLedgerQuery) Tier() repository.QueryTier { return repository.TierDegraded }

func (s *DegradedLedgerQuery) Find(ctx context.Context, lq repository.LedgerQuery) (*repository.LedgerPage, error) {
	where, args := dynamicWhere(lq.Filter)
	total, err := count(ctx, s.q, where, args)
	if err != nil {
		return nil, mapError("degraded ledger count", err)
	}
	n := len(args)
	args = append(args, lq.Limit, lq.Offset)
	rows, err := s.q.Query(ctx, ledgerRowSelect+ledgerFrom+where+" "+orderBy(lq.Sort)+
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", n+1, n+2), args...)
	if err != nil {
		return nil, mapError("degraded ledger query", err)
	}
	page, err := collectRows(rows, false)
	if err != nil {
		return nil, mapError("degraded ledger query", err)
	}
	page.Total = total
	return page, nil
}

// MinimalLedgerQuery conserva solo la dirección y ordena por inserción, lo más nuevo primero.
type MinimalLedgerQuery struct {
	q Querier
}

func (s *MinimalLedgerQuery) Tier() repository.QueryTier { return repository.TierMinimal }

func (s *MinimalLedgerQuery) Find(ctx context.Context, lq repository.LedgerQuery) (*repository.LedgerPage, error) {
	dir := string(lq.Filter.Direction)
	var total int64
	if err := s.q.QueryRow(ctx, `SELECT COUNT(*) FROM ledger_entries WHERE direction = $1`, dir).Scan(&total); err != nil {
		return nil, mapError("minimal ledger count", err)
	}
	rows, err := s.q.Query(ctx, ledgerRowSelect+ledgerFrom+`
		WHERE e.direction = $1
		ORDER BY e.created_at DESC, e.id DESC
		LIMIT $2 OFFSET $3`,
		dir, lq.Limit, lq.Offset)
	if err != nil {
		return nil, mapError("minimal ledger query", err)
	}
	page, err := collectRows(rows, false)
	if err != nil {
		return nil, mapError("minimal ledger query", err)
	}
	page.Total = total
	return page, nil
}

// dynamicWhere convierte los filtros presentes en predicados posicionales.
func dynamicWhere(f repository.LedgerFilter) (string, []any) {
	clauses := []string{"e.direction = $1"}
	args := []any{string(f.Direction)}
	add := func(pred string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(pred, len(args)))
	}
	if f.ProductID != "" {
		add("e.product_id = CAST($%d AS uuid)", f.ProductID)
	}
	if f.ProductName != "" {
		add("LOWER(COALESCE(p.name, '')) LIKE CAST($%d AS text)", strings.ToLower(likePattern(f.ProductName)))
	}
	if f.Recipient != "" {
		add("LOWER(e.recipient_name) LIKE CAST($%d AS text)", strings.ToLower(likePattern(f.Recipient)))
	}
	if f.Paid != nil {
		add("e.paid = CAST($%d AS boolean)", *f.Paid)
	}
	if f.From != nil {
		add("e.entry_date >= CAST($%d AS date)", entity.Date(*f.From))
	}
	if f.To != nil {
		add("e.entry_date <= CAST($%d AS date)", entity.Date(*f.To))
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func count(ctx context.Context, q Querier, where string, args []any) (int64, error) {
	var n int64
	err := q.QueryRow(ctx, `SELECT COUNT(*)`+ledgerFrom+where, args...).Scan(&n)
	return n, err
}

// orderBy arma un orden ya validado. Los empates se rompen por id para páginas estables.
func orderBy(s repository.Sort) string {
	column, ok := ledgerSortColumns[s.Key]
	if !ok {
		column = ledgerSortColumns[repository.SortCreatedAt]
	}
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	return "ORDER BY " + column + " " + dir + ", e.id " + dir
}

// likePattern envuelve s para buscar subcadenas, escapando los comodines de LIKE.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// containsPattern es likePattern para filtros opcionales; vacío sigue vacío.
func containsPattern(s string) string {
	if s == "" {
		return ""
	}
	return likePattern(s)
}

func collectRows(rows pgx.Rows, withTotal bool) (*repository.LedgerPage, error) {
	defer rows.Close()
	page := &repository.LedgerPage{Rows: []entity.LedgerRow{}}
	for rows.Next() {
		var (
			row entity.LedgerRow
			dir string
		)
		dest := []any{&row.ID, &row.ProductID, &dir, &row.Quantity, &row.Date, &row.ImageSnapshot,
			&row.RecipientName, &row.Paid, &row.CreatedAt, &row.UpdatedAt,
			&row.ProductName, &row.ProductSpec, &row.ProductUnit}
		if withTotal {
			dest = append(dest, &page.Total)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		row.Direction = entity.Direction(dir)
		row.Date = entity.Date(row.Date)
		page.Rows = append(page.Rows, row)
	}
	return page, rows.Err()
}
