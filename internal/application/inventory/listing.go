package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"

	"github.com/jhoicas/shelf-inventory/internal/domain"
	"github.com/jhoicas/shelf-inventory/internal/domain/repository"
	"github.com/jhoicas/shelf-inventory/pkg/metrics"
)

// MaxPageSize acota los listados del libro y de productos.
const MaxPageSize = 100

// DefaultLedgerSort ordena los listados del más nuevo al más viejo.
var DefaultLedgerSort = repository.Sort{Key: repository.SortCreatedAt, Desc: true}

// ListResult es una página de listado y el nivel que la produjo.
type ListResult struct {
	Page *repository.LedgerPage
	Tier repository.QueryTier
}

// LedgerLister sirve listados del libro con una cadena ordenada de estrategias de consulta.
// Responde la primera que funciona; cada falla se registra y pasa a la siguiente.
type LedgerLister struct {
	strategies []repository.LedgerQueryStrategy
	log        zerolog.Logger
	metrics    *metrics.QueryMetrics
}

// NewLedgerLister ordena las estrategias por nivel, la preferida primero.
func NewLedgerLister(strategies []repository.LedgerQueryStrategy, log zerolog.Logger, m *metrics.QueryMetrics) *LedgerLister {
	ordered := append([]repository.LedgerQueryStrategy(nil), strategies...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Tier() < ordered[j].Tier() })
	return &LedgerLister{
		strategies: ordered,
		log:        log.With().Str("component", "ledger_lister").Logger(),
		metrics:    m,
	}
}

// List valida q y lo pasa por la cadena de estrategias. Si todas fallan
// devuelve domain.ErrQueryFailure con la falla de cada estrategia.
func (l *LedgerLister) List(ctx context.Context, q repository.LedgerQuery) (*ListResult, error) {
	q, err := normalizeLedgerQuery(q)
	if err != nil {
		return nil, err
	}
	var failures error
	for _, s := range l.strategies {
		tier := s.Tier()
		page, err := s.Find(ctx, q)
		if err == nil {
			l.metrics.IncServed(tier.String())
			ev := l.log.Debug()
			if tier != repository.TierPreferred {
				ev = l.log.Warn()
			}
			ev.Str("tier", tier.String()).Str("direction", string(q.Filter.Direction)).Int64("total", page.Total).Msg("ledger listing served")
			return &ListResult{Page: page, Tier: tier}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		l.metrics.IncFailed(tier.String())
		l.log.Warn().Err(err).Str("tier", tier.String()).Msg("ledger listing strategy failed")
		failures = multierr.Append(failures, fmt.Errorf("%s: %w", tier, err))
	}
	if failures == nil {
		failures = errors.New("no hay estrategias de consulta configuradas")
	}
	l.log.Error().Err(failures).Msg("ledger listing exhausted every strategy")
	return nil, domain.Wrap(domain.ErrQueryFailure, "ledger listing is unavailable", failures)
}

func normalizeLedgerQuery(q repository.LedgerQuery) (repository.LedgerQuery, error) {
	f := q.Filter
	if !f.Direction.Valid() {
		return q, domain.Reject(domain.ErrInvalidInput, "direction must be IN or OUT")
	}
	if f.ProductID != "" {
		if _, err := uuid.Parse(f.ProductID); err != nil {
			return q, domain.Reject(domain.ErrInvalidInput, "product id must be a UUID")
		}
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return q, domain.Reject(domain.ErrInvalidInput, "date range start is after its end")
	}
	if q.Limit < 1 || q.Limit > MaxPageSize {
		return q, domain.Reject(domain.ErrInvalidInput, fmt.Sprintf("limit must be between 1 and %d", MaxPageSize))
	}
	if q.Offset < 0 {
		return q, domain.Reject(domain.ErrInvalidInput, "offset must not be negative")
	}
	if q.Sort.Key == "" {
		q.Sort = DefaultLedgerSort
	}
	if _, err := repository.ParseSort(string(q.Sort.Key), "", repository.LedgerSortKeys, q.Sort); err != nil {
		return q, err
	}
	return q, nil
}
