// Package memory implementa en proceso los almacenes de productos y del libro.
// Las transacciones corren de a una sobre una copia de los datos que reemplaza el estado
// compartido al hacer commit; una transacción abortada no deja rastro.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/shelf-inventory/internal/application/inventory"
	"github.com/jhoicas/shelf-inventory/internal/domain"
	"github.com/jhoicas/shelf-inventory/internal/domain/entity"
	"github.com/jhoicas/shelf-inventory/internal/domain/repository"
)

var _ inventory.TxRunner = (*Store)(nil)

type state struct {
	products map[string]entity.Product
	entries  map[string]entity.LedgerEntry
	admins   map[string]entity.Admin
}

func newState() *state {
	return &state{
		products: make(map[string]entity.Product),
		entries:  make(map[string]entity.LedgerEntry),
		admins:   make(map[string]entity.Admin),
	}
}

func (s *state) clone() *state {
	c := &state{
		products: make(map[string]entity.Product, len(s.products)),
		entries:  make(map[string]entity.LedgerEntry, len(s.entries)),
		admins:   make(map[string]entity.Admin, len(s.admins)),
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.entries {
		c.entries[k] = v
	}
	for k, v := range s.admins {
		c.admins[k] = v
	}
	return c
}

// Store guarda el estado compartido. El valor cero no sirve; usar New.
type Store struct {
	mu sync.Mutex
	st *state

	faultMu   sync.Mutex
	conflicts int
	commitErr error
}

// New devuelve un almacén vacío.
func New() *Store {
	return &Store{st: newState()}
}

// Run ejecuta fn sobre una copia privada del estado y la publica si fn y el commit
// terminan bien. Las transacciones se serializan, lo que cubre el bloqueo de filas.
func (s *Store) Run(ctx context.Context, fn func(
	products repository.ProductRepository,
	ledger repository.LedgerRepository,
) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return domain.Wrap(domain.ErrStorageUnavailable, "transaction aborted", err)
	}
	tx := s.st.clone()
	v := view{store: s, tx: tx}
	if err := fn(&ProductRepo{v: v}, &LedgerRepo{v: v}); err != nil {
		return err
	}
	if err := s.takeCommitFault(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return domain.Wrap(domain.ErrStorageUnavailable, "transaction aborted", err)
	}
	s.st = tx
	return nil
}

// Ping reporta el almacén como disponible.
func (s *Store) Ping(context.Context) error { return nil }

// Products devuelve un repositorio de productos fuera de toda transacción.
func (s *Store) Products() *ProductRepo { return &ProductRepo{v: view{store: s}} }

// Ledger devuelve un repositorio del libro fuera de toda transacción.
func (s *Store) Ledger() *LedgerRepo { return &LedgerRepo{v: view{store: s}} }

// Admins devuelve el repositorio de administradores.
func (s *Store) Admins() *AdminRepo { return &AdminRepo{v: view{store: s}} }

// InjectConflicts hace fallar las próximas n escrituras de saldo con domain.ErrConflict.
func (s *Store) InjectConflicts(n int) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.conflicts = n
}

// FailNextCommit hace fallar la próxima transacción con err al hacer commit.
func (s *Store) FailNextCommit(err error) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.commitErr = err
}

func (s *Store) takeConflict() bool {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	if s.conflicts > 0 {
		s.conflicts--
		return true
	}
	return false
}

func (s *Store) takeCommitFault() error {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	err := s.commitErr
	s.commitErr = nil
	return err
}

// view ata un repositorio a la copia de una transacción o al estado compartido.
type view struct {
	store *Store
	tx    *state
}

func (v view) do(fn func(*state) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.st)
}
