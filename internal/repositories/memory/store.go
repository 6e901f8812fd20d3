// Package memory is a process-local implementation of every repository port.
// It reproduces the PostgreSQL guarantees the services rely on: conditional
// pool updates, compare-and-set status transitions, unique inbound
// references and all-or-nothing units of work.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/SscSPs/btc_momo_exchange/internal/core/domain"
	portsrepo "github.com/SscSPs/btc_momo_exchange/internal/core/ports/repositories"
)

type txCtxKey struct{}

// Store holds all state behind one lock. txMu serializes units of work so a
// rollback can restore a snapshot without clobbering concurrent writers.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	pools        map[domain.Currency]domain.LiquidityPool
	transactions map[string]domain.Transaction
	rates        []domain.ExchangeRate
	refunds      map[string]domain.ManualRefund
	refundOrder  []string
	cursors      map[string]uint64

	now func() time.Time
}

// NewStore returns a store with empty BTC and ZMW pools.
func NewStore() *Store {
	s := &Store{
		pools:        make(map[domain.Currency]domain.LiquidityPool),
		transactions: make(map[string]domain.Transaction),
		refunds:      make(map[string]domain.ManualRefund),
		cursors:      make(map[string]uint64),
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, c := range []domain.Currency{domain.CurrencyBTC, domain.CurrencyZMW} {
		s.pools[c] = domain.LiquidityPool{Currency: c, UpdatedAt: s.now()}
	}
	return s
}

// Provider exposes the store through the repository ports.
func (s *Store) Provider() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		TxManager:        s,
		LiquidityRepo:    s,
		TransactionRepo:  s,
		ExchangeRateRepo: s,
		RefundRepo:       s,
		CursorRepo:       s,
	}
}

var _ portsrepo.TransactionManager = (*Store)(nil)

// WithinTx runs fn against a snapshot-protected store. Nested calls join the
// outer unit of work.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txCtxKey{}, true)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txCtxKey{}).(bool)
	return v
}

// write runs a mutation. Outside a unit of work it also takes txMu so it can
// never interleave with one that might roll back.
func (s *Store) write(ctx context.Context, fn func() error) error {
	if !inTx(ctx) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

type snapshot struct {
	pools        map[domain.Currency]domain.LiquidityPool
	transactions map[string]domain.Transaction
	rates        []domain.ExchangeRate
	refunds      map[string]domain.ManualRefund
	refundOrder  []string
	cursors      map[string]uint64
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := snapshot{
		pools:        make(map[domain.Currency]domain.LiquidityPool, len(s.pools)),
		transactions: make(map[string]domain.Transaction, len(s.transactions)),
		rates:        append([]domain.ExchangeRate(nil), s.rates...),
		refunds:      make(map[string]domain.ManualRefund, len(s.refunds)),
		refundOrder:  append([]string(nil), s.refundOrder...),
		cursors:      make(map[string]uint64, len(s.cursors)),
	}
	for k, v := range s.pools {
		snap.pools[k] = v
	}
	for k, v := range s.transactions {
		snap.transactions[k] = v
	}
	for k, v := range s.refunds {
		snap.refunds[k] = v
	}
	for k, v := range s.cursors {
		snap.cursors[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pools = snap.pools
	s.transactions = snap.transactions
	s.rates = snap.rates
	s.refunds = snap.refunds
	s.refundOrder = snap.refundOrder
	s.cursors = snap.cursors
}
