package commands_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"orderqueue/internal/core/application/usecases/commands"
	"orderqueue/internal/core/domain/model/order"
	"orderqueue/internal/core/ports"
	"orderqueue/internal/pkg/errs"
)

// memStore is an in-memory order store whose transactions run one at a time,
// which is enough to reproduce the interleavings of two workers.
type memStore struct {
	tx     sync.Mutex
	orders map[int64]order.Order
}

func newMemStore(orders ...*order.Order) *memStore {
	s := &memStore{orders: make(map[int64]order.Order, len(orders))}
	for _, o := range orders {
		s.orders[o.ID()] = *o
	}
	return s
}

func (s *memStore) Create() commands.OrderUoW {
	return &memUoW{store: s}
}

// snapshot reads committed state outside any transaction.
func (s *memStore) snapshot(id int64) order.Order {
	s.tx.Lock()
	defer s.tx.Unlock()
	return s.orders[id]
}

type memUoW struct {
	store  *memStore
	active bool
	staged map[int64]order.Order
}

func (u *memUoW) Begin(context.Context) error {
	if u.active {
		return errors.New("transaction already started")
	}
	u.store.tx.Lock()
	u.active = true
	u.staged = make(map[int64]order.Order)
	return nil
}

func (u *memUoW) Commit(context.Context) error {
	if !u.active {
		return errors.New("no active transaction")
	}
	for id, o := range u.staged {
		u.store.orders[id] = o
	}
	u.active = false
	u.store.tx.Unlock()
	return nil
}

func (u *memUoW) Rollback(context.Context) error {
	if !u.active {
		return nil
	}
	u.active = false
	u.store.tx.Unlock()
	return nil
}

func (u *memUoW) OrderRepository() ports.OrderRepository {
	return memRepo{uow: u}
}

type memRepo struct {
	uow *memUoW
}

func (r memRepo) Add(context.Context, *order.Order) error {
	return errors.New("not supported")
}

func (r memRepo) Update(_ context.Context, o *order.Order) error {
	if _, ok := r.uow.store.orders[o.ID()]; !ok {
		return errs.NewObjectNotFoundError("order", o.ID())
	}
	r.uow.staged[o.ID()] = *o
	return nil
}

func (r memRepo) Get(_ context.Context, id int64) (*order.Order, error) {
	if o, ok := r.uow.staged[id]; ok {
		return &o, nil
	}
	o, ok := r.uow.store.orders[id]
	if !ok {
		return nil, errs.NewObjectNotFoundError("order", id)
	}
	return &o, nil
}

func (r memRepo) GetForUpdate(ctx context.Context, id int64) (*order.Order, error) {
	return r.Get(ctx, id)
}

func (r memRepo) GetAllPendingOlderThanForUpdate(
	_ context.Context, cutoff time.Time, limit int,
) ([]*order.Order, error) {
	var stale []*order.Order
	for _, o := range r.uow.store.orders {
		if o.Status() == order.Pending && o.UpdatedAt().Before(cutoff) {
			stale = append(stale, &o)
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i].ID() < stale[j].ID() })
	if limit > 0 && len(stale) > limit {
		stale = stale[:limit]
	}
	return stale, nil
}

// blockingProcessor holds every Process call until release is closed and
// records the highest number of calls running at once.
type blockingProcessor struct {
	entered chan struct{}
	release chan struct{}

	calls     atomic.Int32
	active    atomic.Int32
	maxActive atomic.Int32
}

func newBlockingProcessor() *blockingProcessor {
	return &blockingProcessor{
		entered: make(chan struct{}, 8),
		release: make(chan struct{}),
	}
}

func (p *blockingProcessor) Process(ctx context.Context, _ *order.Order) error {
	p.calls.Add(1)
	n := p.active.Add(1)
	defer p.active.Add(-1)
	for {
		peak := p.maxActive.Load()
		if n <= peak || p.maxActive.CompareAndSwap(peak, n) {
			break
		}
	}

	p.entered <- struct{}{}
	select {
	case <-p.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
