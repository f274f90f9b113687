package resource

import (
	"context"
	"sync"

	EventBus "github.com/asaskevich/EventBus"
	"github.com/pkg/errors"
)

// Entity is anything the backend identifies by a key.
type Entity interface {
	Key() string
}

// Backend is the remote side of a store. *Client[T] implements it.
type Backend[T any] interface {
	List(ctx context.Context, q ListQuery) (Page[T], error)
	Get(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, b Body) (T, error)
	Update(ctx context.Context, id string, b Body) (T, error)
	Delete(ctx context.Context, id string) error
}

type Op string

const (
	OpList   Op = "list"
	OpGet    Op = "get"
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

type Phase string

const (
	PhasePending   Phase = "pending"
	PhaseFulfilled Phase = "fulfilled"
	PhaseRejected  Phase = "rejected"
	PhaseDiscarded Phase = "discarded"
)

// Event is published on the bus for every store transition.
type Event struct {
	Resource string
	Op       Op
	Phase    Phase
	ID       string
	Error    string
}

// Topic is the bus topic of the stores named resource.
func Topic(resource string) string {
	return "store:" + resource
}

// State is what views render. Error is empty when the last settled
// operation did not fail.
type State[T any] struct {
	Items      []T        `json:"items"`
	Selected   *T         `json:"selected"`
	Loading    bool       `json:"loading"`
	Error      string     `json:"error"`
	Pagination Pagination `json:"pagination"`
}

type storeOptions struct {
	bus EventBus.Bus
}

type StoreOption func(*storeOptions)

// WithBus publishes transitions on bus.
func WithBus(bus EventBus.Bus) StoreOption {
	return func(o *storeOptions) { o.bus = bus }
}

type ticket struct {
	id     uint64
	op     Op
	key    string
	ctx    context.Context
	cancel context.CancelFunc
	gen    uint64
}

// Store mirrors one backend collection. Every operation goes through
// pending, then fulfilled or rejected; results of superseded or cancelled
// operations are discarded.
type Store[T Entity] struct {
	name    string
	backend Backend[T]
	bus     EventBus.Bus

	mu         sync.Mutex
	state      State[T]
	inflight   int
	seq        uint64
	listGen    uint64
	selGen     uint64
	listCancel context.CancelFunc
	cancels    map[uint64]context.CancelFunc
}

func NewStore[T Entity](name string, backend Backend[T], opts ...StoreOption) *Store[T] {
	var o storeOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[T]{
		name:    name,
		backend: backend,
		bus:     o.bus,
		state:   State[T]{Items: []T{}, Pagination: Pagination{TotalPages: 1, CurrentPage: 1}},
		cancels: map[uint64]context.CancelFunc{},
	}
}

func (s *Store[T]) Name() string { return s.name }

// Snapshot returns a copy of the current state.
func (s *Store[T]) Snapshot() State[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.state
	out.Items = make([]T, len(s.state.Items))
	copy(out.Items, s.state.Items)
	if s.state.Selected != nil {
		sel := *s.state.Selected
		out.Selected = &sel
	}
	return out
}

// Cancel aborts every operation in flight. Their results are discarded.
func (s *Store[T]) Cancel() {
	s.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(s.cancels))
	for _, c := range s.cancels {
		cancels = append(cancels, c)
	}
	s.mu.Unlock()
	for _, c := range cancels {
		c()
	}
}

func (s *Store[T]) List(ctx context.Context, q ListQuery) (Page[T], error) {
	t := s.begin(ctx, OpList, "")
	page, err := s.backend.List(t.ctx, q)
	err = s.settle(t, err, func(st *State[T]) {
		st.Items = append(make([]T, 0, len(page.Results)), page.Results...)
		st.Pagination = page.Pagination
	})
	return page, err
}

func (s *Store[T]) Get(ctx context.Context, id string) (T, error) {
	t := s.begin(ctx, OpGet, id)
	v, err := s.backend.Get(t.ctx, id)
	err = s.settle(t, err, func(st *State[T]) {
		st.Selected = &v
	})
	return v, err
}

func (s *Store[T]) Create(ctx context.Context, b Body) (T, error) {
	t := s.begin(ctx, OpCreate, "")
	v, err := s.backend.Create(t.ctx, b)
	err = s.settle(t, err, func(st *State[T]) {
		if k := v.Key(); k != "" {
			if i := indexOf(st.Items, k); i >= 0 {
				st.Items = replaceAt(st.Items, i, v)
				return
			}
		}
		st.Items = append(st.Items[:len(st.Items):len(st.Items)], v)
	})
	return v, err
}

func (s *Store[T]) Update(ctx context.Context, id string, b Body) (T, error) {
	t := s.begin(ctx, OpUpdate, id)
	v, err := s.backend.Update(t.ctx, id, b)
	err = s.settle(t, err, func(st *State[T]) {
		key := v.Key()
		if key == "" {
			key = id
		}
		if i := indexOf(st.Items, key); i >= 0 {
			st.Items = replaceAt(st.Items, i, v)
		}
		st.Selected = &v
	})
	return v, err
}

func (s *Store[T]) Delete(ctx context.Context, id string) error {
	t := s.begin(ctx, OpDelete, id)
	err := s.backend.Delete(t.ctx, id)
	return s.settle(t, err, func(st *State[T]) {
		kept := make([]T, 0, len(st.Items))
		for _, it := range st.Items {
			if it.Key() != id {
				kept = append(kept, it)
			}
		}
		st.Items = kept
		if st.Selected != nil && (*st.Selected).Key() == id {
			st.Selected = nil
		}
	})
}

// begin runs the pending transition.
func (s *Store[T]) begin(parent context.Context, op Op, key string) *ticket {
	ctx, cancel := context.WithCancel(parent)
	s.mu.Lock()
	s.seq++
	t := &ticket{id: s.seq, op: op, key: key, ctx: ctx, cancel: cancel}
	s.cancels[t.id] = cancel
	switch op {
	case OpList:
		if s.listCancel != nil {
			s.listCancel()
		}
		s.listGen++
		t.gen = s.listGen
		s.listCancel = cancel
	case OpGet, OpUpdate:
		s.selGen++
		t.gen = s.selGen
	}
	s.inflight++
	s.state.Loading = true
	s.state.Error = ""
	s.mu.Unlock()

	s.publish(Event{Resource: s.name, Op: op, Phase: PhasePending, ID: key})
	return t
}

// settle runs the fulfilled or rejected transition. apply is only called
// for fulfilled operations and, for selected-writing operations, only while
// the operation is still the latest of its kind.
func (s *Store[T]) settle(t *ticket, err error, apply func(st *State[T])) error {
	cancelled := t.ctx.Err() != nil && errors.Is(err, context.Canceled)
	t.cancel()

	s.mu.Lock()
	delete(s.cancels, t.id)
	s.inflight--

	phase := PhaseFulfilled
	switch {
	case t.op == OpList && t.gen != s.listGen, cancelled:
		phase = PhaseDiscarded
	case err != nil:
		phase = PhaseRejected
		s.state.Error = ErrorMessage(err)
	case t.op == OpGet && t.gen != s.selGen:
		phase = PhaseDiscarded
	case t.op == OpUpdate && t.gen != s.selGen:
		// the item list still reflects the write, selected belongs to a newer call
		sel := s.state.Selected
		apply(&s.state)
		s.state.Selected = sel
	default:
		apply(&s.state)
	}
	if t.op == OpList && t.gen == s.listGen {
		s.listCancel = nil
	}
	s.state.Loading = s.inflight > 0
	s.mu.Unlock()

	ev := Event{Resource: s.name, Op: t.op, Phase: phase, ID: t.key}
	if phase == PhaseRejected {
		ev.Error = ErrorMessage(err)
	}
	s.publish(ev)

	if phase == PhaseDiscarded {
		if err == nil {
			err = ErrSuperseded
		}
		return &discardedError{cause: err}
	}
	return err
}

// discardedError matches ErrSuperseded and unwraps to what the backend call
// returned, context.Canceled for cancelled calls.
type discardedError struct {
	cause error
}

func (e *discardedError) Error() string { return "discarded: " + e.cause.Error() }

func (e *discardedError) Unwrap() error { return e.cause }

func (e *discardedError) Is(target error) bool { return target == ErrSuperseded }

func (s *Store[T]) publish(ev Event) {
	if s.bus != nil {
		s.bus.Publish(Topic(s.name), ev)
	}
}

// replaceAt returns a copy of items with items[i] set to v. Items handed
// out by List are never written through.
func replaceAt[T any](items []T, i int, v T) []T {
	out := make([]T, len(items))
	copy(out, items)
	out[i] = v
	return out
}

func indexOf[T Entity](items []T, key string) int {
	for i, it := range items {
		if it.Key() == key {
			return i
		}
	}
	return -1
}
