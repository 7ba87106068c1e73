package collection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/getmockd/carshop/pkg/car"
	"github.com/getmockd/carshop/pkg/carclient"
	"github.com/getmockd/carshop/pkg/logging"
)

// User-facing messages published with each Notice.
const (
	MsgFetchFailed  = "Failed to fetch cars. Please try again."
	MsgAdded        = "Car added successfully!"
	MsgAddFailed    = "Failed to add car. Please try again."
	MsgUpdated      = "Car updated successfully!"
	MsgUpdateFailed = "Failed to update car. Please try again."
	MsgDeleted      = "Car deleted successfully!"
	MsgDeleteFailed = "Failed to delete car. Please try again."
)

// Backend is the remote collection. *carclient.Client satisfies it.
type Backend interface {
	List(ctx context.Context) ([]car.Car, error)
	Create(ctx context.Context, draft car.Draft) error
	Update(ctx context.Context, id string, draft car.Draft) error
	Delete(ctx context.Context, id string) error
}

var _ Backend = (*carclient.Client)(nil)

// Snapshot is an immutable copy of the remote collection as of one reload.
type Snapshot struct {
	Cars []car.Car
	// Generation counts installed snapshots, starting at 1 after the first
	// successful reload. The empty initial snapshot has generation 0.
	Generation uint64
	FetchedAt  time.Time
}

// Find returns the car with the given id.
func (s *Snapshot) Find(id string) (car.Car, bool) {
	for _, c := range s.Cars {
		if c.ID == id {
			return c, true
		}
	}
	return car.Car{}, false
}

// ErrNoConfirmer is returned by Remove when called with a nil Confirmer.
var ErrNoConfirmer = errors.New("collection: delete requires a confirmer")

// ReloadError is returned by a write whose follow-up reload failed. The
// write itself was accepted by the server.
type ReloadError struct {
	Err error
}

func (e *ReloadError) Error() string {
	return "write succeeded but reload failed: " + e.Err.Error()
}

func (e *ReloadError) Unwrap() error { return e.Err }

// IsCommitted reports whether err is nil or a *ReloadError, i.e. whether the
// write it came from reached the server.
func IsCommitted(err error) bool {
	if err == nil {
		return true
	}
	var re *ReloadError
	return errors.As(err, &re)
}

// Store holds the local snapshot and funnels every write through a reload.
type Store struct {
	backend  Backend
	snap     atomic.Pointer[Snapshot]
	logger   *slog.Logger
	notifier Notifier
	now      func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithNotifier sets where notices are published.
func WithNotifier(n Notifier) Option {
	return func(s *Store) {
		if n != nil {
			s.notifier = n
		}
	}
}

// New creates a Store with an empty snapshot.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend:  backend,
		logger:   logging.Nop(),
		notifier: discard{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.snap.Store(&Snapshot{Cars: []car.Car{}})
	return s
}

// Snapshot returns the current snapshot. Callers must not modify it.
func (s *Store) Snapshot() *Snapshot {
	return s.snap.Load()
}

// Find looks id up in the current snapshot.
func (s *Store) Find(id string) (car.Car, bool) {
	return s.Snapshot().Find(id)
}

// Reload fetches the collection and replaces the snapshot. On failure the
// snapshot is left as it was.
func (s *Store) Reload(ctx context.Context) error {
	if err := s.reload(ctx); err != nil {
		s.publish(Notice{Kind: KindError, Message: MsgFetchFailed, Err: err})
		return err
	}
	return nil
}

func (s *Store) reload(ctx context.Context) error {
	cars, err := s.backend.List(ctx)
	if err != nil {
		s.logger.Error("reload failed", "kind", carclient.Kind(err), "error", err)
		return fmt.Errorf("reload: %w", err)
	}
	next := &Snapshot{Cars: cars, FetchedAt: s.now()}
	// Each installed snapshot is one generation above the one it replaces.
	for {
		cur := s.snap.Load()
		next.Generation = cur.Generation + 1
		if s.snap.CompareAndSwap(cur, next) {
			break
		}
	}
	s.logger.Debug("snapshot replaced", "generation", next.Generation, "count", len(cars))
	return nil
}

// Create posts draft and reloads.
func (s *Store) Create(ctx context.Context, draft car.Draft) error {
	if err := s.backend.Create(ctx, draft); err != nil {
		s.logger.Error("create failed", "kind", carclient.Kind(err), "error", err)
		s.publish(Notice{Kind: KindError, Message: MsgAddFailed, Err: err})
		return fmt.Errorf("create: %w", err)
	}
	s.logger.Info("car created", "brand", draft.Brand, "model", draft.Model)
	s.publish(Notice{Kind: KindSuccess, Message: MsgAdded})
	return s.afterWrite(ctx)
}

// Update replaces car id with draft and reloads.
func (s *Store) Update(ctx context.Context, id string, draft car.Draft) error {
	if err := s.backend.Update(ctx, id, draft); err != nil {
		s.logger.Error("update failed", "id", id, "kind", carclient.Kind(err), "error", err)
		s.publish(Notice{Kind: KindError, Message: MsgUpdateFailed, Err: err})
		return fmt.Errorf("update %s: %w", id, err)
	}
	s.logger.Info("car updated", "id", id)
	s.publish(Notice{Kind: KindSuccess, Message: MsgUpdated})
	return s.afterWrite(ctx)
}

// Remove deletes car id once confirm agrees. A declined confirmation returns
// nil without touching the network or the snapshot.
func (s *Store) Remove(ctx context.Context, id string, confirm Confirmer) error {
	if confirm == nil {
		return ErrNoConfirmer
	}
	ok, err := confirm.Confirm(ctx, id)
	if err != nil {
		return fmt.Errorf("confirm delete %s: %w", id, err)
	}
	if !ok {
		s.logger.Debug("delete declined", "id", id)
		return nil
	}

	if err := s.backend.Delete(ctx, id); err != nil {
		s.logger.Error("delete failed", "id", id, "kind", carclient.Kind(err), "error", err)
		s.publish(Notice{Kind: KindError, Message: MsgDeleteFailed, Err: err})
		return fmt.Errorf("delete %s: %w", id, err)
	}
	s.logger.Info("car deleted", "id", id)
	s.publish(Notice{Kind: KindSuccess, Message: MsgDeleted})
	return s.afterWrite(ctx)
}

func (s *Store) afterWrite(ctx context.Context) error {
	if err := s.reload(ctx); err != nil {
		s.publish(Notice{Kind: KindError, Message: MsgFetchFailed, Err: err})
		return &ReloadError{Err: err}
	}
	return nil
}

func (s *Store) publish(n Notice) {
	s.notifier.Notify(n)
}
