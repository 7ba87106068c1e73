package form

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/getmockd/carshop/pkg/car"
	"github.com/getmockd/carshop/pkg/collection"
	"github.com/getmockd/carshop/pkg/logging"
)

// State is the dialog state of a Controller.
type State int

const (
	Closed State = iota
	AddOpen
	EditOpen
)

func (s State) String() string {
	switch s {
	case AddOpen:
		return "add"
	case EditOpen:
		return "edit"
	default:
		return "closed"
	}
}

var (
	// ErrSubmitPending is returned by every transition while a submit is
	// outstanding.
	ErrSubmitPending = errors.New("submit in progress")
	// ErrClosed is returned by FieldChange and Submit when no dialog is open.
	ErrClosed = errors.New("no dialog is open")
)

// Writer is the part of the store the controller submits to.
// *collection.Store satisfies it.
type Writer interface {
	Create(ctx context.Context, draft car.Draft) error
	Update(ctx context.Context, id string, draft car.Draft) error
}

var _ Writer = (*collection.Store)(nil)

// Controller is the add/edit dialog state machine. It is safe for use from
// several goroutines; store calls run outside the lock.
type Controller struct {
	mu      sync.Mutex
	state   State
	buf     Buffer
	target  string
	pending bool

	store  Writer
	logger *slog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewController creates a closed controller that submits to store.
func NewController(store Writer, opts ...Option) *Controller {
	c := &Controller{store: store, logger: logging.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current dialog state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Buffer returns a copy of the buffered draft.
func (c *Controller) Buffer() car.Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Draft()
}

// EditTargetID returns the id being edited, or "" outside EditOpen.
func (c *Controller) EditTargetID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

// Pending reports whether a submit is outstanding.
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// OpenAdd opens the add dialog with an empty buffer. An open dialog is
// closed first.
func (c *Controller) OpenAdd() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending {
		return ErrSubmitPending
	}
	c.closeLocked()
	c.state = AddOpen
	c.logger.Debug("dialog opened", "state", c.state)
	return nil
}

// OpenEdit opens the edit dialog for record, copying its fields into the
// buffer. An open dialog is closed first.
func (c *Controller) OpenEdit(record car.Car) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending {
		return ErrSubmitPending
	}
	c.closeLocked()
	c.state = EditOpen
	c.target = record.ID
	c.buf.Load(record.Draft)
	c.logger.Debug("dialog opened", "state", c.state, "id", record.ID)
	return nil
}

// FieldChange sets field name of the buffer to value.
func (c *Controller) FieldChange(name, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending {
		return ErrSubmitPending
	}
	if c.state == Closed {
		return ErrClosed
	}
	return c.buf.Set(name, value)
}

// Cancel closes the dialog without any network call.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending {
		return ErrSubmitPending
	}
	c.closeLocked()
	return nil
}

// Submit sends the buffer to the store: Create from AddOpen, Update from
// EditOpen. On success, including a *collection.ReloadError, the dialog
// closes and the buffer is reset; any other failure leaves state and buffer
// unchanged. Blank fields fail with *RequiredError before any call.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.pending {
		c.mu.Unlock()
		return ErrSubmitPending
	}
	if c.state == Closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if err := c.buf.Check(); err != nil {
		c.mu.Unlock()
		return err
	}
	state, target, draft := c.state, c.target, c.buf.Draft()
	c.pending = true
	c.mu.Unlock()

	var err error
	if state == AddOpen {
		err = c.store.Create(ctx, draft)
	} else {
		err = c.store.Update(ctx, target, draft)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = false
	if !collection.IsCommitted(err) {
		c.logger.Debug("submit failed", "state", state, "error", err)
		return err
	}
	c.closeLocked()
	return err
}

func (c *Controller) closeLocked() {
	c.state = Closed
	c.target = ""
	c.buf.Reset()
}
