package form

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/getmockd/carshop/pkg/car"
	"github.com/getmockd/carshop/pkg/carclient"
	"github.com/getmockd/carshop/pkg/collection"
	"github.com/getmockd/carshop/pkg/stub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	op    string
	id    string
	draft car.Draft
}

type fakeWriter struct {
	mu    sync.Mutex
	calls []call
	err   error
	gate  chan struct{}
}

func (f *fakeWriter) record(c call) error {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	return f.err
}

func (f *fakeWriter) Create(_ context.Context, d car.Draft) error {
	return f.record(call{op: "create", draft: d})
}

func (f *fakeWriter) Update(_ context.Context, id string, d car.Draft) error {
	return f.record(call{op: "update", id: id, draft: d})
}

func (f *fakeWriter) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

var sample = car.Car{
	ID: "1",
	Draft: car.Draft{
		Brand: "Toyota", Model: "Corolla", Color: "Red", Fuel: "Petrol",
		ModelYear: "2010", Price: "20000",
	},
}

func fill(t *testing.T, c *Controller, d car.Draft) {
	t.Helper()
	for _, f := range car.Fields {
		v, _ := d.Get(f.Name)
		require.NoError(t, c.FieldChange(f.Name, v))
	}
}

func TestController_OpenAdd(t *testing.T) {
	c := NewController(&fakeWriter{})
	assert.Equal(t, Closed, c.State())

	require.NoError(t, c.OpenAdd())
	assert.Equal(t, AddOpen, c.State())
	assert.Equal(t, car.Draft{}, c.Buffer())
	assert.Empty(t, c.EditTargetID())
}

func TestController_OpenEdit(t *testing.T) {
	c := NewController(&fakeWriter{})
	require.NoError(t, c.OpenEdit(sample))

	assert.Equal(t, EditOpen, c.State())
	assert.Equal(t, "1", c.EditTargetID())
	assert.Equal(t, sample.Draft, c.Buffer())
}

func TestController_OpenWhileOpenResets(t *testing.T) {
	c := NewController(&fakeWriter{})
	require.NoError(t, c.OpenEdit(sample))
	require.NoError(t, c.OpenAdd())

	assert.Equal(t, AddOpen, c.State())
	assert.Empty(t, c.EditTargetID())
	assert.Equal(t, car.Draft{}, c.Buffer())
}

func TestController_FieldChange(t *testing.T) {
	c := NewController(&fakeWriter{})
	assert.ErrorIs(t, c.FieldChange("brand", "x"), ErrClosed)

	require.NoError(t, c.OpenAdd())
	require.NoError(t, c.FieldChange("brand", "Saab"))
	require.NoError(t, c.FieldChange("price", "12.5e3"))
	assert.Equal(t, "Saab", c.Buffer().Brand)
	assert.Equal(t, car.Numeric("12.5e3"), c.Buffer().Price)

	err := c.FieldChange("year", "1990")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestController_CancelResetsBuffer(t *testing.T) {
	w := &fakeWriter{}
	c := NewController(w)
	require.NoError(t, c.OpenEdit(sample))
	require.NoError(t, c.FieldChange("color", "Blue"))

	require.NoError(t, c.Cancel())
	assert.Equal(t, Closed, c.State())

	require.NoError(t, c.OpenAdd())
	assert.Equal(t, car.Draft{}, c.Buffer())
	assert.Empty(t, w.Calls())
}

func TestController_SubmitAdd(t *testing.T) {
	w := &fakeWriter{}
	c := NewController(w)
	require.NoError(t, c.OpenAdd())
	fill(t, c, sample.Draft)

	require.NoError(t, c.Submit(context.Background()))
	assert.Equal(t, Closed, c.State())
	assert.Equal(t, car.Draft{}, c.Buffer())
	assert.Equal(t, []call{{op: "create", draft: sample.Draft}}, w.Calls())
}

func TestController_SubmitEdit(t *testing.T) {
	w := &fakeWriter{}
	c := NewController(w)
	require.NoError(t, c.OpenEdit(sample))
	require.NoError(t, c.FieldChange("price", "25000"))

	require.NoError(t, c.Submit(context.Background()))

	want := sample.Draft
	want.Price = "25000"
	assert.Equal(t, []call{{op: "update", id: "1", draft: want}}, w.Calls())
	assert.Equal(t, Closed, c.State())
}

func TestController_SubmitFailureKeepsBuffer(t *testing.T) {
	for _, open := range []string{"add", "edit"} {
		t.Run(open, func(t *testing.T) {
			w := &fakeWriter{err: &carclient.ServerError{StatusCode: 500}}
			c := NewController(w)
			if open == "add" {
				require.NoError(t, c.OpenAdd())
				fill(t, c, sample.Draft)
			} else {
				require.NoError(t, c.OpenEdit(sample))
			}
			before := c.Buffer()
			state := c.State()

			err := c.Submit(context.Background())
			var se *carclient.ServerError
			require.ErrorAs(t, err, &se)

			assert.Equal(t, state, c.State())
			assert.Equal(t, before, c.Buffer())
			assert.False(t, c.Pending())
		})
	}
}

func TestController_SubmitReloadErrorCloses(t *testing.T) {
	w := &fakeWriter{err: &collection.ReloadError{Err: errors.New("fetch failed")}}
	c := NewController(w)
	require.NoError(t, c.OpenEdit(sample))

	err := c.Submit(context.Background())
	var re *collection.ReloadError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, Closed, c.State())
	assert.Equal(t, car.Draft{}, c.Buffer())
}

func TestController_RequiredBlocksSubmit(t *testing.T) {
	w := &fakeWriter{}
	c := NewController(w)
	require.NoError(t, c.OpenAdd())
	require.NoError(t, c.FieldChange("brand", "Saab"))
	require.NoError(t, c.FieldChange("model", "  "))

	err := c.Submit(context.Background())
	var re *RequiredError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, []string{"model", "color", "fuel", "modelYear", "price"}, re.Fields)
	assert.Equal(t, AddOpen, c.State())
	assert.Empty(t, w.Calls())
}

func TestController_SubmitClosed(t *testing.T) {
	c := NewController(&fakeWriter{})
	assert.ErrorIs(t, c.Submit(context.Background()), ErrClosed)
}

func TestController_DoubleSubmit(t *testing.T) {
	w := &fakeWriter{gate: make(chan struct{})}
	c := NewController(w)
	require.NoError(t, c.OpenEdit(sample))

	done := make(chan error, 1)
	go func() { done <- c.Submit(context.Background()) }()

	require.Eventually(t, c.Pending, time.Second, time.Millisecond)

	assert.ErrorIs(t, c.Submit(context.Background()), ErrSubmitPending)
	assert.ErrorIs(t, c.FieldChange("price", "1"), ErrSubmitPending)
	assert.ErrorIs(t, c.Cancel(), ErrSubmitPending)
	assert.ErrorIs(t, c.OpenAdd(), ErrSubmitPending)
	assert.ErrorIs(t, c.OpenEdit(sample), ErrSubmitPending)

	close(w.gate)
	require.NoError(t, <-done)
	assert.False(t, c.Pending())
	assert.Len(t, w.Calls(), 1)
}

func TestController_EndToEnd(t *testing.T) {
	srv, err := stub.New(stub.WithSeed(sample.Draft))
	require.NoError(t, err)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	ctx := context.Background()
	store := collection.New(carclient.New(ts.URL))
	require.NoError(t, store.Reload(ctx))

	record, ok := store.Find("1")
	require.True(t, ok)
	assert.Equal(t, "Toyota", record.Brand)

	c := NewController(store)
	require.NoError(t, c.OpenEdit(record))
	require.NoError(t, c.FieldChange("price", "25000"))
	require.NoError(t, c.Submit(ctx))

	assert.Equal(t, Closed, c.State())
	updated, ok := store.Find("1")
	require.True(t, ok)
	assert.Equal(t, car.Numeric("25000"), updated.Price)
	assert.Equal(t, uint64(2), store.Snapshot().Generation)
}

func TestController_EndToEndFailure(t *testing.T) {
	srv, err := stub.New()
	require.NoError(t, err)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	store := collection.New(carclient.New(ts.URL))
	c := NewController(store)
	require.NoError(t, c.OpenAdd())
	fill(t, c, sample.Draft)

	srv.FailNext(http.MethodPost, http.StatusInternalServerError)
	require.Error(t, c.Submit(context.Background()))
	assert.Equal(t, AddOpen, c.State())
	assert.Equal(t, sample.Draft, c.Buffer())
	assert.Empty(t, srv.Cars())
}
