package stub

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getmockd/carshop/pkg/car"
	"github.com/getmockd/carshop/pkg/httputil"
	"github.com/getmockd/carshop/pkg/logging"
	"github.com/google/uuid"
)

const maxBodySize = 1 << 20

// Server is an in-memory /cars collection. It implements http.Handler.
type Server struct {
	mu     sync.RWMutex
	cars   []car.Car
	nextID int
	faults map[string][]int

	requests atomic.Int64
	input    *openapi3.Schema
	logger   *slog.Logger
	mux      *http.ServeMux
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSeed preloads the collection.
func WithSeed(drafts ...car.Draft) Option {
	return func(s *Server) {
		for _, d := range drafts {
			s.insert(d)
		}
	}
}

// New creates a stub server.
func New(opts ...Option) (*Server, error) {
	schema, err := inputSchema()
	if err != nil {
		return nil, err
	}

	s := &Server{
		nextID: 1,
		faults: make(map[string][]int),
		input:  schema,
		logger: logging.Nop(),
		mux:    http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mux.HandleFunc("GET /cars", s.handleList)
	s.mux.HandleFunc("POST /cars", s.handleCreate)
	s.mux.HandleFunc("GET /cars/{id}", s.handleGet)
	s.mux.HandleFunc("PUT /cars/{id}", s.handleUpdate)
	s.mux.HandleFunc("DELETE /cars/{id}", s.handleDelete)
	return s, nil
}

// SampleCars returns a small fleet for seeding.
func SampleCars() []car.Draft {
	return []car.Draft{
		{Brand: "Ford", Model: "Mustang", Color: "Red", Fuel: "Gasoline", ModelYear: "1967", Price: "59000"},
		{Brand: "Nissan", Model: "Leaf", Color: "White", Fuel: "Electric", ModelYear: "2014", Price: "29000"},
		{Brand: "Toyota", Model: "Prius", Color: "Silver", Fuel: "Hybrid", ModelYear: "2015", Price: "39000"},
		{Brand: "Volvo", Model: "V60", Color: "Blue", Fuel: "Diesel", ModelYear: "2019", Price: "42000"},
	}
}

// Requests returns how many requests the server has received.
func (s *Server) Requests() int64 {
	return s.requests.Load()
}

// Cars returns a copy of the stored collection in insertion order.
func (s *Server) Cars() []car.Car {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]car.Car, len(s.cars))
	copy(out, s.cars)
	return out
}

// FailNext makes the next request with method answer with status.
// Calls queue up.
func (s *Server) FailNext(method string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[method] = append(s.faults[method], status)
}

func (s *Server) takeFault(method string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.faults[method]
	if len(q) == 0 {
		return 0, false
	}
	s.faults[method] = q[1:]
	return q[0], true
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.requests.Add(1)

	requestID := r.Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set("X-Request-ID", requestID)
	s.logger.Info("request", "method", r.Method, "path", r.URL.Path, "requestId", requestID)

	if status, ok := s.takeFault(r.Method); ok {
		httputil.WriteError(w, status, "injected", http.StatusText(status))
		return
	}
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	base := collectionURL(r)
	cars := s.Cars()

	items := make([]map[string]interface{}, 0, len(cars))
	for _, c := range cars {
		items = append(items, car.EncodeItem(c, base))
	}

	httputil.WriteHAL(w, http.StatusOK, map[string]interface{}{
		"_embedded": map[string]interface{}{
			car.DefaultRel: items,
		},
		"_links": map[string]interface{}{
			"self":    map[string]string{"href": base},
			"profile": map[string]string{"href": rootURL(r) + "/profile/cars"},
		},
	})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	c, err := s.find(r.PathValue("id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	httputil.WriteHAL(w, http.StatusOK, car.EncodeItem(c, collectionURL(r)))
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	draft, err := s.readDraft(r)
	if err != nil {
		writeErr(w, err)
		return
	}

	s.mu.Lock()
	c := s.insert(draft)
	s.mu.Unlock()

	base := collectionURL(r)
	w.Header().Set("Location", base+"/"+c.ID)
	httputil.WriteHAL(w, http.StatusCreated, car.EncodeItem(c, base))
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	draft, err := s.readDraft(r)
	if err != nil {
		writeErr(w, err)
		return
	}

	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		writeErr(w, &NotFoundError{ID: id})
		return
	}
	s.cars[i].Draft = draft
	c := s.cars[i]
	s.mu.Unlock()

	httputil.WriteHAL(w, http.StatusOK, car.EncodeItem(c, collectionURL(r)))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		writeErr(w, &NotFoundError{ID: id})
		return
	}
	s.cars = append(s.cars[:i], s.cars[i+1:]...)
	s.mu.Unlock()

	httputil.WriteNoContent(w)
}

// insert appends draft under a fresh id. Callers hold s.mu, except during
// construction.
func (s *Server) insert(d car.Draft) car.Car {
	c := car.Car{ID: strconv.Itoa(s.nextID), Draft: d}
	s.nextID++
	s.cars = append(s.cars, c)
	return c
}

func (s *Server) indexOf(id string) int {
	for i, c := range s.cars {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (s *Server) find(id string) (car.Car, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.cars[i], nil
	}
	return car.Car{}, &NotFoundError{ID: id}
}

func (s *Server) readDraft(r *http.Request) (car.Draft, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return car.Draft{}, &ValidationError{Message: "cannot read body"}
	}
	if err := validateInput(s.input, body); err != nil {
		return car.Draft{}, err
	}
	var d car.Draft
	if err := json.Unmarshal(body, &d); err != nil {
		return car.Draft{}, &ValidationError{Message: err.Error()}
	}
	return d, nil
}

func writeErr(w http.ResponseWriter, err error) {
	var nf *NotFoundError
	var ve *ValidationError
	switch {
	case errors.As(err, &nf):
		httputil.WriteNotFound(w, nf.Error())
	case errors.As(err, &ve):
		httputil.WriteBadRequest(w, ve.Error())
	default:
		httputil.WriteError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}

func rootURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func collectionURL(r *http.Request) string {
	return rootURL(r) + "/cars"
}

// ListenAndServe serves s on addr until ctx is cancelled. ready, when not
// nil, receives the bound address once the listener is open.
func (s *Server) ListenAndServe(ctx context.Context, addr string, ready func(net.Addr)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if ready != nil {
		ready(ln.Addr())
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
