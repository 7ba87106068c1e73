package stub

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/getmockd/carshop/pkg/car"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	s, err := New(opts...)
	require.NoError(t, err)
	return s
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const validBody = `{"brand":"Saab","model":"900","color":"Black","fuel":"Petrol","modelYear":1990,"price":4500}`

func TestList_HALShape(t *testing.T) {
	s := newServer(t, WithSeed(SampleCars()...))

	rec := do(t, s, http.MethodGet, "/cars", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/hal+json", rec.Header().Get("Content-Type"))

	cars, err := car.DecodeCollection(rec.Body.Bytes(), car.DecodeOptions{Strict: true})
	require.NoError(t, err)
	require.Len(t, cars, len(SampleCars()))
	assert.Equal(t, "1", cars[0].ID)
	assert.Equal(t, "Ford", cars[0].Brand)
	assert.Equal(t, car.Numeric("59000"), cars[0].Price)
}

func TestCreate_AssignsSequentialIDs(t *testing.T) {
	s := newServer(t)

	rec := do(t, s, http.MethodPost, "/cars", validBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "http://example.com/cars/1", rec.Header().Get("Location"))

	rec = do(t, s, http.MethodPost, "/cars", validBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	cars := s.Cars()
	require.Len(t, cars, 2)
	assert.Equal(t, "2", cars[1].ID)
	assert.Equal(t, car.Numeric("1990"), cars[1].ModelYear)
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{`},
		{"missing price", `{"brand":"a","model":"b","color":"c","fuel":"d","modelYear":2000}`},
		{"year as text", `{"brand":"a","model":"b","color":"c","fuel":"d","modelYear":"two thousand","price":1}`},
		{"fractional year", `{"brand":"a","model":"b","color":"c","fuel":"d","modelYear":2000.5,"price":1}`},
		{"empty brand", `{"brand":"","model":"b","color":"c","fuel":"d","modelYear":2000,"price":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newServer(t)
			rec := do(t, s, http.MethodPost, "/cars", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "bad_request", body["error"])
			assert.Empty(t, s.Cars())
		})
	}
}

func TestUpdateAndDelete(t *testing.T) {
	s := newServer(t, WithSeed(SampleCars()...))

	rec := do(t, s, http.MethodPut, "/cars/2", validBody)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Saab", s.Cars()[1].Brand)
	assert.Equal(t, "2", s.Cars()[1].ID)

	rec = do(t, s, http.MethodDelete, "/cars/2", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Len(t, s.Cars(), len(SampleCars())-1)

	rec = do(t, s, http.MethodDelete, "/cars/2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodPut, "/cars/99", validBody)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodGet, "/cars/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"href":"http://example.com/cars/1"`)
}

func TestFailNextAndRequestCount(t *testing.T) {
	s := newServer(t)
	s.FailNext(http.MethodPost, http.StatusServiceUnavailable)

	rec := do(t, s, http.MethodPost, "/cars", validBody)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Empty(t, s.Cars())

	rec = do(t, s, http.MethodPost, "/cars", validBody)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(2), s.Requests())
}

func TestRequestIDEcho(t *testing.T) {
	s := newServer(t)

	req := httptest.NewRequest(http.MethodGet, "/cars", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))

	rec = do(t, s, http.MethodGet, "/cars", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestListenAndServe(t *testing.T) {
	s := newServer(t, WithSeed(SampleCars()[0]))
	ctx, cancel := context.WithCancel(context.Background())

	addrCh := make(chan net.Addr, 1)
	done := make(chan error, 1)
	go func() {
		done <- s.ListenAndServe(ctx, "127.0.0.1:0", func(a net.Addr) { addrCh <- a })
	}()

	var addr net.Addr
	select {
	case addr = <-addrCh:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := http.Post("http://"+addr.String()+"/cars", "application/json", bytes.NewBufferString(validBody))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
