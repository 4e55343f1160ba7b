package metrics

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware_RecordsRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/title/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/title/{id}", "418"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/title/abc", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/title/{id}", "418"))
	assert.Equal(t, before+1, after)
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "unknown", normalizePath(""))
	assert.Equal(t, "/suggest", normalizePath("/suggest"))
}

func TestStatusWriter_FirstHeaderWins(t *testing.T) {
	rec := httptest.NewRecorder()
	w := &statusWriter{ResponseWriter: rec, status: http.StatusOK}

	w.WriteHeader(http.StatusNotFound)
	w.WriteHeader(http.StatusInternalServerError)
	assert.Equal(t, http.StatusNotFound, w.status)
}

func TestRegisterMetrics_Idempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		RegisterSuggestMetrics()
		RegisterSuggestMetrics()
		RegisterHTTPMetrics()
		RegisterHTTPMetrics()
	})
}

func TestRegisterMetrics_ConcurrentCallers(t *testing.T) {
	var wg sync.WaitGroup
	panics := make(chan interface{}, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					panics <- r
				}
			}()
			RegisterSuggestMetrics()
			RegisterHTTPMetrics()
		}()
	}
	wg.Wait()
	close(panics)

	for p := range panics {
		t.Errorf("register panicked: %v", p)
	}
	assert.NotPanics(t, func() {
		RegisterSuggestMetrics()
		RegisterHTTPMetrics()
	})
}
