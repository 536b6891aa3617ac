package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type observation struct {
	method, route string
	status        int
}

type recordingObserver struct {
	mu  sync.Mutex
	obs []observation
}

func (o *recordingObserver) ObserveHTTP(method, route string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.obs = append(o.obs, observation{method, route, status})
}

func TestMetrics(t *testing.T) {
	observer := &recordingObserver{}
	mux := chi.NewRouter()
	mux.Use(Metrics(observer))
	mux.Post("/roots/{id}/aliases", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/roots/9/aliases", nil))
	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/nope", nil))

	require.Len(t, observer.obs, 2)
	assert.Equal(t, observation{"POST", "/roots/{id}/aliases", http.StatusConflict}, observer.obs[0])
	assert.Equal(t, observation{"GET", "unmatched", http.StatusNotFound}, observer.obs[1])
}
