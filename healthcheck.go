package main

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/netdash/authcore/internal/store"
	"github.com/netdash/authcore/params"
)

// startHealthCheckServer serves /livez and /readyz on a side listener.
// Readiness does a sentinel write/read against the storage backend.
func startHealthCheckServer(ctx context.Context, done chan struct{}, backend store.Backend) {
	mux := http.NewServeMux()

	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		key := params.HealthProbeKeyPrefix + uuid.NewString()
		if err := backend.Set(key, []byte("ok"), time.Minute); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if _, err := backend.Get(key); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		backend.Delete(key)
		w.WriteHeader(http.StatusOK)
	})

	server := &http.Server{
		Addr:    params.HealthCheckServerAddr,
		Handler: mux,
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		server.Close()
		close(done)
	case <-serverErr:
		close(done)
	}
}
