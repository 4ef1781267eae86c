package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Chative-core-poc-v1/intent-router/internal/agent/graph"
	"github.com/Chative-core-poc-v1/intent-router/internal/agent/model"
	errx "github.com/Chative-core-poc-v1/intent-router/internal/core/error"
	logx "github.com/Chative-core-poc-v1/intent-router/pkg/logger"
)

// maxBodyBytes bounds the request body of the assistant endpoint.
const maxBodyBytes = 1 << 20

// NewRouter exposes the workflow over HTTP.
//
//	POST /agent-assistant/  {"messages":[{"source":"user","content":"..."}]}
//	GET  /health
//	GET  /metrics
func NewRouter(runner graph.Runner, gatherer prometheus.Gatherer) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/agent-assistant/", handleAssistant(runner)).Methods(http.MethodPost)
	router.HandleFunc("/agent-assistant", handleAssistant(runner)).Methods(http.MethodPost)
	router.HandleFunc("/health", handleHealth).Methods(http.MethodGet)
	if gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	return router
}

func handleAssistant(runner graph.Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req model.ChatRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err := dec.Decode(&req); err != nil {
			writeError(w, errx.New(err, http.StatusBadRequest, "invalid request body"))
			return
		}
		if len(req.Messages) == 0 {
			writeError(w, errx.New(nil, http.StatusBadRequest, "messages are required"))
			return
		}

		resp := runner.Handle(r.Context(), req)
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var e *errx.Error
	if errors.As(err, &e) && e.Status != 0 {
		status = e.Status
	}
	logx.Warn().Err(err).Int("status", status).Msg("Rejected request")
	writeJSON(w, status, map[string]string{"error": errx.MessageOf(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Error().Err(err).Msg("Failed to write response")
	}
}

// Serve runs an HTTP server until ctx is done, then shuts it down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logx.Info().Str("addr", addr).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logx.Info().Msg("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
