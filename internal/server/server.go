// Package server exposes the usage log, summary and forecast over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/jgoulah/powerpal/internal/pipeline"
	"github.com/jgoulah/powerpal/internal/store"
	"github.com/jgoulah/powerpal/pkg/models"
)

// Server is the HTTP entry point for interactive use
type Server struct {
	runner   *pipeline.Runner
	appender store.Appender
	gatherer prometheus.Gatherer
	log      zerolog.Logger
	now      func() time.Time
}

// New creates a server over runner, writing manual entries through appender
func New(runner *pipeline.Runner, appender store.Appender, gatherer prometheus.Gatherer, log zerolog.Logger) *Server {
	return &Server{runner: runner, appender: appender, gatherer: gatherer, log: log, now: time.Now}
}

// Handler builds the router
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/records", s.listRecords).Methods(http.MethodGet)
	api.HandleFunc("/records", s.addRecord).Methods(http.MethodPost)
	api.HandleFunc("/collect", s.collect).Methods(http.MethodPost)
	api.HandleFunc("/summary", s.summary).Methods(http.MethodGet)
	api.HandleFunc("/forecast", s.forecast).Methods(http.MethodGet)
	api.HandleFunc("/train", s.train).Methods(http.MethodPost)
	api.HandleFunc("/report", s.report).Methods(http.MethodGet)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	return handlers.RecoveryHandler()(handlers.CombinedLoggingHandler(s.log, r))
}

// ListenAndServe serves until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type recordRequest struct {
	Date       string  `json:"date,omitempty"` // YYYY-MM-DD, defaults to today
	UnitsStart float64 `json:"units_start"`
	UnitsEnd   float64 `json:"units_end"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.runner.Records()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) addRecord(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return
	}

	date := s.now()
	if req.Date != "" {
		parsed, err := models.ParseDate(req.Date)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Field: "date"})
			return
		}
		date = parsed
	}

	record := models.NewRecord(date, req.UnitsStart, req.UnitsEnd)
	if err := s.appender.Append(record); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (s *Server) collect(w http.ResponseWriter, r *http.Request) {
	record, err := s.runner.Collect(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.runner.Summarize()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary.Rounded())
}

// forecast predicts with the saved model, refitting only when the log has changed since
func (s *Server) forecast(w http.ResponseWriter, r *http.Request) {
	if _, _, err := s.runner.Refresh(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	prediction, err := s.runner.Predict(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"forecast": models.Round(prediction, 2)})
}

func (s *Server) train(w http.ResponseWriter, r *http.Request) {
	model, err := s.runner.Train(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, model)
}

func (s *Server) report(w http.ResponseWriter, r *http.Request) {
	report, err := s.runner.Report(r.Context(), false)
	if err != nil {
		s.writeError(w, err)
		return
	}
	report.Summary = report.Summary.Rounded()
	report.Forecast = models.Round(report.Forecast, 2)
	writeJSON(w, http.StatusOK, report)
}

// writeError maps error kinds to status codes
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Error(), Field: verr.Field})
	case errors.Is(err, models.ErrInsufficientData), errors.Is(err, models.ErrModelNotTrained):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		s.log.Error().Err(err).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
