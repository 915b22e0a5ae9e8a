// Package server exposes the agent's local debug surface: health, metrics
// and a read-only JSON view of the synchronized store.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trailwatch-io/trailwatch/internal/engine"
	"github.com/trailwatch-io/trailwatch/internal/engine/model"
	"github.com/trailwatch-io/trailwatch/internal/engine/state"
	"github.com/trailwatch-io/trailwatch/pkg/log"
	"github.com/trailwatch-io/trailwatch/pkg/options"
)

// Server is the local HTTP endpoint. It binds to loopback by default and
// carries no authentication; it is not meant to be exposed.
type Server struct {
	opts   *options.HttpOptions
	eng    *engine.Engine
	logger log.Logger
	http   *http.Server
}

func New(opts *options.HttpOptions, eng *engine.Engine, logger log.Logger) *Server {
	s := &Server{opts: opts, eng: eng, logger: logger.WithName("server")}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/debug/trailers", s.handleTrailers).Methods(http.MethodGet)
	r.HandleFunc("/debug/trailers/{id}/events", s.handleEvents).Methods(http.MethodGet)

	s.http = &http.Server{
		Handler:      r,
		ReadTimeout:  opts.Timeout,
		WriteTimeout: opts.Timeout,
	}
	return s
}

// Run serves until the context ends, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen(s.opts.Network, s.opts.Addr)
	if err != nil {
		return err
	}
	s.logger.Info("debug server listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type trailerView struct {
	ID       model.TrailerID     `json:"id"`
	Plate    string              `json:"plate"`
	Name     string              `json:"name"`
	Status   model.TrailerStatus `json:"status"`
	Category model.Category      `json:"category"`
	Priority int                 `json:"priority"`
	Network  bool                `json:"network_available"`
}

func (s *Server) handleTrailers(w http.ResponseWriter, _ *http.Request) {
	trailers := s.eng.Store().SortedTrailers()
	views := make([]trailerView, 0, len(trailers))
	for _, t := range trailers {
		views = append(views, trailerView{
			ID:       t.ID,
			Plate:    t.PlateNumber,
			Name:     t.Name,
			Status:   t.Status,
			Category: state.Categorize(t.Status),
			Priority: state.Priority(t.Status),
			Network:  t.NetworkAvailable,
		})
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	id := model.TrailerID(mux.Vars(r)["id"])
	events := s.eng.Store().EventsForTrailer(id)
	writeJSON(w, http.StatusOK, events)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
