// Package server exposes the trip snapshot and the annotation overlay
// over HTTP for the browser-side logbook editor.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vesselware/voyagelog/internal/app"
	"github.com/vesselware/voyagelog/internal/overlay"
)

// Server serves the logbook editor API
type Server struct {
	ListenAddr      string
	SnapshotPath    string
	AnnotationsPath string

	httpServer *http.Server
	logger     *zap.SugaredLogger

	// Serializes annotation writes from concurrent editors
	annotationsMu sync.Mutex
}

// New creates a new editor API server
func New(listenAddr, snapshotPath, annotationsPath string, logger *zap.SugaredLogger) *Server {
	return &Server{
		ListenAddr:      listenAddr,
		SnapshotPath:    snapshotPath,
		AnnotationsPath: annotationsPath,
		logger:          logger,
	}
}

// Router builds the HTTP routes
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/api/trips", s.handleTrips).Methods(http.MethodGet)
	router.HandleFunc("/api/annotations", s.handleGetAnnotations).Methods(http.MethodGet)
	router.HandleFunc("/api/annotations", s.handlePutAnnotations).Methods(http.MethodPut)
	router.Use(s.requestLogger)
	return router
}

// Start runs the server until the context is cancelled
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.ListenAddr,
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Infow("editor API listening", "addr", s.ListenAddr)
		errChan <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debugw("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleTrips(w http.ResponseWriter, _ *http.Request) {
	tripList, err := app.ReadSnapshot(s.SnapshotPath)
	if err != nil {
		s.logger.Errorw("error reading snapshot", "error", err)
		http.Error(w, "snapshot unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tripList)
}

func (s *Server) handleGetAnnotations(w http.ResponseWriter, _ *http.Request) {
	annotations, err := overlay.LoadAnnotations(s.AnnotationsPath)
	if err != nil {
		s.logger.Errorw("error loading annotations", "error", err)
		http.Error(w, "annotations unavailable", http.StatusInternalServerError)
		return
	}
	if annotations == nil {
		annotations = []overlay.Annotation{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(annotations)
}

func (s *Server) handlePutAnnotations(w http.ResponseWriter, r *http.Request) {
	var annotations []overlay.Annotation
	if err := json.NewDecoder(r.Body).Decode(&annotations); err != nil {
		http.Error(w, "malformed annotations payload", http.StatusBadRequest)
		return
	}

	s.annotationsMu.Lock()
	defer s.annotationsMu.Unlock()

	if err := overlay.SaveAnnotations(s.AnnotationsPath, annotations); err != nil {
		s.logger.Errorw("error saving annotations", "error", err)
		http.Error(w, "could not save annotations", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
