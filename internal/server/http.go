package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	_ "net/http/pprof" // Profiling
	"time"

	"github.com/sirupsen/logrus"

	"hla-gateway/internal/config"
	"hla-gateway/internal/engine"
	"hla-gateway/internal/infrastructure/catalog"
	"hla-gateway/internal/version"
	"hla-gateway/pkg/api"
	"hla-gateway/pkg/logger"
)

type Server struct {
	Session *engine.Session
	// Catalog - хранилище документов маппингов, может быть nil.
	Catalog catalog.Store
	Port    string

	log *logrus.Entry
}

func New(session *engine.Session, store catalog.Store, port string) *Server {
	return &Server{
		Session: session,
		Catalog: store,
		Port:    port,
		log:     logger.For("http"),
	}
}

// Handler собирает маршруты сервера.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/ws", enableCORS(s.handleWS))
	mux.HandleFunc("/health", enableCORS(s.handleHealth))
	mux.HandleFunc("/version", enableCORS(s.handleVersion))
	mux.HandleFunc("/schema", enableCORS(s.handleSchema))
	mux.HandleFunc("POST /command", enableCORS(s.handleCommand))

	if s.Catalog != nil {
		mux.HandleFunc("GET /mappings", enableCORS(s.handleListMappings))
		mux.HandleFunc("GET /mappings/{name}", enableCORS(s.handleGetMapping))
	}

	debugHandler := NewDebugHandler(s.Session)
	debugHandler.RegisterRoutes(mux)
	mux.Handle("/debug/pprof/", http.DefaultServeMux)

	return mux
}

// Run запускает HTTP сервер и останавливает его при отмене ctx.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.Port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.WithError(err).Warn("HTTP shutdown failed")
		}
	}()

	s.log.Infof("HLA gateway listening on :%s", s.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func enableCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		next(w, r)
	}
}

// handleWS подключает наблюдателя потока сообщений.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("Upgrade error")
		return
	}

	client := NewClient(s.Session, conn)

	go client.writePump()
	go client.readPump()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, version.Info())
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	data, err := config.MarshalSchema()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/schema+json")
	_, _ = w.Write(data)
}

// handleCommand выполняет одну команду наблюдателя без WebSocket.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var cmd api.ClientCommand
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageSize)).Decode(&cmd); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := s.Session.Execute(r.Context(), cmd)
	switch {
	case errors.Is(err, engine.ErrStopped):
		writeError(w, http.StatusServiceUnavailable, err)
	case err != nil:
		writeError(w, http.StatusUnprocessableEntity, err)
	default:
		writeJSON(w, resultFrame(res))
	}
}

func (s *Server) handleListMappings(w http.ResponseWriter, r *http.Request) {
	revs, err := s.Catalog.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, revs)
}

func (s *Server) handleGetMapping(w http.ResponseWriter, r *http.Request) {
	rev, err := s.Catalog.Latest(r.Context(), r.PathValue("name"))
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeJSON(w, rev)
	}
}
