package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"hla-gateway/internal/engine"
)

// DebugHandler отдаёт снимки состояния сессии.
type DebugHandler struct {
	Session *engine.Session
}

func NewDebugHandler(s *engine.Session) *DebugHandler {
	return &DebugHandler{Session: s}
}

// RegisterRoutes регистрирует debug-эндпоинты
func (h *DebugHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/debug/session", h.snapshot(func(s *engine.Session) any { return s.BuildSessionView() }))
	mux.HandleFunc("/debug/actors", h.snapshot(func(s *engine.Session) any { return s.BuildActorViews() }))
	mux.HandleFunc("/debug/objects", h.snapshot(func(s *engine.Session) any { return s.BuildObjectViews() }))
	mux.HandleFunc("/debug/mappings", h.snapshot(func(s *engine.Session) any { return s.BuildMappingViews() }))
	mux.HandleFunc("/debug/regions", h.snapshot(func(s *engine.Session) any { return s.BuildRegionViews() }))
	mux.HandleFunc("/debug/logs", h.snapshot(func(s *engine.Session) any { return s.BuildLogs() }))
}

// snapshot строит ответ на горутине цикла сессии.
func (h *DebugHandler) snapshot(build func(s *engine.Session) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var data any
		err := h.Session.Query(r.Context(), func(s *engine.Session) { data = build(s) })
		if errors.Is(err, engine.ErrStopped) {
			writeError(w, http.StatusServiceUnavailable, err)
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, data)
	}
}

func writeJSON(w http.ResponseWriter, data any) {
	// Нужно для локального отладочного клиента
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	w.Header().Set("Content-Type", "application/json")

	// Пустой срез отдаём как [], а не null
	if data == nil {
		_, _ = w.Write([]byte("[]"))
		return
	}

	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
