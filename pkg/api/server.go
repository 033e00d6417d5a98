// Package api exposes stored backtest runs over REST and streams run
// events over WebSocket.
package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/priyam-gsc/gscbt/pkg/app"
)

// Server handles REST API and WebSocket connections
type Server struct {
	app            *app.App
	router         *mux.Router
	hub            *Hub
	allowedOrigins []string
}

// NewServer creates a new API server over an app instance
func NewServer(a *app.App, allowedOrigins []string) *Server {
	s := &Server{
		app:            a,
		router:         mux.NewRouter(),
		hub:            NewHub(),
		allowedOrigins: allowedOrigins,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Run endpoints
	api.HandleFunc("/runs", s.handleListRuns).Methods("GET")
	api.HandleFunc("/runs", s.handleSubmitRun).Methods("POST")
	api.HandleFunc("/runs/{id}", s.handleGetRun).Methods("GET")
	api.HandleFunc("/runs/{id}", s.handleDeleteRun).Methods("DELETE")
	api.HandleFunc("/runs/{id}/table", s.handleGetTable).Methods("GET")

	// WebSocket endpoint
	s.router.HandleFunc("/ws", s.handleWebSocket)

	// Health check
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler returns the full HTTP handler including CORS middleware.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	return c.Handler(s.router)
}

// Start starts the WebSocket hub and the HTTP server
func (s *Server) Start(addr string) error {
	go s.hub.Run()
	log.Printf("[api] server starting on %s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// ==============================
// REST Handlers
// ==============================

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.app.ListRuns()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]RunInfo, len(runs))
	for i, run := range runs {
		out[i] = runInfo(run)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSubmitRun(w http.ResponseWriter, r *http.Request) {
	var req SubmitRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	run, err := s.app.ExecuteRun(req.Bars, req.Orders, req.Params)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	info := runInfo(run)
	s.hub.BroadcastToChannel("runs", WSRunEvent{
		Channel: "runs",
		Event:   "run_completed",
		Run:     info,
	})
	writeJSON(w, http.StatusCreated, info)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	run, err := s.app.GetRun(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if run == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, runInfo(run))
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.app.DeleteRun(id); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetTable(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	rows, err := s.app.GetTable(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if rows == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, RunTableResponse{ID: id, Rows: rows})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ==============================
// WebSocket Handler
// ==============================

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade error: %v", err)
		return
	}

	client := &Client{
		hub:           s.hub,
		conn:          conn,
		send:          make(chan []byte, 256),
		id:            r.RemoteAddr,
		subscriptions: make(map[string]bool),
	}
	s.hub.register <- client

	go client.writePump()
	go client.readPump()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[api] encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
