package server

import (
	"context"
	"net/http"

	"github.com/capwatch/capwatch/server/eventdb"
	"github.com/capwatch/capwatch/server/pipeline"
	"github.com/cyclopcam/logs"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

// Server owns the pipeline runner, the event database, and the HTTP API
type Server struct {
	Log    logs.Log
	Runner *pipeline.Runner
	Events *eventdb.EventDB

	httpServer *http.Server
	httpRouter *httprouter.Router
	wsUpgrader websocket.Upgrader
}

func NewServer(logger logs.Log, runner *pipeline.Runner, events *eventdb.EventDB) *Server {
	s := &Server{
		Log:    logger,
		Runner: runner,
		Events: events,
	}
	s.setupHttpRoutes()
	return s
}

// Start launches the frame loop and records a start event
func (s *Server) Start() {
	s.Runner.Start()
	if err := s.Events.AddEvent(eventdb.EventTypeStart, nil); err != nil {
		s.Log.Warnf("Failed to record start event: %v", err)
	}
}

// ListenHTTP blocks, serving the API on addr (eg ":8080")
func (s *Server) ListenHTTP(addr string) error {
	s.Log.Infof("Listening on %v", addr)
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.httpRouter,
	}
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the frame loop and the HTTP server
func (s *Server) Shutdown() {
	s.Log.Infof("Shutdown starting")
	s.Runner.Stop()
	if err := s.Events.AddEvent(eventdb.EventTypeStop, nil); err != nil {
		s.Log.Warnf("Failed to record stop event: %v", err)
	}
	if s.httpServer != nil {
		s.httpServer.Shutdown(context.Background())
	}
	s.Events.Close()
	s.Log.Infof("Shutdown complete")
}
