package server

import (
	"net/http"
	"time"

	"github.com/capwatch/capwatch/server/pipeline"
	"github.com/cyclopcam/www"
	"github.com/go-chi/httprate"
	"github.com/julienschmidt/httprouter"
)

func (s *Server) setupHttpRoutes() {
	router := httprouter.New()

	open := func(method, route string, handle httprouter.Handle) {
		www.Handle(s.Log, router, method, route, handle)
	}

	// Config writes get rate limited: they're cheap to issue in a loop from a
	// dashboard, and every accepted write lands in the event DB.
	ratelimited := func(method, route string, handle httprouter.Handle, requestLimit int, windowLength time.Duration) {
		limited := httprate.Limit(requestLimit, windowLength, httprate.WithKeyFuncs(httprate.KeyByIP))
		www.Handle(s.Log, router, method, route, func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
			limited(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handle(w, r, params)
			})).ServeHTTP(w, r)
		})
	}

	open("GET", "/api/ping", s.httpPing)
	open("GET", "/api/status", s.httpStatus)

	open("GET", "/api/config", s.httpGetConfig)
	ratelimited("PATCH", "/api/config", s.httpPatchConfig, 10, time.Second)

	open("GET", "/api/stats", s.httpGetStats)
	ratelimited("POST", "/api/stats/reset", s.httpResetStats, 2, time.Second)

	open("GET", "/api/events", s.httpGetEvents)
	open("GET", "/api/live", s.httpLive)

	s.httpRouter = router
}

func (s *Server) httpPing(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	www.SendText(w, "pong")
}

func (s *Server) httpStatus(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	type status struct {
		Models pipeline.ModelInfo `json:"models"`
		Rate   float64            `json:"rate"`
	}
	www.SendJSON(w, status{
		Models: s.Runner.Pipeline.Models(),
		Rate:   s.Runner.Rate(),
	})
}
