package server

import (
	"net/http"
	"time"

	"github.com/capwatch/capwatch/server/eventdb"
	"github.com/capwatch/capwatch/server/pipeline"
	"github.com/cyclopcam/www"
	"github.com/julienschmidt/httprouter"
)

func (s *Server) httpGetStats(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	type stats struct {
		pipeline.StatsSnapshot
		Rate                 float64 `json:"rate"`
		ContainerDetectMsAvg float64 `json:"containerDetectMsAvg"`
		ClosureDetectMsAvg   float64 `json:"closureDetectMsAvg"`
		BrandClassifyMsAvg   float64 `json:"brandClassifyMsAvg"`
	}
	pipe := s.Runner.Pipeline
	www.SendJSON(w, stats{
		StatsSnapshot:        s.Runner.Stats.Snapshot(),
		Rate:                 s.Runner.Rate(),
		ContainerDetectMsAvg: pipe.PerfContainerDetect.Milliseconds(),
		ClosureDetectMsAvg:   pipe.PerfClosureDetect.Milliseconds(),
		BrandClassifyMsAvg:   pipe.PerfClassify.Milliseconds(),
	})
}

func (s *Server) httpResetStats(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	s.Runner.Stats.Reset()
	if err := s.Events.AddEvent(eventdb.EventTypeStatsReset, nil); err != nil {
		s.Log.Warnf("Failed to record stats reset: %v", err)
	}
	www.SendOK(w)
}

func (s *Server) httpGetEvents(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	limit := www.QueryInt(r, "limit")
	events, err := s.Events.Latest(limit)
	www.Check(err)

	// One record per event, timestamp in ISO-8601
	type record struct {
		Timestamp string             `json:"timestamp"`
		EventType string             `json:"event_type"`
		Data      *eventdb.EventData `json:"data,omitempty"`
	}
	out := make([]record, 0, len(events))
	for _, ev := range events {
		rec := record{
			Timestamp: ev.Time.Get().UTC().Format(time.RFC3339Nano),
			EventType: ev.EventType,
		}
		if ev.Data != nil {
			rec.Data = &ev.Data.Data
		}
		out = append(out, rec)
	}
	www.SendJSON(w, out)
}
