package server

import (
	"net/http"

	"github.com/capwatch/capwatch/server/eventdb"
	"github.com/capwatch/capwatch/server/pipeline"
	"github.com/cyclopcam/www"
	"github.com/julienschmidt/httprouter"
)

func (s *Server) httpGetConfig(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	www.SendJSON(w, s.Runner.Pipeline.Config())
}

// httpPatchConfig applies a partial config update. Fields absent from the
// request body keep their current values. An out-of-range value rejects the
// whole update.
func (s *Server) httpPatchConfig(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	update := pipeline.ConfigUpdate{}
	www.ReadJSON(w, r, &update, 1024*1024)

	if err := s.Runner.Pipeline.UpdateConfig(&update); err != nil {
		www.PanicBadRequestf("%v", err)
	}

	if err := s.Events.AddEvent(eventdb.EventTypeConfigChange, &eventdb.EventData{
		Values: configUpdateValues(&update),
	}); err != nil {
		s.Log.Warnf("Failed to record config change: %v", err)
	}

	www.SendJSON(w, s.Runner.Pipeline.Config())
}

// configUpdateValues flattens the provided fields of an update for the event log
func configUpdateValues(u *pipeline.ConfigUpdate) map[string]float64 {
	values := map[string]float64{}
	boolVal := func(v bool) float64 {
		if v {
			return 1
		}
		return 0
	}
	if u.ContainerThreshold != nil {
		values["containerThreshold"] = float64(*u.ContainerThreshold)
	}
	if u.ClosureThreshold != nil {
		values["closureThreshold"] = float64(*u.ClosureThreshold)
	}
	if u.NmsIouThreshold != nil {
		values["nmsIouThreshold"] = float64(*u.NmsIouThreshold)
	}
	if u.BrandThreshold != nil {
		values["brandThreshold"] = float64(*u.BrandThreshold)
	}
	if u.EnableContainerDetection != nil {
		values["enableContainerDetection"] = boolVal(*u.EnableContainerDetection)
	}
	if u.EnableClosureDetection != nil {
		values["enableClosureDetection"] = boolVal(*u.EnableClosureDetection)
	}
	if u.EnableBrandClassification != nil {
		values["enableBrandClassification"] = boolVal(*u.EnableBrandClassification)
	}
	return values
}
