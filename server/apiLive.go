package server

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// httpLive streams one JSON FrameUpdate per processed frame over a websocket.
// When the client can't keep up, frames are dropped rather than buffered.
func (s *Server) httpLive(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	c, err := s.wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Log.Errorf("httpLive websocket upgrade failed: %v", err)
		return
	}
	defer c.Close()

	updates := s.Runner.AddWatcher()
	defer s.Runner.RemoveWatcher(updates)

	// Read and discard client messages, so we notice the close handshake
	clientGone := make(chan bool)
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	s.Log.Infof("Live feed watcher connected from %v", r.RemoteAddr)
	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			if err := c.WriteJSON(update); err != nil {
				s.Log.Infof("Live feed watcher disconnected: %v", err)
				return
			}
		case <-clientGone:
			s.Log.Infof("Live feed watcher closed the connection")
			return
		}
	}
}
