package pipeline

import (
	"sync"

	"github.com/bmharper/cimg/v2"
)

// SYNC-WATCHER-CHANNEL-SIZE
const WatcherChannelSize = 100

// FrameUpdate is what watchers and sinks receive after each processed frame
type FrameUpdate struct {
	Result *FrameResult  `json:"result"`
	Rate   float64       `json:"rate"`
	Stats  StatsSnapshot `json:"stats"`

	// The frame itself, for sinks that render. Not serialized.
	Frame *cimg.Image `json:"-"`
}

// Sink consumes per-frame results for rendering, recording, or logging.
// Consume is called synchronously from the frame loop, so slow sinks slow
// the pipeline; anything expensive should buffer internally.
type Sink interface {
	Consume(update *FrameUpdate)
}

type watcherHub struct {
	lock     sync.RWMutex
	watchers []chan *FrameUpdate
}

// AddWatcher registers to receive a FrameUpdate per processed frame
func (h *watcherHub) AddWatcher() chan *FrameUpdate {
	h.lock.Lock()
	defer h.lock.Unlock()
	ch := make(chan *FrameUpdate, WatcherChannelSize)
	h.watchers = append(h.watchers, ch)
	return ch
}

func (h *watcherHub) RemoveWatcher(ch chan *FrameUpdate) {
	h.lock.Lock()
	defer h.lock.Unlock()
	for i, w := range h.watchers {
		if w == ch {
			h.watchers = append(h.watchers[:i], h.watchers[i+1:]...)
			close(ch)
			return
		}
	}
}

func (h *watcherHub) send(update *FrameUpdate, warn func(string)) {
	h.lock.RLock()
	defer h.lock.RUnlock()
	for _, ch := range h.watchers {
		// SYNC-WATCHER-CHANNEL-SIZE
		if len(ch) >= cap(ch)*9/10 {
			// We choose to drop frames rather than stall the frame loop.
			// Even if one watcher stalls, other watchers continue to run.
			warn("Frame watcher is falling behind, dropping frames")
		} else {
			ch <- update
		}
	}
}
