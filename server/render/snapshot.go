package render

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/capwatch/capwatch/server/pipeline"
	"github.com/cyclopcam/logs"
	"github.com/fogleman/gg"
)

// SnapshotSink saves an annotated PNG of every Nth frame. Useful for spot
// checking a headless deployment without attaching to the live feed.
type SnapshotSink struct {
	log      logs.Log
	dir      string
	interval int
	frames   int
	failed   bool
}

// NewSnapshotSink writes into dir, saving one frame out of every 'interval'.
func NewSnapshotSink(logger logs.Log, dir string, interval int) (*SnapshotSink, error) {
	if interval < 1 {
		interval = 1
	}
	if err := os.MkdirAll(dir, 0777); err != nil {
		return nil, err
	}
	return &SnapshotSink{
		log:      logger,
		dir:      dir,
		interval: interval,
	}, nil
}

func (s *SnapshotSink) Consume(update *pipeline.FrameUpdate) {
	s.frames++
	if s.frames%s.interval != 0 || update.Frame == nil {
		return
	}
	img := Annotate(update.Frame, update.Result)
	filename := filepath.Join(s.dir, fmt.Sprintf("%v-%06d.png", time.Now().Format("20060102-150405"), s.frames))
	if err := gg.SavePNG(filename, img); err != nil {
		// Log the first failure only. A full disk would otherwise spam.
		if !s.failed {
			s.log.Errorf("Failed to save snapshot %v: %v", filename, err)
			s.failed = true
		}
		return
	}
	s.failed = false
}
