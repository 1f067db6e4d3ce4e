package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmharper/cimg/v2"
)

// FrameSource produces frames on demand. Returns io.EOF when the stream is
// finished. Cameras, video files, and test fixtures all hide behind this.
type FrameSource interface {
	NextFrame() (*cimg.Image, error)
	Close()
}

// DirectorySource reads a directory of JPEG/PNG frames in filename order.
// With Loop set it wraps around forever, which is handy for soak testing a
// pipeline without a camera.
type DirectorySource struct {
	files []string
	next  int
	Loop  bool
}

func NewDirectorySource(dir string) (*DirectorySource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frame directory %v: %w", dir, err)
	}
	files := []string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no frames found in %v", dir)
	}
	sort.Strings(files)
	return &DirectorySource{files: files}, nil
}

func (s *DirectorySource) NextFrame() (*cimg.Image, error) {
	if s.next >= len(s.files) {
		if !s.Loop {
			return nil, io.EOF
		}
		s.next = 0
	}
	img, err := cimg.ReadFile(s.files[s.next])
	s.next++
	if err != nil {
		return nil, err
	}
	return img, nil
}

func (s *DirectorySource) Close() {
}
