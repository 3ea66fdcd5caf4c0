package frames

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pomo-mondreganto/lookalike/internal/scan"
)

// OpenSequence treats the images in dir, in lexical order, as consecutive
// frames. Hidden files and subdirectories are ignored.
func OpenSequence(dir string) (*Sequence, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing sequence directory: %w", err)
	}
	s := &Sequence{}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") || entry.IsDir() || !scan.IsImage(entry.Name()) {
			continue
		}
		s.paths = append(s.paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(s.paths)
	if len(s.paths) == 0 {
		return nil, ErrNoFrames
	}
	return s, nil
}

type Sequence struct {
	paths []string
	pos   int
}

func (s *Sequence) Len() int {
	return len(s.paths)
}

func (s *Sequence) Next() (image.Image, error) {
	if s.pos >= len(s.paths) {
		return nil, io.EOF
	}
	path := s.paths[s.pos]
	s.pos++
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}

func (s *Sequence) Close() error {
	s.pos = len(s.paths)
	return nil
}
