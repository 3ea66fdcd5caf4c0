// Package exclude loads path patterns that keep files out of a scan.
package exclude

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New reads one pattern per line. Blank lines and lines starting with '#'
// are ignored. An empty path yields an empty list.
func New(path string) (*List, error) {
	l := List{}
	if path == "" {
		return &l, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	//goland:noinspection GoUnhandledErrorResult
	defer f.Close()
	scanner := bufio.NewScanner(f)

	for scanner.Scan() {
		pattern := strings.TrimSpace(scanner.Text())
		if pattern == "" || strings.HasPrefix(pattern, "#") {
			continue
		}
		l.patterns = append(l.patterns, pattern)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading exclusion list: %w", err)
	}
	logrus.Infof("Loaded %d exclusion patterns", len(l.patterns))
	return &l, nil
}

// List is a set of substrings; a path containing any of them is excluded.
type List struct {
	patterns []string
}

func (l *List) Contains(s string) bool {
	if l == nil {
		return false
	}
	for _, pattern := range l.patterns {
		if strings.Contains(s, pattern) {
			return true
		}
	}
	return false
}

func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.patterns)
}
