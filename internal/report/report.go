// Package report renders deduplication results for humans.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/pomo-mondreganto/lookalike/internal/dedup"
)

const timeLayout = "2006-01-02 15:04:05"

// FormatSize renders bytes as "1.2 MB (1,234,567 bytes)", or just
// "999 bytes" below a kilobyte.
func FormatSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	if bytes < 1000 {
		return fmt.Sprintf("%d bytes", bytes)
	}
	return fmt.Sprintf("%s (%s bytes)", humanize.Bytes(uint64(bytes)), humanize.Comma(bytes))
}

// FileInfo describes the file at path on one line.
func FileInfo(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("getting file info: %w", err)
	}
	return fmt.Sprintf("%s, %s, modified %s", path, FormatSize(info.Size()), info.ModTime().Format(timeLayout)), nil
}

// Write prints every group, anchor last, separated by blank lines. Files
// that can no longer be read are listed without details.
func Write(w io.Writer, groups []dedup.Group) error {
	var total int
	for i, g := range groups {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return fmt.Errorf("writing report: %w", err)
			}
		}
		if _, err := fmt.Fprintf(w, "Group %d (%d files):\n", i+1, len(g)); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		for _, id := range g.IDs() {
			line, err := FileInfo(id)
			if err != nil {
				line = id
			}
			if _, err := fmt.Fprintf(w, "  %s\n", line); err != nil {
				return fmt.Errorf("writing report: %w", err)
			}
		}
		total += len(g)
	}
	if _, err := fmt.Fprintf(w, "\nFound %d groups with %d files\n", len(groups), total); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
