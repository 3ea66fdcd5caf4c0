package dedup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"
)

// Duplicates lists the files of saved groups that are not anchors, in
// group order. The anchor of each group is its last path.
func Duplicates(groups [][]string) []string {
	var paths []string
	for _, g := range groups {
		if len(g) < 2 {
			continue
		}
		paths = append(paths, g[:len(g)-1]...)
	}
	return paths
}

// Remove deletes paths one by one and returns how many were removed. Files
// that are already gone are skipped with a warning, other failures stop the
// removal.
func Remove(paths []string) (int, error) {
	removed := 0
	for _, path := range paths {
		if err := os.Remove(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				logrus.Warnf("File %s is already gone", path)
				continue
			}
			return removed, fmt.Errorf("removing %s: %w", path, err)
		}
		logrus.Infof("Removed %s", path)
		removed++
	}
	return removed, nil
}
