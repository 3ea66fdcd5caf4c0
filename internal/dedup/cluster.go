// Package dedup groups visually equal images of an unordered collection.
//
// Grouping is anchor based: every member of a group is similar to the
// group's anchor, but two non-anchor members need not be similar to each
// other. Similarity is not closed transitively.
package dedup

import (
	"fmt"

	"github.com/pomo-mondreganto/lookalike/internal/imghash"
	"github.com/sirupsen/logrus"
)

// Group lists entities similar to its anchor, which is the last element.
type Group []*imghash.Entity

func (g Group) Anchor() *imghash.Entity {
	if len(g) == 0 {
		return nil
	}
	return g[len(g)-1]
}

func (g Group) IDs() []string {
	ids := make([]string, len(g))
	for i, e := range g {
		ids[i] = e.ID
	}
	return ids
}

type Option func(*options)

type options struct {
	progress func(done, total int)
}

// WithProgress reports each processed anchor position.
func WithProgress(fn func(done, total int)) Option {
	return func(o *options) {
		o.progress = fn
	}
}

// Cluster walks entities in order and, for every entity not yet grouped,
// collects all later ungrouped entities similar to it. Entities that match
// nothing are never reported.
func Cluster(cmp *imghash.Comparator, entities []*imghash.Entity, opts ...Option) ([]Group, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	consumed := make([]bool, len(entities))
	var groups []Group
	for i, anchor := range entities {
		if !consumed[i] {
			var group Group
			for j := i + 1; j < len(entities); j++ {
				if consumed[j] {
					continue
				}
				similar, err := cmp.Similar(anchor, entities[j])
				if err != nil {
					return nil, fmt.Errorf("comparing %q with %q: %w", anchor.ID, entities[j].ID, err)
				}
				if similar {
					group = append(group, entities[j])
					consumed[j] = true
				}
			}
			if len(group) > 0 {
				group = append(group, anchor)
				consumed[i] = true
				groups = append(groups, group)
				logrus.WithField("anchor", anchor.ID).Debugf("Grouped %d similar images", len(group)-1)
			}
		}
		if o.progress != nil {
			o.progress(i+1, len(entities))
		}
	}
	return groups, nil
}
