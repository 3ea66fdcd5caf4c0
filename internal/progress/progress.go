// Package progress adapts terminal progress bars to the callbacks exposed by
// the clustering packages.
package progress

import (
	"github.com/schollz/progressbar/v3"
)

func New(total int, description string) *Bar {
	return &Bar{bar: progressbar.Default(int64(total), description)}
}

// Silent returns a bar that tracks progress without drawing anything.
func Silent(total int, description string) *Bar {
	return &Bar{bar: progressbar.DefaultSilent(int64(total), description)}
}

type Bar struct {
	bar *progressbar.ProgressBar
}

// Observe marks the item with the given zero-based index as done.
func (b *Bar) Observe(index int) {
	_ = b.bar.Set(index + 1)
}

// Report sets the absolute progress, growing the bar if total changed.
func (b *Bar) Report(done, total int) {
	if int64(total) != b.bar.GetMax64() {
		b.bar.ChangeMax(total)
	}
	_ = b.bar.Set(done)
}

func (b *Bar) Add(n int) {
	_ = b.bar.Add(n)
}

func (b *Bar) Finish() {
	_ = b.bar.Finish()
}
