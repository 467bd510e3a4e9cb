package main

import (
	"bytes"
	"testing"

	"github.com/nao1215/proxyfinder/internal/finder"
)

func TestProgressBar(t *testing.T) {
	t.Parallel()

	t.Run("disabled bar is a no-op", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		bar := newProgressBar(&buf, 10, false)
		if bar != nil {
			t.Fatal("expected nil bar when disabled")
		}
		bar.update(finder.Progress{Checked: 5})
		bar.finish()
		if buf.Len() != 0 {
			t.Errorf("expected no output, got %q", buf.String())
		}
	})

	t.Run("empty run has no bar", func(t *testing.T) {
		t.Parallel()
		if newProgressBar(&bytes.Buffer{}, 0, true) != nil {
			t.Error("expected nil bar for zero candidates")
		}
	})

	t.Run("enabled bar tracks progress", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		bar := newProgressBar(&buf, 4, true)
		if bar == nil {
			t.Fatal("expected bar")
		}
		bar.update(finder.Progress{Total: 4, Checked: 4, ETA: "00:00:00", ActiveWorkers: 0})
		bar.finish()
		if got := bar.bar.Current(); got != 4 {
			t.Errorf("expected current 4, got %d", got)
		}
	})
}
