package main

import (
	"io"

	"github.com/cheggaaa/pb/v3"

	"github.com/nao1215/proxyfinder/internal/finder"
)

const progressTemplate pb.ProgressBarTemplate = `{{counters . }} {{bar . }} {{percent . }} ETA {{string . "eta"}} workers {{string . "workers"}}`

// progressBar shows checked/total candidates with the finder's ETA.
// A nil *progressBar is valid and draws nothing.
type progressBar struct {
	bar *pb.ProgressBar
}

func newProgressBar(w io.Writer, total int, enabled bool) *progressBar {
	if !enabled || total == 0 {
		return nil
	}
	bar := pb.New(total)
	bar.SetWriter(w)
	bar.SetTemplate(progressTemplate)
	bar.Set("eta", "--:--:--")
	bar.Set("workers", "0")
	bar.Start()
	return &progressBar{bar: bar}
}

func (p *progressBar) update(progress finder.Progress) {
	if p == nil {
		return
	}
	p.bar.SetCurrent(int64(progress.Checked))
	p.bar.Set("eta", progress.ETA)
	p.bar.Set("workers", progress.ActiveWorkers)
}

func (p *progressBar) finish() {
	if p == nil {
		return
	}
	p.bar.Finish()
}
