package main

import (
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// downloadBar renders binary download progress. The bar is created on the
// first update so nothing is drawn when the binary is already cached.
type downloadBar struct {
	w   io.Writer
	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

func newDownloadBar(w io.Writer) *downloadBar {
	return &downloadBar{w: w}
}

// Update is a cuimp.ProgressFunc.
func (d *downloadBar) Update(downloaded, total int64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.bar == nil {
		d.bar = progressbar.NewOptions64(total,
			progressbar.OptionSetWriter(d.w),
			progressbar.OptionSetDescription("downloading curl-impersonate"),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(30),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	}
	_ = d.bar.Set64(downloaded)
}

// Finish completes the bar if one was drawn.
func (d *downloadBar) Finish() {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.bar != nil {
		_ = d.bar.Finish()
	}
}
