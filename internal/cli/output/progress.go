package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

const barWidth = 40

// ProgressBar reports how much of a receipt file has been sent.
//
// With a known total the bar is redrawn only when the whole percentage
// changes, so a large upload read in small chunks does not flood the
// terminal. Without a total it prints the running byte count.
type ProgressBar struct {
	mu    sync.Mutex
	w     io.Writer
	title string
	total int64
	// current is the number of bytes read so far.
	current int64
	// drawn is the last rendered percentage, -1 before the first draw.
	drawn int
}

// NewProgressBar returns a bar titled with the file name.
func NewProgressBar(w io.Writer, title string) *ProgressBar {
	return &ProgressBar{w: w, title: title, drawn: -1}
}

// SetTotal sets the expected size in bytes.
func (p *ProgressBar) SetTotal(total int64) {
	p.mu.Lock()
	p.total = total
	p.mu.Unlock()
}

// Update sets both the progress and the total.
func (p *ProgressBar) Update(current, total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current, p.total = current, total
	p.draw(false)
}

// Increment records n more bytes.
func (p *ProgressBar) Increment(n int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current += n
	p.draw(false)
}

// Finish draws the bar full and ends the line.
func (p *ProgressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.total > 0 {
		p.current = p.total
	}
	p.draw(true)
	fmt.Fprintln(p.w)
}

func (p *ProgressBar) draw(force bool) {
	if p.total <= 0 {
		fmt.Fprintf(p.w, "\r%s %s", p.title, formatBytes(p.current))
		return
	}

	percent := int(min(p.current, p.total) * 100 / p.total)
	if percent == p.drawn && !force {
		return
	}
	p.drawn = percent

	filled := barWidth * percent / 100
	fmt.Fprintf(p.w, "\r%s [%s%s] %3d%% (%s/%s)",
		p.title,
		strings.Repeat("█", filled),
		strings.Repeat("░", barWidth-filled),
		percent,
		formatBytes(p.current),
		formatBytes(p.total),
	)
}

// Reader returns r with every read counted on the bar.
func (p *ProgressBar) Reader(r io.Reader) io.Reader {
	return readerFunc(func(b []byte) (int, error) {
		n, err := r.Read(b)
		if n > 0 {
			p.Increment(int64(n))
		}
		return n, err
	})
}

type readerFunc func([]byte) (int, error)

func (f readerFunc) Read(b []byte) (int, error) { return f(b) }

// formatBytes renders b in binary units: 512 B, 1.5 KB, 5.0 MB.
func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	value := float64(b) / unit
	suffix := 0
	for value >= unit && suffix < 5 {
		value /= unit
		suffix++
	}
	return fmt.Sprintf("%.1f %cB", value, "KMGTPE"[suffix])
}
