// Package virtualport backs hidio.Port with an in-memory loopback,
// used by tests and by the --hid-backend=virtual CLI flag for bring-up
// without real hardware attached.
package virtualport

import (
	"errors"
	"sync"
	"time"

	"github.com/openracing/ffbengine/internal/hidio"
)

var _ hidio.Port = (*Port)(nil)

// ErrClosed is returned by Write/Read after Close.
var ErrClosed = errors.New("virtualport: closed")

// ErrTimeout is returned by Read when no report arrives within deadline.
var ErrTimeout = errors.New("virtualport: read timeout")

// Port is an in-memory hidio.Port: writes are recorded for inspection,
// and reads are served from a queue that test code (or a scripted
// device simulator) feeds via Inject.
type Port struct {
	mu       sync.Mutex
	open     bool
	written  [][]byte
	incoming chan []byte
}

// New creates a closed Port with room for up to queueLen injected
// incoming reports before Inject blocks.
func New(queueLen int) *Port {
	if queueLen <= 0 {
		queueLen = 16
	}
	return &Port{incoming: make(chan []byte, queueLen)}
}

// Open implements hidio.Port.
func (p *Port) Open() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open = true
	return nil
}

// Close implements hidio.Port.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open = false
	return nil
}

// Write implements hidio.Port: it copies report into the written log and
// always succeeds while open.
func (p *Port) Write(report []byte, deadline time.Duration) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open {
		return 0, ErrClosed
	}
	cp := make([]byte, len(report))
	copy(cp, report)
	p.written = append(p.written, cp)
	return len(report), nil
}

// Read implements hidio.Port: it pops the next injected report, blocking
// up to deadline.
func (p *Port) Read(buf []byte, deadline time.Duration) (int, error) {
	p.mu.Lock()
	if !p.open {
		p.mu.Unlock()
		return 0, ErrClosed
	}
	p.mu.Unlock()

	timer := time.NewTimer(deadline)
	defer timer.Stop()
	select {
	case data := <-p.incoming:
		n := copy(buf, data)
		return n, nil
	case <-timer.C:
		return 0, ErrTimeout
	}
}

// Inject queues report as the next value Read will return. It does not
// block the RT thread: callers are expected to be test drivers or a
// simulator goroutine, never the RT loop itself.
func (p *Port) Inject(report []byte) {
	p.incoming <- report
}

// WrittenReports returns every report passed to Write so far, in order.
func (p *Port) WrittenReports() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]byte, len(p.written))
	copy(out, p.written)
	return out
}
