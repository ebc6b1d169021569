// Package serialport backs hidio.Port with a CDC/virtual-serial USB
// channel, for peripherals that expose their HID-equivalent report
// stream over a serial control interface rather than raw USB HID.
package serialport

import (
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/openracing/ffbengine/internal/hidio"
)

var _ hidio.Port = (*Port)(nil)

// Port implements hidio.Port over a serial device path.
type Port struct {
	path     string
	baudRate int

	mu   sync.Mutex
	conn serial.Port
}

// Config describes how to open a serial-backed HID transport.
type Config struct {
	Path     string `yaml:"path" json:"path"`
	BaudRate int    `yaml:"baud_rate" json:"baudRate"`
}

// New creates a Port for cfg. BaudRate defaults to 115200 if unset.
func New(cfg Config) *Port {
	baud := cfg.BaudRate
	if baud == 0 {
		baud = 115200
	}
	return &Port{path: cfg.Path, baudRate: baud}
}

// Open implements hidio.Port.
func (p *Port) Open() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil {
		return nil
	}
	mode := &serial.Mode{
		BaudRate: p.baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	conn, err := serial.Open(p.path, mode)
	if err != nil {
		return fmt.Errorf("serialport: failed to open %s: %w", p.path, err)
	}
	p.conn = conn
	return nil
}

// Close implements hidio.Port.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn = nil
	return err
}

// Write implements hidio.Port. The underlying serial library has no
// write-side deadline of its own; deadline is honored only on Read.
func (p *Port) Write(report []byte, deadline time.Duration) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return 0, fmt.Errorf("serialport: not connected")
	}
	return p.conn.Write(report)
}

// Read implements hidio.Port.
func (p *Port) Read(buf []byte, deadline time.Duration) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return 0, fmt.Errorf("serialport: not connected")
	}
	if err := p.conn.SetReadTimeout(deadline); err != nil {
		return 0, fmt.Errorf("serialport: set read timeout: %w", err)
	}
	return p.conn.Read(buf)
}
