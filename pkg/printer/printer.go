package printer

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync"
	"time"
)

// Printer sends raw ESC/POS jobs to a receipt printer.
type Printer interface {
	Print(ctx context.Context, job []byte) error
	// Ready reports whether the device is reachable right now.
	Ready(ctx context.Context) bool
	Close() error
}

// Config selects and addresses the printer.
type Config struct {
	Type         string // "usb", "network" or "none"
	DevicePath   string // e.g. /dev/usb/lp0
	Address      string // e.g. 192.168.1.50:9100
	DialTimeout  time.Duration
	WriteTimeout time.Duration
}

// New builds the printer described by cfg.
func New(cfg Config) (Printer, error) {
	switch cfg.Type {
	case "usb":
		if cfg.DevicePath == "" {
			return nil, fmt.Errorf("printer: device path is required for usb printers")
		}
		return &devicePrinter{path: cfg.DevicePath}, nil
	case "network":
		if cfg.Address == "" {
			return nil, fmt.Errorf("printer: address is required for network printers")
		}
		p := &networkPrinter{address: cfg.Address, dialTimeout: cfg.DialTimeout, writeTimeout: cfg.WriteTimeout}
		if p.dialTimeout <= 0 {
			p.dialTimeout = 5 * time.Second
		}
		if p.writeTimeout <= 0 {
			p.writeTimeout = 10 * time.Second
		}
		return p, nil
	case "none", "":
		return Discard{}, nil
	}
	return nil, fmt.Errorf("printer: unknown type %q (use usb, network or none)", cfg.Type)
}

// devicePrinter writes each job to a character device, opened per job.
type devicePrinter struct {
	path string
	mu   sync.Mutex
}

func (p *devicePrinter) Print(ctx context.Context, job []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	f, err := os.OpenFile(p.path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("printer: open %s: %w", p.path, err)
	}
	defer f.Close()
	if _, err := f.Write(job); err != nil {
		return fmt.Errorf("printer: write %s: %w", p.path, err)
	}
	return nil
}

func (p *devicePrinter) Ready(ctx context.Context) bool {
	_, err := os.Stat(p.path)
	return err == nil
}

func (p *devicePrinter) Close() error { return nil }

// networkPrinter dials a raw TCP port (usually 9100) per job.
type networkPrinter struct {
	address      string
	dialTimeout  time.Duration
	writeTimeout time.Duration
}

func (p *networkPrinter) dial(ctx context.Context) (net.Conn, error) {
	d := net.Dialer{Timeout: p.dialTimeout}
	return d.DialContext(ctx, "tcp", p.address)
}

func (p *networkPrinter) Print(ctx context.Context, job []byte) error {
	conn, err := p.dial(ctx)
	if err != nil {
		return fmt.Errorf("printer: connect %s: %w", p.address, err)
	}
	defer conn.Close()

	_ = conn.SetWriteDeadline(time.Now().Add(p.writeTimeout))
	if _, err := conn.Write(job); err != nil {
		return fmt.Errorf("printer: write %s: %w", p.address, err)
	}
	return nil
}

func (p *networkPrinter) Ready(ctx context.Context) bool {
	conn, err := p.dial(ctx)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

func (p *networkPrinter) Close() error { return nil }

// Discard drops every job. Used when no printer is attached.
type Discard struct{}

func (Discard) Print(ctx context.Context, job []byte) error { return nil }
func (Discard) Ready(ctx context.Context) bool              { return false }
func (Discard) Close() error                                { return nil }
