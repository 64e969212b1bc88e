package printer

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

// ESC/POS control bytes
const (
	esc = 0x1B
	gs  = 0x1D
	lf  = 0x0A
)

// Align is a justification mode.
type Align byte

const (
	Left   Align = 0
	Center Align = 1
	Right  Align = 2
)

// Size is a character magnification.
type Size byte

const (
	Normal Size = 0x00
	Double Size = 0x11
	Tall   Size = 0x01
)

// Document accumulates one ESC/POS print job.
// Width is in characters: 32 on 58mm paper, 48 on 80mm.
type Document struct {
	buf   bytes.Buffer
	width int
}

// NewDocument starts a job for paper of the given character width.
func NewDocument(width int) *Document {
	if width <= 0 {
		width = 32
	}
	d := &Document{width: width}
	d.buf.Write([]byte{esc, '@'})
	return d
}

// Width returns the line width in characters.
func (d *Document) Width() int {
	return d.width
}

func (d *Document) Align(a Align) *Document {
	d.buf.Write([]byte{esc, 'a', byte(a)})
	return d
}

func (d *Document) Bold(on bool) *Document {
	var b byte
	if on {
		b = 1
	}
	d.buf.Write([]byte{esc, 'E', b})
	return d
}

func (d *Document) Size(s Size) *Document {
	d.buf.Write([]byte{gs, '!', byte(s)})
	return d
}

// Line prints s, cut to the paper width.
func (d *Document) Line(s string) *Document {
	d.buf.WriteString(clip(s, d.width))
	d.buf.WriteByte(lf)
	return d
}

// Rule prints a full-width line of ch.
func (d *Document) Rule(ch rune) *Document {
	d.buf.WriteString(strings.Repeat(string(ch), d.width))
	d.buf.WriteByte(lf)
	return d
}

// Columns prints left and right on one line, right-justifying right.
// The left text is shortened when both do not fit.
func (d *Document) Columns(left, right string) *Document {
	rw := utf8.RuneCountInString(right)
	room := d.width - rw - 1
	if room < 1 {
		room = 1
	}
	left = clip(left, room)
	pad := d.width - utf8.RuneCountInString(left) - rw
	if pad < 1 {
		pad = 1
	}
	d.buf.WriteString(left)
	d.buf.WriteString(strings.Repeat(" ", pad))
	d.buf.WriteString(right)
	d.buf.WriteByte(lf)
	return d
}

func (d *Document) Feed(n int) *Document {
	for i := 0; i < n; i++ {
		d.buf.WriteByte(lf)
	}
	return d
}

// Cut feeds and partially cuts the paper.
func (d *Document) Cut() *Document {
	d.buf.Write([]byte{gs, 'V', 0x01})
	return d
}

// Bytes returns the job.
func (d *Document) Bytes() []byte {
	return d.buf.Bytes()
}

func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
