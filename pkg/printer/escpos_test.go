package printer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_StartsWithInit(t *testing.T) {
	d := NewDocument(0)
	assert.Equal(t, 32, d.Width())
	assert.Equal(t, []byte{esc, '@'}, d.Bytes())
}

func TestDocument_ColumnsFillWidth(t *testing.T) {
	d := NewDocument(20)
	d.Columns("Total", "25.00")

	out := string(d.Bytes()[2:])
	assert.Equal(t, "Total          25.00\n", out)
}

func TestDocument_ColumnsClipLongLeft(t *testing.T) {
	d := NewDocument(16)
	d.Columns("Screen replacement service", "1500.00")

	line := strings.TrimSuffix(string(d.Bytes()[2:]), "\n")
	assert.Len(t, line, 16)
	assert.True(t, strings.HasSuffix(line, " 1500.00"))
}

func TestDocument_LineAndRule(t *testing.T) {
	d := NewDocument(8)
	d.Line("abcdefghijk").Rule('=')
	assert.Equal(t, "abcdefgh\n========\n", string(d.Bytes()[2:]))
}

func TestNew_SelectsImplementation(t *testing.T) {
	p, err := New(Config{Type: "none"})
	require.NoError(t, err)
	assert.IsType(t, Discard{}, p)
	assert.False(t, p.Ready(context.Background()))
	assert.NoError(t, p.Print(context.Background(), []byte("x")))

	_, err = New(Config{Type: "usb"})
	assert.Error(t, err)
	_, err = New(Config{Type: "network"})
	assert.Error(t, err)
	_, err = New(Config{Type: "bluetooth"})
	assert.Error(t, err)

	p, err = New(Config{Type: "network", Address: "127.0.0.1:9100"})
	require.NoError(t, err)
	assert.IsType(t, &networkPrinter{}, p)
}
