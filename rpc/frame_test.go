package rpc

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pipeEnd struct {
	r io.Reader
	w io.Writer
}

func (p pipeEnd) Write(b []byte) (int, error) { return p.w.Write(b) }
func (p pipeEnd) Read(b []byte) (int, error)  { return p.r.Read(b) }

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	writer := NewFrameWriter(&buf)
	reader := NewFrameReader(&buf)

	type payload struct {
		Foo string `json:"foo"`
		Bar int    `json:"bar"`
	}

	in := payload{Foo: "hello", Bar: 42}
	require.NoError(t, writer.Write(in))

	var out payload
	require.NoError(t, reader.Read(&out))
	assert.Equal(t, in, out)
}

func TestFrameReaderServerClosed(t *testing.T) {
	r, w := io.Pipe()
	reader := NewFrameReader(r)
	w.Close()

	var out map[string]any
	err := reader.Read(&out)
	assert.ErrorIs(t, err, ErrServerClosed)
}

func TestFrameReaderTooLarge(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(`{"x":"`)
	buf.WriteString(string(make([]byte, MaxFrameSize+10)))
	buf.WriteString("\"}\n")

	reader := NewFrameReader(&buf)
	var out map[string]any
	err := reader.Read(&out)
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestFrameWriterAppendsNewline(t *testing.T) {
	var buf bytes.Buffer
	writer := NewFrameWriter(&buf)
	require.NoError(t, writer.Write(map[string]int{"a": 1}))
	assert.True(t, bytes.HasSuffix(buf.Bytes(), []byte("\n")))
}
