package hardware

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn pairs a scripted input stream with an output buffer.
type fakeConn struct {
	io.Reader
	out bytes.Buffer
}

func (c *fakeConn) Write(p []byte) (int, error) {
	return c.out.Write(p)
}

func newFakeConn(input string) *fakeConn {
	return &fakeConn{Reader: strings.NewReader(input)}
}

func TestSendReady(t *testing.T) {
	conn := newFakeConn("")
	link := NewLink(conn)

	require.NoError(t, link.SendReady())
	assert.Equal(t, "BEGIN\n", conn.out.String())
}

func TestSendLabel(t *testing.T) {
	conn := newFakeConn("")
	link := NewLink(conn)

	require.NoError(t, link.SendLabel("plastic"))
	require.NoError(t, link.SendLabel("glass"))
	assert.Equal(t, "plastic\nglass\n", conn.out.String())
}

func TestWaitTriggerSkipsNoise(t *testing.T) {
	conn := newFakeConn("booting\n\n  DETECT  \n")
	link := NewLink(conn)

	assert.NoError(t, link.WaitTrigger(), "trigger token should be found after noise lines")
}

func TestWaitTriggerConsecutive(t *testing.T) {
	conn := newFakeConn("DETECT\nDETECT\n")
	link := NewLink(conn)

	require.NoError(t, link.WaitTrigger())
	require.NoError(t, link.WaitTrigger())
	assert.Error(t, link.WaitTrigger(), "exhausted stream must return an error")
}

func TestWaitTriggerReadError(t *testing.T) {
	conn := newFakeConn("still booting\n")
	link := NewLink(conn)

	err := link.WaitTrigger()
	require.Error(t, err)
	assert.ErrorIs(t, err, io.EOF)
}

type failingWriter struct{}

func (failingWriter) Read(p []byte) (int, error)  { return 0, io.EOF }
func (failingWriter) Write(p []byte) (int, error) { return 0, io.ErrClosedPipe }

func TestSendReadyWriteError(t *testing.T) {
	link := NewLink(failingWriter{})

	err := link.SendReady()
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}
