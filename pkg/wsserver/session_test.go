package wsserver

import (
	"bytes"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/microdev-go/microserver.go/pkg/lineproto"
)

// fakeConn is an in-memory framed channel for driving a session.
type fakeConn struct {
	readCh    chan byte
	closed    chan struct{}
	closeOnce sync.Once

	lock    sync.Mutex
	written bytes.Buffer
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		readCh: make(chan byte, 64),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) Read(p []byte) (int, error) {
	select {
	case b, ok := <-c.readCh:
		if !ok {
			return 0, io.EOF
		}
		p[0] = b
		return 1, nil
	case <-c.closed:
		return 0, io.ErrClosedPipe
	}
}

func (c *fakeConn) Write(p []byte) (int, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.written.Write(p)
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) output() string {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.written.String()
}

func (c *fakeConn) inject(s string) {
	for _, b := range []byte(s) {
		c.readCh <- b
	}
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

type sessionEnv struct {
	reg    Registry
	conn   *fakeConn
	sess   *Session
	done   chan struct{}
	closed chan string
}

func startSession(t *testing.T, handler lineproto.Handler) *sessionEnv {
	env := &sessionEnv{
		conn:   newFakeConn(),
		done:   make(chan struct{}),
		closed: make(chan string, 1),
	}
	env.sess = newSession("10.0.0.1", env.conn, handler, &env.reg,
		func(addr string) { env.closed <- addr })
	require.NoError(t, env.reg.Add("10.0.0.1", env.sess))
	go func() {
		env.sess.run()
		close(env.done)
	}()
	return env
}

func (env *sessionEnv) waitDone(t *testing.T) {
	select {
	case <-env.done:
	case <-time.After(time.Second):
		t.Fatal("session did not end")
	}
}

func (env *sessionEnv) waitClosed(t *testing.T) string {
	select {
	case addr := <-env.closed:
		return addr
	case <-time.After(time.Second):
		t.Fatal("close notification timeout")
		return ""
	}
}

func waitOutput(t *testing.T, conn *fakeConn, expect string) {
	deadline := time.Now().Add(time.Second)
	for conn.output() != expect {
		if time.Now().After(deadline) {
			require.Equal(t, expect, conn.output())
			return
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSessionEchoRoundTrip(t *testing.T) {
	env := startSession(t, lineproto.Echo)
	env.conn.inject("STAT\r\n")
	waitOutput(t, env.conn, "STAT\r\n")
	env.conn.inject("\x03")
	env.waitDone(t)
}

func TestSessionLFTerminatedCommand(t *testing.T) {
	handler := lineproto.HandlerFunc(func(line string) (string, bool) {
		if line == "LED_ON" {
			return "UPDATE 1", true
		}
		return "", false
	})
	env := startSession(t, handler)
	env.conn.inject("LED_ON\n")
	waitOutput(t, env.conn, "UPDATE 1\r\n")
	env.conn.inject("IGNORED\n") // handler declines, nothing is written
	env.conn.inject("LED_ON\n")
	waitOutput(t, env.conn, "UPDATE 1\r\nUPDATE 1\r\n")
	env.conn.Close()
	env.waitDone(t)
}

type farewellHandler struct {
	lines []string
	ends  int
}

func (h *farewellHandler) HandleLine(line string) (string, bool) {
	h.lines = append(h.lines, line)
	return "", false
}

func (h *farewellHandler) HandleEnd() (string, bool) {
	h.ends++
	return "BYE", true
}

func TestSessionControlByte(t *testing.T) {
	handler := &farewellHandler{}
	env := startSession(t, handler)
	env.conn.inject("LAST\r\n\x03")
	env.waitDone(t)

	// farewell written, then transport closed, then registry entry removed
	require.Equal(t, "BYE\r\n", env.conn.output())
	require.True(t, env.conn.isClosed())
	require.Equal(t, 0, env.reg.Len())
	require.Equal(t, "10.0.0.1", env.waitClosed(t))
	require.Equal(t, []string{"LAST"}, handler.lines)
	require.Equal(t, 1, handler.ends)
}

func TestSessionTransportEOF(t *testing.T) {
	handler := &farewellHandler{}
	env := startSession(t, handler)
	env.conn.inject("PARTIAL") // no terminator
	close(env.conn.readCh)
	env.waitDone(t)

	// end-of-stream closes the session without the end sentinel
	require.Equal(t, 0, handler.ends)
	require.Equal(t, "", env.conn.output())
	require.Equal(t, 0, env.reg.Len())
	env.waitClosed(t)
}

func TestSessionCloseIdempotent(t *testing.T) {
	env := startSession(t, lineproto.Echo)
	env.sess.Close()
	env.sess.Close()
	env.waitDone(t)
	require.Equal(t, 0, env.reg.Len())
	require.Equal(t, "10.0.0.1", env.waitClosed(t))
	select {
	case <-env.closed:
		t.Fatal("close notification fired twice")
	default:
	}
}
