package wsserver

import (
	"io"
	"sync"

	"github.com/golang/glog"

	"github.com/microdev-go/microserver.go/pkg/lineproto"
)

// Session is the server-side state for one admitted connection: the framed
// transport, the line decoder, and the bound handler. The transport and
// decoder are owned exclusively by the session.
type Session struct {
	addr    string
	conn    io.ReadWriteCloser
	decoder *lineproto.Decoder
	handler lineproto.Handler

	registry  *Registry
	closeFunc CloseFunc
	closeOnce sync.Once
}

func newSession(addr string, conn io.ReadWriteCloser, handler lineproto.Handler, reg *Registry, closeFunc CloseFunc) *Session {
	return &Session{
		addr:      addr,
		conn:      conn,
		decoder:   lineproto.NewDecoder(),
		handler:   handler,
		registry:  reg,
		closeFunc: closeFunc,
	}
}

// Addr returns the peer address the session is keyed by.
func (s *Session) Addr() string { return s.addr }

// run reads the transport one byte at a time and dispatches complete
// lines to the bound handler, in arrival order, each to completion before
// the next byte is examined. It returns when the session ends.
func (s *Session) run() {
	buf := make([]byte, 1)
	for {
		n, err := s.conn.Read(buf)
		if err != nil {
			// stream end closes the session without a handler callback;
			// only the end-of-session control byte reaches HandleEnd
			if err != io.EOF {
				glog.V(1).Infof("session %s read: %v", s.addr, err)
			}
			s.Close()
			return
		}
		if n == 0 {
			continue
		}
		switch ev := s.decoder.Feed(buf[0]); ev.Kind {
		case lineproto.EventLine:
			if reply, ok := s.handler.HandleLine(ev.Line); ok {
				s.write(reply)
			}
		case lineproto.EventEnd:
			if farewell, ok := s.handler.HandleEnd(); ok {
				s.write(farewell)
			}
			s.Close()
			return
		}
	}
}

func (s *Session) write(reply string) {
	if _, err := io.WriteString(s.conn, reply+"\r\n"); err != nil {
		glog.V(1).Infof("session %s write: %v", s.addr, err)
	}
}

// Close tears the session down: the transport is closed first, then the
// registry entry is removed, then the close notification fires. All close
// triggers share this path and it runs at most once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.conn.Close()
		s.registry.Remove(s)
		if s.closeFunc != nil {
			s.closeFunc(s.addr)
		}
		glog.V(1).Infof("session %s closed", s.addr)
	})
}
