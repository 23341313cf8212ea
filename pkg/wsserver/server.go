package wsserver

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/microdev-go/microserver.go/pkg/lineproto"
	"github.com/microdev-go/microserver.go/pkg/netinfo"
)

// Defaults for construction-time parameters.
const (
	DefaultPort = 8080
	DefaultAddr = "0.0.0.0"
)

// AcceptFunc is the admission policy: given the peer address of a freshly
// upgraded connection, it returns the handler to bind to the session, or
// an error to reject the connection. The duplicate-address check is always
// performed by the server in addition to this hook and cannot be bypassed.
type AcceptFunc func(addr string) (lineproto.Handler, error)

// CloseFunc is notified once per session teardown, after the registry
// entry has been removed. Removal itself is owned by the server; the hook
// only augments it.
type CloseFunc func(addr string)

// Server accepts websocket connections and runs the line protocol on each
// admitted session.
type Server struct {
	// Port to listen on; 0 picks an ephemeral port.
	Port int
	// Addr is the bind address mask; "" means DefaultAddr.
	Addr string
	// Password is an opaque token a client must present as the "token"
	// query parameter of the upgrade request. Empty disables the check.
	Password string
	// Accept is the admission policy; nil admits every new address with
	// the Echo handler.
	Accept AcceptFunc
	// OnClose is the close notification; may be nil.
	OnClose CloseFunc

	registry Registry
	listener net.Listener
}

// NewServer creates a Server with default port and bind address.
func NewServer() *Server {
	return &Server{Port: DefaultPort, Addr: DefaultAddr}
}

// Registry exposes the live session registry.
func (s *Server) Registry() *Registry { return &s.registry }

// ListenAddr returns the bound listener address, or nil when stopped.
func (s *Server) ListenAddr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start binds the listening socket and serves connections in the
// background. It returns the connection URI derived from the active
// network interface, or "" when no interface is active. A running server
// is stopped first.
func (s *Server) Start() (string, error) {
	s.Stop()
	bind := s.Addr
	if bind == "" {
		bind = DefaultAddr
	}
	ln, err := net.Listen("tcp", net.JoinHostPort(bind, strconv.Itoa(s.Port)))
	if err != nil {
		return "", err
	}
	s.listener = ln
	srv := websocket.Server{Handshake: s.handshake, Handler: s.serveConn}
	go func() {
		if err := http.Serve(ln, srv); err != nil {
			glog.V(1).Infof("ws server stopped: %v", err)
		}
	}()
	glog.Infof("ws server listening on %s", ln.Addr())
	ip := netinfo.AdvertiseIP()
	if ip == "" {
		return "", nil
	}
	return fmt.Sprintf("ws://%s:%d", ip, ln.Addr().(*net.TCPAddr).Port), nil
}

// Stop closes the listening socket and force-closes every live session,
// leaving the registry empty. Safe to call on a stopped server.
func (s *Server) Stop() {
	if s.listener != nil {
		s.listener.Close()
		s.listener = nil
	}
	for _, sess := range s.registry.sessions() {
		sess.Close()
	}
}

func (s *Server) handshake(config *websocket.Config, req *http.Request) error {
	if s.Password != "" && req.URL.Query().Get("token") != s.Password {
		glog.V(1).Infof("handshake rejected for %s", req.RemoteAddr)
		return errors.New("bad token")
	}
	return nil
}

// serveConn runs once per upgraded connection, in its own goroutine.
func (s *Server) serveConn(conn *websocket.Conn) {
	addr := peerAddr(conn.Request().RemoteAddr)
	handler := lineproto.Echo
	if s.Accept != nil {
		h, err := s.Accept(addr)
		if err != nil {
			glog.V(1).Infof("rejecting %s: %v", addr, err)
			conn.Close()
			return
		}
		handler = h
	}
	sess := newSession(addr, conn, handler, &s.registry, s.OnClose)
	if err := s.registry.Add(addr, sess); err != nil {
		glog.V(1).Infof("rejecting %s: %v", addr, err)
		conn.Close()
		return
	}
	glog.V(1).Infof("accepted %s", addr)
	sess.run()
}

// peerAddr reduces a remote address to the session identity (the host
// part): one concurrent session per peer host.
func peerAddr(remote string) string {
	if host, _, err := net.SplitHostPort(remote); err == nil {
		return host
	}
	return remote
}
