// Package httpd serves static resources over a minimal HTTP/1.0 subset:
// GET only, a literal status line, no headers, no keep-alive. Each
// connection carries exactly one request and is closed afterwards.
package httpd

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"net"
	"strconv"
	"strings"

	"github.com/golang/glog"

	"github.com/microdev-go/microserver.go/pkg/netinfo"
)

// Defaults for construction-time parameters.
const (
	DefaultPort     = 80
	DefaultResource = "/index.html"
)

// Wire-format status lines. The contract fixes these bytes exactly.
const (
	statusOK       = "HTTP/1.0 200 OK\r\n\r\n"
	statusNotFound = "HTTP/1.0 404 Not Found\r\n\r\n"
)

// NotFoundFunc handles a missing resource. It replaces the default reply
// entirely; implementations that only want to augment it (e.g. to log)
// should call WriteNotFound themselves.
type NotFoundFunc func(path string, w io.Writer)

// Server is the static resource server. It keeps no client registry;
// connections are self-contained and short-lived.
type Server struct {
	// Port to listen on; 0 picks an ephemeral port.
	Port int
	// Root is the resource tree. Required.
	Root fs.FS
	// Default is the resource served for "/"; "" means DefaultResource.
	Default string
	// NotFound replaces the missing-resource reply; may be nil.
	NotFound NotFoundFunc

	listener net.Listener
}

// NewServer creates a Server with the default port for the given root.
func NewServer(root fs.FS) *Server {
	return &Server{Port: DefaultPort, Root: root, Default: DefaultResource}
}

// ListenAddr returns the bound listener address, or nil when stopped.
func (s *Server) ListenAddr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start binds the listening socket and serves requests in the background.
// It returns the connection URI derived from the active network
// interface, or "" when no interface is active.
func (s *Server) Start() (string, error) {
	s.Stop()
	ln, err := net.Listen("tcp", net.JoinHostPort("0.0.0.0", strconv.Itoa(s.Port)))
	if err != nil {
		return "", err
	}
	s.listener = ln
	go s.acceptLoop(ln)
	glog.Infof("http server listening on %s", ln.Addr())
	ip := netinfo.AdvertiseIP()
	if ip == "" {
		return "", nil
	}
	return fmt.Sprintf("http://%s:%d", ip, ln.Addr().(*net.TCPAddr).Port), nil
}

// Stop closes the listening socket. In-flight connections finish on
// their own; they are single-shot by construction.
func (s *Server) Stop() {
	if s.listener != nil {
		s.listener.Close()
		s.listener = nil
	}
}

func (s *Server) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			glog.V(1).Infof("http server stopped: %v", err)
			return
		}
		go s.serveConn(conn)
	}
}

// serveConn handles one single-shot request. A malformed request line or
// a method other than GET produces no response bytes at all.
func (s *Server) serveConn(conn net.Conn) {
	defer conn.Close()
	br := bufio.NewReader(conn)
	reqLine, err := readLine(br)
	if err != nil {
		return
	}
	// discard header lines up to the blank separator
	for {
		line, err := readLine(br)
		if err != nil || line == "" {
			break
		}
	}

	fields := strings.Fields(reqLine)
	if len(fields) < 2 || fields[0] != "GET" {
		return
	}
	path := fields[1]
	if path == "/" {
		path = s.Default
		if path == "" {
			path = DefaultResource
		}
	}
	f, err := s.Root.Open(strings.TrimPrefix(path, "/"))
	if err != nil {
		s.notFound(path, conn)
		return
	}
	defer f.Close()
	if _, err := io.WriteString(conn, statusOK); err != nil {
		return
	}
	if _, err := io.Copy(conn, f); err != nil {
		glog.V(1).Infof("stream %s: %v", path, err)
	}
}

func (s *Server) notFound(path string, w io.Writer) {
	if s.NotFound != nil {
		s.NotFound(path, w)
		return
	}
	WriteNotFound(w)
}

// WriteNotFound writes the standard missing-resource reply.
func WriteNotFound(w io.Writer) {
	io.WriteString(w, statusNotFound)
}

func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
