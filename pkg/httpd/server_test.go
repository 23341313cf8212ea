package httpd

import (
	"io"
	"io/fs"
	"net"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/require"
)

func testRoot() fs.FS {
	return fstest.MapFS{
		"index.html":    {Data: []byte("<html>home</html>")},
		"led/page.html": {Data: []byte("<html>led</html>")},
	}
}

func startTestServer(t *testing.T, srv *Server) string {
	srv.Port = 0
	_, err := srv.Start()
	require.NoError(t, err)
	t.Cleanup(srv.Stop)
	_, port, err := net.SplitHostPort(srv.ListenAddr().String())
	require.NoError(t, err)
	return net.JoinHostPort("127.0.0.1", port)
}

func request(t *testing.T, addr, raw string) string {
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(2*time.Second)))
	_, err = conn.Write([]byte(raw))
	require.NoError(t, err)
	resp, err := io.ReadAll(conn)
	require.NoError(t, err)
	return string(resp)
}

func TestServeDefaultResource(t *testing.T) {
	srv := &Server{Root: testRoot()}
	addr := startTestServer(t, srv)

	resp := request(t, addr, "GET / HTTP/1.0\r\nHost: example\r\n\r\n")
	require.Equal(t, "HTTP/1.0 200 OK\r\n\r\n<html>home</html>", resp)
}

func TestServeNestedResource(t *testing.T) {
	srv := &Server{Root: testRoot()}
	addr := startTestServer(t, srv)

	resp := request(t, addr, "GET /led/page.html HTTP/1.0\r\n\r\n")
	require.Equal(t, "HTTP/1.0 200 OK\r\n\r\n<html>led</html>", resp)
}

func TestServeConfiguredDefault(t *testing.T) {
	srv := &Server{Root: testRoot(), Default: "/led/page.html"}
	addr := startTestServer(t, srv)

	resp := request(t, addr, "GET / HTTP/1.0\r\n\r\n")
	require.Equal(t, "HTTP/1.0 200 OK\r\n\r\n<html>led</html>", resp)
}

func TestNotFound(t *testing.T) {
	missing := make(chan string, 1)
	srv := &Server{
		Root: testRoot(),
		NotFound: func(path string, w io.Writer) {
			WriteNotFound(w)
			missing <- path
		},
	}
	addr := startTestServer(t, srv)

	resp := request(t, addr, "GET /missing.html HTTP/1.0\r\n\r\n")
	require.Equal(t, "HTTP/1.0 404 Not Found\r\n\r\n", resp)
	select {
	case path := <-missing:
		require.Equal(t, "/missing.html", path)
	case <-time.After(time.Second):
		t.Fatal("not-found hook not invoked")
	}
}

func TestNotFoundDefaultReply(t *testing.T) {
	srv := &Server{Root: testRoot()}
	addr := startTestServer(t, srv)

	resp := request(t, addr, "GET /missing.html HTTP/1.0\r\n\r\n")
	require.Equal(t, "HTTP/1.0 404 Not Found\r\n\r\n", resp)
}

func TestTraversalIsNotFound(t *testing.T) {
	srv := &Server{Root: testRoot()}
	addr := startTestServer(t, srv)

	resp := request(t, addr, "GET /../etc/passwd HTTP/1.0\r\n\r\n")
	require.Equal(t, "HTTP/1.0 404 Not Found\r\n\r\n", resp)
}

func TestSilentOnBadRequests(t *testing.T) {
	srv := &Server{Root: testRoot()}
	addr := startTestServer(t, srv)

	testCases := []struct {
		name string
		raw  string
	}{
		{name: "post", raw: "POST / HTTP/1.0\r\n\r\n"},
		{name: "malformed request line", raw: "GET\r\n\r\n"},
		{name: "empty request line", raw: "\r\n\r\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, "", request(t, addr, tc.raw))
		})
	}
}
