// Package sh provides the ishell backed interactive client for the
// websocket control channel.
package sh

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"

	"github.com/abiosoft/ishell"
	"golang.org/x/net/websocket"

	"github.com/microdev-go/microserver.go/pkg/lineproto"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	AutoConnect bool

	Shell *ishell.Shell
	URL   string
	Token string
	Conn  *Conn
}

// Conn is one live control-channel connection.
type Conn struct {
	URL string
	WS  *websocket.Conn
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
	dialOrigin        = "http://localhost/"
)

var (
	// flags

	evalOnly   bool
	serverURL  string
	tokenValue string

	// commands
	commands = []*ishell.Cmd{
		&ConnectCmd,
		&DisconnectCmd,
		&SendCmd,
		&EndCmd,
	}
)

func init() {
	if val := os.Getenv("MICROCTL_URL"); val != "" {
		serverURL = val
	}
	if val := os.Getenv("MICROCTL_TOKEN"); val != "" {
		tokenValue = val
	}
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.StringVar(&serverURL, "url", serverURL, "Server URL (ws://host:port).")
	flag.StringVar(&tokenValue, "token", tokenValue, "Access token.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New() *Shell {
	s := &Shell{
		Interactive: !evalOnly,

		Shell: ishell.New(),
		URL:   serverURL,
		Token: tokenValue,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Conn == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Connect dials the control channel, presenting token when non-empty.
// An existing connection is dropped first.
func (s *Shell) Connect(rawURL, token string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if token != "" {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}
	ws, err := websocket.Dial(u.String(), "", dialOrigin)
	if err != nil {
		return err
	}
	s.Disconnect()
	conn := &Conn{URL: rawURL, WS: ws}
	s.Conn = conn
	go s.readLoop(conn)
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", u.Host))
	return nil
}

// Disconnect drops the current connection.
func (s *Shell) Disconnect() {
	if s.Conn != nil {
		s.Conn.WS.Close()
		s.Conn = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Send writes one request line over the current connection.
func (s *Shell) Send(line string) error {
	if s.Conn == nil {
		return fmt.Errorf("not connected")
	}
	_, err := s.Conn.WS.Write([]byte(line + "\r\n"))
	return err
}

// End asks the server to end the session.
func (s *Shell) End() error {
	if s.Conn == nil {
		return fmt.Errorf("not connected")
	}
	_, err := s.Conn.WS.Write([]byte{lineproto.ETX})
	return err
}

// readLoop prints server lines until the connection drops. Replies and
// unsolicited lines share the channel, so everything is printed as it
// arrives.
func (s *Shell) readLoop(conn *Conn) {
	br := bufio.NewReader(conn.WS)
	for {
		line, err := br.ReadString('\n')
		if line = strings.TrimRight(line, "\r\n"); line != "" {
			s.Shell.Println(line)
		}
		if err != nil {
			break
		}
	}
	if s.Conn == conn {
		s.Conn = nil
		s.Shell.SetPrompt(unconnectedPrompt)
		if s.Interactive {
			s.Shell.Println("disconnected")
		}
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect && s.URL != "" {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.URL)
		}
		if err := s.Connect(s.URL, s.Token); err != nil {
			log.Fatalf("connect %q failed: %v", s.URL, err)
		}
	}

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// ConnectCmd connects the control channel.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "URL [TOKEN]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			rawURL, token := s.URL, s.Token
			if len(c.Args) >= 1 {
				rawURL = c.Args[0]
			}
			if len(c.Args) >= 2 {
				token = c.Args[1]
			}
			if rawURL == "" {
				c.Err(fmt.Errorf("URL required"))
				return
			}
			if err := s.Connect(rawURL, token); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd drops the connection.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: MustBeConnected(func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		}),
	}

	// SendCmd sends a raw request line.
	SendCmd = ishell.Cmd{
		Name:    "send",
		Aliases: []string{"s"},
		Help:    "LINE...",
		Func: MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) == 0 {
				c.Err(fmt.Errorf("LINE required"))
				return
			}
			if err := ShellFrom(c).Send(strings.Join(c.Args, " ")); err != nil {
				c.Err(err)
			}
		}),
	}

	// EndCmd ends the session on the server side.
	EndCmd = ishell.Cmd{
		Name:    "close",
		Aliases: []string{"end"},
		Help:    "",
		Func: MustBeConnected(func(c *ishell.Context) {
			if err := ShellFrom(c).End(); err != nil {
				c.Err(err)
			}
		}),
	}
)

// Main is the entry point shared by client binaries.
func Main() {
	flag.Parse()
	New().WithAutoConnect(true).Run(flag.Args()...)
}
