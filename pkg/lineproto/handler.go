package lineproto

// Handler processes decoded lines for one session.
//
// A handler is bound to a session when the connection is admitted and
// receives every line in arrival order. Handlers must tolerate empty
// lines, and overlong input split by the decoder's forced flush.
type Handler interface {
	// HandleLine processes one request line and returns the reply to
	// send back. ok reports whether a reply should be written; the
	// transport appends the CR-LF terminator, handlers must not.
	HandleLine(line string) (reply string, ok bool)
	// HandleEnd is called at most once, when the peer explicitly ends
	// the session with the control byte, before the transport is
	// closed, so the handler may produce a farewell.
	HandleEnd() (farewell string, ok bool)
}

// HandlerFunc adapts a line-processing func to Handler. The adapted
// handler produces no farewell on session end.
type HandlerFunc func(line string) (string, bool)

// HandleLine implements Handler.
func (f HandlerFunc) HandleLine(line string) (string, bool) { return f(line) }

// HandleEnd implements Handler.
func (f HandlerFunc) HandleEnd() (string, bool) { return "", false }

// Echo replies every line back unchanged. It is the handler used when
// no admission policy is configured.
var Echo Handler = HandlerFunc(func(line string) (string, bool) {
	return line, true
})
