// Package lineproto implements the line-oriented text protocol carried
// over an upgraded socket channel.
package lineproto

// The protocol is newline-or-CR-terminated text lines from the client,
// CR-LF-terminated replies from the server, and a single ETX byte (0x03)
// from the client to end the session instead of sending more lines.
//
// Producer: browser-side or CLI clients
// Consumer: device protocol handlers
