// Package ctlproto implements the device control protocols spoken over
// the line channel: text commands in, text status updates out.
package ctlproto

import (
	"fmt"

	"github.com/microdev-go/microserver.go/pkg/device"
)

// LEDHandler serves the LED control protocol:
//
//	LED_ON  -> switch the LED on
//	LED_OFF -> switch the LED off
//	STAT    -> report the LED state
//
// Every recognized command is answered with "UPDATE <v>" where <v> is the
// LED state after the command; anything else is answered with
// "UNKNOWN REQUEST: <line>".
type LEDHandler struct {
	LED device.LED
}

// HandleLine implements lineproto.Handler.
func (h *LEDHandler) HandleLine(line string) (string, bool) {
	switch line {
	case "LED_ON":
		h.LED.On()
	case "LED_OFF":
		h.LED.Off()
	case "STAT":
	default:
		return "UNKNOWN REQUEST: " + line, true
	}
	return fmt.Sprintf("UPDATE %d", h.LED.Value()), true
}

// HandleEnd implements lineproto.Handler.
func (h *LEDHandler) HandleEnd() (string, bool) { return "", false }
