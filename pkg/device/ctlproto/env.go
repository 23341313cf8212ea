package ctlproto

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/microdev-go/microserver.go/pkg/device"
)

// EnvHandler serves the combined LED and environment-sensor protocol:
//
//	LED_ON      -> switch the LED on
//	LED_OFF     -> switch the LED off
//	SET_ALT <m> -> set the sensor altitude in meters
//	STAT        -> report only
//
// Every recognized command is answered with
// "UPDATE <led> <temp> <press> <hum> <alt>": LED state, temperature in
// 1/100 degC, sea-level pressure in Pa, relative humidity in 1/100 %,
// altitude in meters. The handler may be shared between sessions and the
// MQTT bridge; its state is internally serialized.
type EnvHandler struct {
	LED    device.LED
	Sensor device.Sensor

	lock     sync.Mutex
	altitude int
}

// Altitude returns the configured sensor altitude in meters.
func (h *EnvHandler) Altitude() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return h.altitude
}

// HandleLine implements lineproto.Handler.
func (h *EnvHandler) HandleLine(line string) (string, bool) {
	h.lock.Lock()
	defer h.lock.Unlock()
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "UNKNOWN REQUEST: " + line, true
	}
	switch fields[0] {
	case "LED_ON":
		h.LED.On()
	case "LED_OFF":
		h.LED.Off()
	case "SET_ALT":
		if len(fields) < 2 {
			return "UNKNOWN REQUEST: " + line, true
		}
		alt, err := strconv.Atoi(fields[1])
		if err != nil {
			return "UNKNOWN REQUEST: " + line, true
		}
		h.altitude = alt
	case "STAT":
	default:
		return "UNKNOWN REQUEST: " + line, true
	}
	return h.status()
}

// HandleEnd implements lineproto.Handler.
func (h *EnvHandler) HandleEnd() (string, bool) { return "", false }

func (h *EnvHandler) status() (string, bool) {
	m, err := h.Sensor.Measure()
	if err != nil {
		return "ERROR " + err.Error(), true
	}
	press := device.SealevelPressure(m, float64(h.altitude))
	return fmt.Sprintf("UPDATE %d %d %d %d %d",
		h.LED.Value(),
		int(math.Round(m.Temperature*100)),
		int(math.Round(press)),
		int(math.Round(m.Humidity*100)),
		h.altitude), true
}
