package ctlproto

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/microdev-go/microserver.go/pkg/device"
)

func TestLEDHandler(t *testing.T) {
	testCases := []struct {
		name   string
		lines  []string
		expect []string
	}{
		{
			name:   "on",
			lines:  []string{"LED_ON"},
			expect: []string{"UPDATE 1"},
		},
		{
			name:   "on then off",
			lines:  []string{"LED_ON", "LED_OFF"},
			expect: []string{"UPDATE 1", "UPDATE 0"},
		},
		{
			name:   "stat reports without switching",
			lines:  []string{"LED_ON", "STAT"},
			expect: []string{"UPDATE 1", "UPDATE 1"},
		},
		{
			name:   "unknown request",
			lines:  []string{"BLINK"},
			expect: []string{"UNKNOWN REQUEST: BLINK"},
		},
		{
			name:   "empty line tolerated",
			lines:  []string{""},
			expect: []string{"UNKNOWN REQUEST: "},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := &LEDHandler{LED: &device.SimLED{}}
			for i, line := range tc.lines {
				reply, ok := h.HandleLine(line)
				require.True(t, ok)
				require.Equal(t, tc.expect[i], reply)
			}
			_, ok := h.HandleEnd()
			require.False(t, ok)
		})
	}
}

func TestEnvHandler(t *testing.T) {
	sensor := &device.SimSensor{M: device.Measurement{
		Temperature: 21.5,
		Pressure:    100000,
		Humidity:    45,
	}}
	h := &EnvHandler{LED: &device.SimLED{}, Sensor: sensor}

	// at altitude 0 the sea-level pressure equals the measured pressure
	reply, ok := h.HandleLine("STAT")
	require.True(t, ok)
	require.Equal(t, "UPDATE 0 2150 100000 4500 0", reply)

	reply, _ = h.HandleLine("LED_ON")
	require.Equal(t, "UPDATE 1 2150 100000 4500 0", reply)

	reply, _ = h.HandleLine("SET_ALT 100")
	require.Equal(t, 100, h.Altitude())
	// 100m of altitude raises the sea-level equivalent pressure
	require.Regexp(t, `^UPDATE 1 2150 10\d{4} 4500 100$`, reply)

	reply, _ = h.HandleLine("LED_OFF")
	require.Regexp(t, `^UPDATE 0 `, reply)
}

func TestEnvHandlerBadRequests(t *testing.T) {
	h := &EnvHandler{LED: &device.SimLED{}, Sensor: device.NewSimSensor()}
	for _, line := range []string{"", "NOPE", "SET_ALT", "SET_ALT x"} {
		reply, ok := h.HandleLine(line)
		require.True(t, ok)
		require.Equal(t, "UNKNOWN REQUEST: "+line, reply)
	}
}

type failingSensor struct{}

func (failingSensor) Measure() (device.Measurement, error) {
	return device.Measurement{}, errors.New("bus timeout")
}

func TestEnvHandlerSensorError(t *testing.T) {
	h := &EnvHandler{LED: &device.SimLED{}, Sensor: failingSensor{}}
	reply, ok := h.HandleLine("STAT")
	require.True(t, ok)
	require.Equal(t, "ERROR bus timeout", reply)
}
