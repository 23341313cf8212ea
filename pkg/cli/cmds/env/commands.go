// Package env provides shell commands for the environment device
// protocol.
package env

import (
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/microdev-go/microserver.go/pkg/cli/sh"
)

var (
	// LEDOnCmd turns the LED on.
	LEDOnCmd = ishell.Cmd{
		Name: "on",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if err := sh.ShellFrom(c).Send("LED_ON"); err != nil {
				c.Err(err)
			}
		}),
	}

	// LEDOffCmd turns the LED off.
	LEDOffCmd = ishell.Cmd{
		Name: "off",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if err := sh.ShellFrom(c).Send("LED_OFF"); err != nil {
				c.Err(err)
			}
		}),
	}

	// StatCmd queries device status.
	StatCmd = ishell.Cmd{
		Name: "stat",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if err := sh.ShellFrom(c).Send("STAT"); err != nil {
				c.Err(err)
			}
		}),
	}

	// SetAltCmd sets the sensor altitude.
	SetAltCmd = ishell.Cmd{
		Name: "set-alt",
		Help: "METERS",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("METERS required"))
				return
			}
			if _, err := strconv.Atoi(c.Args[0]); err != nil {
				c.Err(fmt.Errorf("Invalid METERS: %v", err))
				return
			}
			if err := sh.ShellFrom(c).Send("SET_ALT " + c.Args[0]); err != nil {
				c.Err(err)
			}
		}),
	}
)

func init() {
	sh.AddCmds(
		&LEDOnCmd,
		&LEDOffCmd,
		&StatCmd,
		&SetAltCmd,
	)
}
