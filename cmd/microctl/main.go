package main

//go-build: CGO_ENABLED=0

import (
	"github.com/microdev-go/microserver.go/pkg/cli/sh"

	_ "github.com/microdev-go/microserver.go/pkg/cli/cmds/env"
)

func main() {
	sh.Main()
}
