package main

import (
	"fmt"
	"os"

	_ "go.uber.org/automaxprocs"

	"github.com/trailwatch-io/trailwatch/cmd/twatch-agent/app"
)

func main() {
	if err := app.NewAgentCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
