package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/atinyakov/mycraft/internal/cli"
)

var (
	version   string
	buildDate string
)

// main runs the mycraft command line and exits with its status.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, cli.Build{Version: version, Date: buildDate}, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
