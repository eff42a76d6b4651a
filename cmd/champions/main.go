// Command champions ranks ChatGPT champions from a weekly export without
// running the server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/brianfmorissette/chatgpt-champion/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCommand(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		os.Stderr.WriteString("champions: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}
