package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// BuildCmd implements the 'build' command: clean and regenerate without
// touching revision history. Useful as a CI dry-run.
type BuildCmd struct{}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	rt, err := root.newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rt.pub.Clean(); err != nil {
		return err
	}
	if err := rt.pub.Build(ctx); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "site generated into %s\n", rt.pub.OutputDir())
	return nil
}
