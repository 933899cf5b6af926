package commands

import (
	"fmt"
	"os"
)

// CleanCmd implements the 'clean' command.
type CleanCmd struct{}

func (c *CleanCmd) Run(_ *Global, root *CLI) error {
	rt, err := root.newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.pub.Clean(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "output tree cleared: %s\n", rt.pub.OutputDir())
	return nil
}
