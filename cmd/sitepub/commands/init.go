package commands

import (
	"fmt"
	"os"

	"git.home.luguber.info/inful/sitepub/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	if err := config.Init(root.Config, i.Force); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "configuration written to %s\n", root.Config)
	return nil
}
