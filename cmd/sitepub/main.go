package main

import (
	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitepub/cmd/sitepub/commands"
	"git.home.luguber.info/inful/sitepub/internal/cli"
	"git.home.luguber.info/inful/sitepub/internal/version"
)

func main() {
	var root commands.CLI
	ctx := kong.Parse(&root,
		kong.Name("sitepub"),
		kong.Description("Build a static site from authored content and publish it as a git revision."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	if err := ctx.Run(&commands.Global{}, &root); err != nil {
		cli.Exit(err)
	}
}
