package commands

import (
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sitepub/internal/cli"
	"git.home.luguber.info/inful/sitepub/internal/lint"
)

// LintCmd implements the 'lint' command.
type LintCmd struct {
	Format    string `short:"f" default:"text" enum:"text,json" help:"Output format (text or json)"`
	Quiet     bool   `short:"q" help:"Only show errors, suppress warnings"`
	OutputDir string `help:"Also scan this generated output tree for broken internal links"`
}

func (l *LintCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	repoRoot, err := root.repoRoot()
	if err != nil {
		return err
	}

	linter := lint.NewLinter(filepath.Join(repoRoot, cfg.Content.Directory))
	result, err := linter.Run()
	if err != nil {
		return err
	}

	if l.OutputDir != "" {
		outputResult, err := linter.CheckOutput(l.OutputDir)
		if err != nil {
			return err
		}
		result.Issues = append(result.Issues, outputResult.Issues...)
	}

	if err := lint.Format(os.Stdout, result, l.Format, l.Quiet); err != nil {
		return err
	}
	if result.HasErrors() {
		return cli.LintError(result.ErrorCount())
	}
	return nil
}
