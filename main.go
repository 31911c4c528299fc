package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func App() *cli.App {
	return &cli.App{
		Name:      "histweb",
		Usage:     "mirror a git repository and render its history as static pages",
		ArgsUsage: "<outdir>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "project",
				Usage: "pretty name for the repository (default: last path element of --repo)",
			},
			&cli.StringFlag{
				Name:    "repo",
				Aliases: []string{"r"},
				Usage:   "source repository (path or URL); persisted beside the output tree after the first run",
			},
			&cli.StringFlag{
				Name:  "desc",
				Usage: "description shown on the index page",
			},
			&cli.StringFlag{
				Name:  "clone-url",
				Usage: "public clone URL shown on the index page",
			},
			&cli.StringSliceFlag{
				Name:    "branch",
				Aliases: []string{"b"},
				Usage:   "branch to process (repeatable; default: every head in the mirror)",
			},
			&cli.IntFlag{
				Name:  "max-commits",
				Usage: "maximum number of commits to walk per branch",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "only log warnings and errors",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "invalidate and rebuild every generated page",
			},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one output directory argument, see --help")
	}
	outdir, err := filepath.Abs(c.Args().First())
	if err != nil {
		return err
	}

	logger, err := newLogger(c.Bool("quiet"))
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg, err := LoadRunConfig(outdir, Overrides{
		Project:    c.String("project"),
		Desc:       c.String("desc"),
		Repository: c.String("repo"),
		CloneURL:   c.String("clone-url"),
		Branches:   c.StringSlice("branch"),
		MaxCommits: c.Int("max-commits"),
		Quiet:      c.Bool("quiet"),
		Force:      c.Bool("force"),
	})
	if err != nil {
		return err
	}

	return NewSite(cfg, logger).Run()
}

func newLogger(quiet bool) (*zap.SugaredLogger, error) {
	zcfg := zap.NewProductionConfig()
	if quiet {
		zcfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	lg, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return lg.Sugar(), nil
}

func main() {
	if err := App().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("Error:"), err)
		os.Exit(1)
	}
}
