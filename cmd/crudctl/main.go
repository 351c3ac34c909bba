package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/kutbudev/crud-docs/internal/cli/commands"
)

// Version will be set during build with ldflags
var Version = "0.1.0"

func main() {
	app := &cli.App{
		Name:    "crudctl",
		Usage:   "Operate the crud API and its documentation snippets",
		Version: Version,
		Flags:   []cli.Flag{commands.URLFlag},
		Commands: []*cli.Command{
			commands.NewCrudCommand(),
			commands.NewTagCommand(),
			commands.NewDocsCommand(),

			// Meta
			commands.NewMcpCommand(Version),
			commands.NewConfigCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
