package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/kutbudev/crud-docs/internal/config"
	"github.com/kutbudev/crud-docs/internal/restdocs"
	"github.com/kutbudev/crud-docs/internal/scenario"
)

const defaultSnippetsDir = "target/generated-snippets"

// NewDocsCommand creates the 'docs' command group.
func NewDocsCommand() *cli.Command {
	return &cli.Command{
		Name:  "docs",
		Usage: "Generate and read API documentation snippets",
		Subcommands: []*cli.Command{
			docsGenerateCmd(),
			docsShowCmd(),
		},
	}
}

func snippetsDirFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "out",
		Aliases: []string{"o"},
		Usage:   "snippet directory",
		EnvVars: []string{"SNIPPETS_DIR"},
	}
}

func snippetsDir(c *cli.Context) string {
	if dir := c.String("out"); dir != "" {
		return dir
	}
	if cfg, err := config.LoadConfig(); err == nil && cfg.SnippetsDir != "" {
		return cfg.SnippetsDir
	}
	return defaultSnippetsDir
}

func docsGenerateCmd() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Run the documented request sequence against the API and write snippets",
		Flags: []cli.Flag{snippetsDirFlag()},
		Action: func(c *cli.Context) error {
			dir := snippetsDir(c)
			client := newClient(c)

			runner := scenario.NewRunner(client.BaseURL, restdocs.NewRecorder(dir))
			steps, err := runner.Run(c.Context)

			ok := color.New(color.FgGreen).SprintFunc()
			fail := color.New(color.FgRed, color.Bold).SprintFunc()
			for _, step := range steps {
				if step.Err != nil {
					fmt.Printf("%s %-22s %d  %v\n", fail("✗"), step.Name, step.Status, step.Err)
					continue
				}
				fmt.Printf("%s %-22s %d\n", ok("✓"), step.Name, step.Status)
			}
			if err != nil {
				return err
			}

			color.Cyan("Snippets written to %s", dir)
			return nil
		},
	}
}

func docsShowCmd() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Render a generated snippet, or pick an operation when none is named",
		ArgsUsage: "[operation] [snippet]",
		Flags: []cli.Flag{
			snippetsDirFlag(),
			&cli.BoolFlag{Name: "copy", Usage: "copy the raw snippet to the clipboard"},
			&cli.BoolFlag{Name: "raw", Usage: "print asciidoc without rendering"},
		},
		Action: func(c *cli.Context) error {
			dir := snippetsDir(c)

			operation := c.Args().Get(0)
			if operation == "" {
				ops, err := restdocs.ReadIndex(dir)
				if err != nil {
					return fmt.Errorf("no snippet index in %s, run 'crudctl docs generate' first: %w", dir, err)
				}
				if c.Bool("raw") || !isInteractive() {
					for _, op := range ops {
						fmt.Printf("%s  %s\n", titleStyle.Render(op.Name), dimStyle.Render(strings.Join(op.Snippets, ", ")))
					}
					return nil
				}
				if operation, err = pickOperation(ops); err != nil || operation == "" {
					return err
				}
			}

			snippet := c.Args().Get(1)
			if snippet == "" {
				snippet = "http-request"
			}

			data, err := os.ReadFile(filepath.Join(dir, operation, snippet+".adoc"))
			if err != nil {
				return fmt.Errorf("error reading snippet: %w", err)
			}

			if c.Bool("copy") {
				if err := clipboard.WriteAll(string(data)); err != nil {
					return fmt.Errorf("error copying to clipboard: %w", err)
				}
				fmt.Fprintln(os.Stderr, okStyle.Render("📋 Copied to clipboard"))
			}

			if c.Bool("raw") || !isInteractive() {
				fmt.Print(string(data))
				return nil
			}

			renderer, err := glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(terminalWidth()),
			)
			if err != nil {
				return err
			}
			out, err := renderer.Render(AsciidocToMarkdown(string(data)))
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}
}

// AsciidocToMarkdown converts the subset of asciidoc the snippets use:
// listing blocks, tables and the block title line.
func AsciidocToMarkdown(doc string) string {
	lines := strings.Split(strings.TrimRight(doc, "\n"), "\n")

	var (
		out      []string
		lang     string
		inSource bool
		inTable  bool
		header   []string
		row      []string
		rows     [][]string
	)

	for _, line := range lines {
		switch {
		case inSource:
			if line == "----" {
				out = append(out, "```")
				inSource = false
				continue
			}
			out = append(out, line)

		case inTable:
			if line == "|===" {
				out = append(out, markdownTable(header, rows)...)
				inTable, header, rows = false, nil, nil
				continue
			}
			if line == "" {
				if len(row) > 0 {
					rows = append(rows, row)
					row = nil
				}
				continue
			}
			cells := strings.Split(strings.TrimPrefix(line, "|"), "|")
			if header == nil {
				header = cells
				continue
			}
			row = append(row, cells...)
			if len(row) == len(header) {
				rows = append(rows, row)
				row = nil
			}

		case strings.HasPrefix(line, "[source"):
			lang = sourceLanguage(line)

		case line == "----":
			out = append(out, "```"+lang)
			inSource, lang = true, ""

		case line == "|===":
			inTable = true

		case strings.HasPrefix(line, ".") && strings.HasSuffix(line, "+"):
			out = append(out, "**"+strings.Trim(line, ".+")+"**", "")

		default:
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n") + "\n"
}

func sourceLanguage(attrs string) string {
	parts := strings.Split(strings.Trim(attrs, "[]"), ",")
	if len(parts) > 1 && !strings.Contains(parts[1], "=") {
		return parts[1]
	}
	return ""
}

func markdownTable(header []string, rows [][]string) []string {
	out := []string{
		"| " + strings.Join(header, " | ") + " |",
		"|" + strings.Repeat(" --- |", len(header)),
	}
	for _, row := range rows {
		out = append(out, "| "+strings.Join(row, " | ")+" |")
	}
	return out
}
