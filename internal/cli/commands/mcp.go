package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/kutbudev/crud-docs/internal/mcp"
)

func NewMcpCommand(version string) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "MCP (Model Context Protocol) server for the crud API",
		Subcommands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Start MCP server (stdio)",
				Action: func(c *cli.Context) error {
					return mcp.ServeStdio(c.Context, newClient(c), version)
				},
			},
			{
				Name:  "config",
				Usage: "Print MCP config examples for clients",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "client",
						Aliases: []string{"c"},
						Usage:   "target client (generic|codex)",
						Value:   "generic",
					},
				},
				Action: func(c *cli.Context) error {
					switch strings.ToLower(c.String("client")) {
					case "codex":
						printCodexConfig(c.String("url"))
					default:
						printGenericConfig(c.String("url"))
					}
					return nil
				},
			},
		},
	}
}

func serveArgs(url string) []string {
	if url == "" {
		return []string{"mcp", "serve"}
	}
	return []string{"--url", url, "mcp", "serve"}
}

func printGenericConfig(url string) {
	cfg := map[string]interface{}{
		"mcpServers": map[string]interface{}{
			"crudctl": map[string]interface{}{
				"command": "crudctl",
				"args":    serveArgs(url),
			},
		},
	}
	b, _ := json.MarshalIndent(cfg, "", "  ")
	fmt.Println(string(b))
}

func printCodexConfig(url string) {
	args := serveArgs(url)
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = fmt.Sprintf("%q", a)
	}
	fmt.Println("# Add the following to ~/.codex/config.toml (merge with existing settings)")
	fmt.Println("[mcp_servers.crudctl]")
	fmt.Println("command = \"crudctl\"")
	fmt.Printf("args = [%s]\n", strings.Join(quoted, ", "))
	fmt.Println("enabled = true")
}
