package commands

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/kutbudev/crud-docs/internal/config"
)

// NewConfigCommand manages ~/.crudctl/config.json
func NewConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage crudctl configuration",
		Subcommands: []*cli.Command{
			{
				Name:      "set-url",
				Usage:     "Set the default API base URL",
				ArgsUsage: "[url]",
				Action: func(c *cli.Context) error {
					raw := c.Args().First()
					if err := promptIfEmpty(&raw, "API base URL:"); err != nil {
						return err
					}
					u, err := url.Parse(strings.TrimSpace(raw))
					if err != nil || u.Scheme == "" || u.Host == "" {
						return fmt.Errorf("invalid URL %q", raw)
					}
					return updateConfig(func(cfg *config.Config) {
						cfg.BaseURL = strings.TrimRight(u.String(), "/")
					})
				},
			},
			{
				Name:      "set-snippets-dir",
				Usage:     "Set the default snippet directory",
				ArgsUsage: "[dir]",
				Action: func(c *cli.Context) error {
					if c.NArg() == 0 {
						return fmt.Errorf("directory is required")
					}
					return updateConfig(func(cfg *config.Config) {
						cfg.SnippetsDir = c.Args().First()
					})
				},
			},
			{
				Name:  "show",
				Usage: "Show the current configuration",
				Action: func(c *cli.Context) error {
					cfg, err := config.LoadConfig()
					if err != nil {
						return err
					}
					path, _ := config.GetConfigPath()
					fmt.Println(dimStyle.Render(path))
					fmt.Printf("base_url:     %s\n", orDefault(cfg.BaseURL, "(default)"))
					fmt.Printf("snippets_dir: %s\n", orDefault(cfg.SnippetsDir, defaultSnippetsDir))
					return nil
				},
			},
		},
	}
}

func updateConfig(change func(cfg *config.Config)) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	change(cfg)
	if err := config.SaveConfig(cfg); err != nil {
		return fmt.Errorf("error saving config: %w", err)
	}
	fmt.Println(okStyle.Render("✅ Configuration saved"))
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
