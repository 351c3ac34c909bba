package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/kutbudev/crud-docs/internal/api"
)

// Helper functions shared across commands

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// URLFlag is the global flag selecting the API base URL
var URLFlag = &cli.StringFlag{
	Name:    "url",
	Usage:   "crud API base URL",
	EnvVars: []string{"CRUD_API_URL"},
}

func newClient(c *cli.Context) *api.Client {
	return api.NewClient(c.String("url"))
}

func stringPtr(s string) *string {
	return &s
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func parseIDArg(c *cli.Context, what string) (uint, error) {
	if c.NArg() == 0 {
		return 0, fmt.Errorf("%s ID is required", what)
	}
	id, err := strconv.ParseUint(c.Args().First(), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s ID %q", what, c.Args().First())
	}
	return uint(id), nil
}

func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

// promptIfEmpty asks for value on a terminal when it was not given as a flag
func promptIfEmpty(value *string, message string) error {
	if strings.TrimSpace(*value) != "" || !isInteractive() {
		return nil
	}
	return survey.AskOne(&survey.Input{Message: message}, value, survey.WithValidator(survey.Required))
}

func confirm(message string) (bool, error) {
	if !isInteractive() {
		return true, nil
	}
	ok := false
	err := survey.AskOne(&survey.Confirm{Message: message, Default: false}, &ok)
	return ok, err
}
