package commands

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
)

// NewTagCommand creates all subcommands for the 'tag' command group.
func NewTagCommand() *cli.Command {
	return &cli.Command{
		Name:  "tag",
		Usage: "Manage tags",
		Subcommands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Create a tag, optionally appending it to a crud resource",
				ArgsUsage: "[name]",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "crud", Usage: "crud id to append the tag to"},
					&cli.StringFlag{Name: "method", Value: "patch", Usage: "update used to append: patch|put"},
				},
				Action: tagCreate,
			},
			{
				Name:      "show",
				Usage:     "Show a tag by id or location",
				ArgsUsage: "[tag-id|location]",
				Action: func(c *cli.Context) error {
					if c.NArg() == 0 {
						return fmt.Errorf("tag ID or location is required")
					}
					tag, err := newClient(c).GetTag(c.Context, c.Args().First())
					if err != nil {
						return fmt.Errorf("error getting tag: %w", err)
					}
					fmt.Println(titleStyle.Render(fmt.Sprintf("Tag %d", tag.ID)))
					fmt.Printf("Name: %s\n", tag.Name)
					fmt.Println(dimStyle.Render("Self: " + tag.Links["self"].Href))
					return nil
				},
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List all tags",
				Action: func(c *cli.Context) error {
					tags, err := newClient(c).ListTags(c.Context)
					if err != nil {
						return fmt.Errorf("error listing tags: %w", err)
					}
					if len(tags) == 0 {
						fmt.Println("No tags found.")
						return nil
					}
					w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
					fmt.Fprintln(w, "ID\tNAME\tLOCATION")
					fmt.Fprintln(w, "--\t----\t--------")
					for _, tag := range tags {
						fmt.Fprintf(w, "%d\t%s\t%s\n", tag.ID, tag.Name, tag.Links["self"].Href)
					}
					return w.Flush()
				},
			},
		},
	}
}

func tagCreate(c *cli.Context) error {
	name := c.Args().First()
	if err := promptIfEmpty(&name, "Tag name:"); err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("tag name is required")
	}

	client := newClient(c)
	if crudID := c.Uint("crud"); crudID != 0 {
		method := strings.ToUpper(c.String("method"))
		if method != http.MethodPatch && method != http.MethodPut {
			return fmt.Errorf("--method must be patch or put")
		}
		location, err := client.AttachTag(c.Context, method, crudID, name)
		if err != nil {
			return fmt.Errorf("error appending tag to crud %d: %w", crudID, err)
		}
		fmt.Println(okStyle.Render(fmt.Sprintf("✅ Tag '%s' appended to crud %d", name, crudID)))
		fmt.Println(dimStyle.Render("Location: " + location))
		return nil
	}

	tag, location, err := client.CreateTag(c.Context, name)
	if err != nil {
		return fmt.Errorf("error creating tag: %w", err)
	}
	fmt.Println(okStyle.Render(fmt.Sprintf("✅ Tag '%s' created (id %d)", tag.Name, tag.ID)))
	fmt.Println(dimStyle.Render("Location: " + location))
	return nil
}
