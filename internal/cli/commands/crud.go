package commands

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/kutbudev/crud-docs/api/handlers"
	"github.com/kutbudev/crud-docs/internal/api"
)

// NewCrudCommand creates all subcommands for the 'crud' command group.
func NewCrudCommand() *cli.Command {
	return &cli.Command{
		Name:    "crud",
		Aliases: []string{"c"},
		Usage:   "Manage crud resources",
		Subcommands: []*cli.Command{
			crudListCmd(),
			crudShowCmd(),
			crudCreateCmd(),
			crudPatchCmd(),
			crudPutCmd(),
			crudDeleteCmd(),
		},
	}
}

func crudListCmd() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List crud resources",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "only resources with this exact title"},
		},
		Action: func(c *cli.Context) error {
			cruds, err := newClient(c).ListCrud(c.Context, c.String("title"))
			if err != nil {
				return fmt.Errorf("error listing crud resources: %w", err)
			}

			if len(cruds) == 0 {
				fmt.Println("No crud resources found. Use 'crudctl crud create' to add one.")
				return nil
			}

			bodyWidth := 40
			if w := terminalWidth(); w > 120 {
				bodyWidth = w - 80
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tBODY\tTAGS")
			fmt.Fprintln(w, "--\t-----\t----\t----")
			for _, crud := range cruds {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\n",
					crud.ID,
					truncateString(crud.Title, 30),
					truncateString(crud.Body, bodyWidth),
					len(crud.Tags))
			}
			return w.Flush()
		},
	}
}

func crudShowCmd() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a crud resource",
		ArgsUsage: "[crud-id]",
		Action: func(c *cli.Context) error {
			id, err := parseIDArg(c, "crud")
			if err != nil {
				return err
			}
			crud, err := newClient(c).GetCrud(c.Context, id)
			if err != nil {
				return fmt.Errorf("error getting crud %d: %w", id, err)
			}
			printCrud(crud)
			return nil
		},
	}
}

func crudFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "resource title"},
		&cli.StringFlag{Name: "body", Aliases: []string{"b"}, Usage: "resource body"},
		&cli.StringSliceFlag{Name: "tag", Usage: "tag location or id (repeatable)"},
	}
}

func crudCreateCmd() *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Create a crud resource",
		Flags: crudFlags(),
		Action: func(c *cli.Context) error {
			in := api.CrudInput{Title: c.String("title"), Body: c.String("body"), Tags: tagRefs(c.StringSlice("tag"))}
			if err := promptIfEmpty(&in.Title, "Title:"); err != nil {
				return err
			}
			if err := promptIfEmpty(&in.Body, "Body:"); err != nil {
				return err
			}

			crud, location, err := newClient(c).CreateCrud(c.Context, in)
			if err != nil {
				return fmt.Errorf("error creating crud: %w", err)
			}

			fmt.Println(okStyle.Render(fmt.Sprintf("✅ Crud %d created", crud.ID)))
			fmt.Println(dimStyle.Render("Location: " + location))
			return nil
		},
	}
}

func crudPatchCmd() *cli.Command {
	flags := append(crudFlags(), &cli.BoolFlag{Name: "clear-tags", Usage: "remove every tag"})
	return &cli.Command{
		Name:      "patch",
		Usage:     "Change only the given fields of a crud resource",
		ArgsUsage: "[crud-id]",
		Flags:     flags,
		Action: func(c *cli.Context) error {
			id, err := parseIDArg(c, "crud")
			if err != nil {
				return err
			}

			var patch api.CrudPatch
			if c.IsSet("title") {
				patch.Title = stringPtr(c.String("title"))
			}
			if c.IsSet("body") {
				patch.Body = stringPtr(c.String("body"))
			}
			if c.IsSet("tag") {
				tags := tagRefs(c.StringSlice("tag"))
				patch.Tags = &tags
			} else if c.Bool("clear-tags") {
				tags := []string{}
				patch.Tags = &tags
			}
			if patch.Title == nil && patch.Body == nil && patch.Tags == nil {
				return fmt.Errorf("nothing to update: pass --title, --body, --tag or --clear-tags")
			}

			if err := newClient(c).PatchCrud(c.Context, id, patch); err != nil {
				return fmt.Errorf("error updating crud %d: %w", id, err)
			}
			fmt.Println(okStyle.Render(fmt.Sprintf("✅ Crud %d updated", id)))
			return nil
		},
	}
}

func crudPutCmd() *cli.Command {
	return &cli.Command{
		Name:      "put",
		Usage:     "Replace a crud resource; omitted tags are cleared",
		ArgsUsage: "[crud-id]",
		Flags:     crudFlags(),
		Action: func(c *cli.Context) error {
			id, err := parseIDArg(c, "crud")
			if err != nil {
				return err
			}

			in := api.CrudInput{Title: c.String("title"), Body: c.String("body"), Tags: tagRefs(c.StringSlice("tag"))}
			if err := promptIfEmpty(&in.Title, "Title:"); err != nil {
				return err
			}
			if err := promptIfEmpty(&in.Body, "Body:"); err != nil {
				return err
			}

			crud, err := newClient(c).PutCrud(c.Context, id, in)
			if err != nil {
				return fmt.Errorf("error replacing crud %d: %w", id, err)
			}
			fmt.Println(okStyle.Render(fmt.Sprintf("✅ Crud %d replaced", crud.ID)))
			return nil
		},
	}
}

func crudDeleteCmd() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Aliases:   []string{"rm"},
		Usage:     "Delete a crud resource",
		ArgsUsage: "[crud-id]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not ask for confirmation"},
		},
		Action: func(c *cli.Context) error {
			id, err := parseIDArg(c, "crud")
			if err != nil {
				return err
			}

			if !c.Bool("yes") {
				ok, err := confirm(fmt.Sprintf("Delete crud %d?", id))
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
			}

			if err := newClient(c).DeleteCrud(c.Context, id); err != nil {
				return fmt.Errorf("error deleting crud %d: %w", id, err)
			}
			fmt.Printf("🗑️ Crud %d deleted.\n", id)
			return nil
		},
	}
}

// tagRefs turns bare ids into relative tag locations
func tagRefs(refs []string) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		if !strings.Contains(ref, "/") {
			ref = "/tags/" + ref
		}
		out = append(out, ref)
	}
	return out
}

func printCrud(crud *handlers.CrudResource) {
	fmt.Println(titleStyle.Render(fmt.Sprintf("Crud %d", crud.ID)))
	fmt.Printf("----------------------------------\n")
	fmt.Printf("Title: %s\n", crud.Title)
	fmt.Printf("Body:  %s\n", crud.Body)
	if len(crud.Tags) == 0 {
		fmt.Println("Tags:  " + dimStyle.Render("none"))
	} else {
		fmt.Println("Tags:")
		for _, tag := range crud.Tags {
			fmt.Printf("  - %s\n", tag)
		}
	}
	fmt.Println(dimStyle.Render("Self:  " + crud.Links["self"].Href))
}
