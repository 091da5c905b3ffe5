package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/familytree/pkg/source"
)

// importCommand creates the import command for copying a tree between sources.
func (c *CLI) importCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <from> <to>",
		Short: "Copy a tree document into a writable source",
		Long: `Fetch a tree document from any source and store it in a writable one.

Writable destinations are JSON files, mongodb:// URIs and sqlite:<path>.

Examples:
  familytree import https://example.com/tree.json sqlite:tree.db?tree=smith
  familytree import tree.json "mongodb://localhost:27017/familytree?tree=smith"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runImport(cmd.Context(), args[0], args[1])
		},
	}
}

func (c *CLI) runImport(ctx context.Context, from, to string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	src, err := openSource(ctx, from, cfg)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := source.Open(ctx, to)
	if err != nil {
		return err
	}
	defer dst.Close()

	store, ok := dst.(source.Store)
	if !ok {
		return fmt.Errorf("%s is not writable", dst)
	}

	spinner := newSpinnerWithContext(ctx, "Fetching "+src.String()+"...")
	spinner.Start()
	doc, err := src.Fetch(ctx)
	if err != nil {
		spinner.StopWithError("Fetch failed")
		return err
	}
	spinner.Stop()

	prog := newProgress(c.Logger)
	if err := store.Store(ctx, doc); err != nil {
		return fmt.Errorf("store %s: %w", store, err)
	}
	prog.done(fmt.Sprintf("Stored %d records", len(doc.Tree)))

	printSuccess("Import complete")
	printKeyValue("From", src.String())
	printKeyValue("To", store.String())
	printKeyValue("Records", fmt.Sprint(len(doc.Tree)))
	printNewline()
	printNextStep("Serve it", appName+" serve "+store.String())
	return nil
}
