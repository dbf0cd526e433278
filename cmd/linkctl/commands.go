package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sol1corejz/linkly/internal/collection"
	"github.com/sol1corejz/linkly/internal/file"
	"github.com/sol1corejz/linkly/internal/logger"
	"github.com/sol1corejz/linkly/internal/models"
	"github.com/sol1corejz/linkly/internal/platform"
)

func (a *app) shortenCmd() *cobra.Command {
	var copyResult bool

	cmd := &cobra.Command{
		Use:   "shorten <url>",
		Short: "Create a short link.",
		Example: `  linkctl shorten https://www.google.com/search?q=go+lang
  linkctl shorten --copy https://go.dev/doc`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := a.session.Shorten(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			short := platform.ShortURL(a.platform.CurrentOrigin(), rec.ShortCode)
			fmt.Fprintln(a.out, "URL shortened successfully!")
			fmt.Fprintln(a.out, short)

			if copyResult {
				if err := a.platform.CopyText(short); err != nil {
					logger.Log.Warn("Failed to copy text", zap.Error(err))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&copyResult, "copy", "c", false, "copy the short link to the clipboard")
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	var (
		sortBy string
		desc   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show all short links.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.load(cmd.Context()); err != nil {
				return err
			}

			if sortBy != "" {
				field, err := collection.ParseSortField(sortBy)
				if err != nil {
					return err
				}
				dir := collection.Ascending
				if desc {
					dir = collection.Descending
				}
				if err := a.links.SetSort(collection.SortConfig{Field: field, Direction: dir}); err != nil {
					return err
				}
			}

			a.printTable(a.links.Snapshot().Records)
			return nil
		},
	}
	cmd.Flags().StringVarP(&sortBy, "sort", "s", "", "sort by shortCode, originalUrl, accessCount, createdAt or updatedAt")
	cmd.Flags().BoolVar(&desc, "desc", false, "sort in descending order")
	return cmd
}

func (a *app) editCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <code> <url>",
		Short: "Point a short link to a new URL.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd.Context()); err != nil {
				return err
			}

			code := args[0]
			if err := a.links.BeginEdit(code); err != nil {
				return err
			}
			if err := a.links.SetEditBuffer(code, args[1]); err != nil {
				return err
			}
			_, err := a.links.SaveEdit(cmd.Context(), code)
			return err
		},
	}
}

func (a *app) deleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <code>",
		Short: "Delete a short link.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd.Context()); err != nil {
				return err
			}
			return a.links.Delete(cmd.Context(), args[0])
		},
	}
	cmd.Flags().BoolVarP(&a.yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func (a *app) openCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <code>",
		Short: "Resolve a short link and print its original URL.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.links.OpenOriginal(cmd.Context(), args[0])
			return err
		},
	}
}

func (a *app) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <code>",
		Short: "Show access statistics for a short link.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := a.links.Stats(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "Short Link\t%s\n", platform.ShortURL(a.platform.CurrentOrigin(), rec.ShortCode))
			fmt.Fprintf(w, "Original Link\t%s\n", rec.OriginalURL)
			fmt.Fprintf(w, "Clicks\t%d\n", rec.AccessCount)
			fmt.Fprintf(w, "Created\t%s\n", formatDate(rec.CreatedAt))
			fmt.Fprintf(w, "Updated\t%s\n", formatDate(rec.UpdatedAt))
			return w.Flush()
		},
	}
}

func (a *app) exportCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Save all short links to a JSON Lines file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.load(cmd.Context()); err != nil {
				return err
			}

			p, err := file.NewProducer(path)
			if err != nil {
				return err
			}
			n, err := p.WriteAll(a.links.Snapshot().Records)
			if cerr := p.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Exported %d links to %s\n", n, path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "links.jsonl", "output file")
	return cmd
}

func (a *app) printTable(recs []models.LinkRecord) {
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SHORT LINK\tORIGINAL LINK\tCLICKS\tDATE")
	for _, r := range recs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			platform.ShortURL(a.platform.CurrentOrigin(), r.ShortCode), r.OriginalURL, r.AccessCount, formatDate(r.CreatedAt))
	}
	w.Flush()
	fmt.Fprintf(a.out, "History (%d)\n", len(recs))
}
