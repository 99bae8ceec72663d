package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"bookstore/internal/domain/model"
	"bookstore/internal/usecase"

	"github.com/spf13/cobra"
)

type catalogOutput struct {
	Books        []model.Book `json:"books"`
	UsedFallback bool         `json:"usedFallback"`
	Error        string       `json:"error,omitempty"`
}

// NewCatalogCommand はカタログを1回読み込んで表示する
func NewCatalogCommand(opts *RootOptions) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Fetch and print the book catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(opts)
			if err != nil {
				return err
			}

			loader := usecase.NewCatalogLoader(cfg.CatalogURL, cfg.CatalogTimeout, logger)
			res := loader.LoadCatalog(cmd.Context())

			out := catalogOutput{
				Books:        model.FilterBooks(res.Books, model.BookFilter(filter)),
				UsedFallback: res.UsedFallback,
			}
			if res.Err != nil {
				out.Error = res.Err.Error()
			}

			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			return writeCatalogText(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVar(&filter, "filter", string(model.FilterAll), "all|in-stock|out-of-stock")
	return cmd
}

func writeCatalogText(w io.Writer, out catalogOutput) error {
	if out.UsedFallback {
		fmt.Fprintf(w, "using fallback catalog (%s)\n", out.Error)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tPRICE\tAVAILABILITY")
	for _, b := range out.Books {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", b.ID, b.Title, b.Author, usecase.FormatPrice(b.Price), b.Availability)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
