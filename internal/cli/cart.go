package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"bookstore/internal/domain/model"
	"bookstore/internal/usecase"

	"github.com/spf13/cobra"
)

type cartOutput struct {
	Items      []model.CartLine `json:"items"`
	ItemCount  int              `json:"itemCount"`
	TotalPrice string           `json:"totalPrice"`
}

// NewCartCommand は保存済みのカートを表示する（--clear で空にする）
func NewCartCommand(opts *RootOptions) *cobra.Command {
	var clearCart bool

	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Print the persisted cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(opts)
			if err != nil {
				return err
			}

			kv, closeKV := openStore(cfg, logger)
			defer closeKV()

			ctx := cmd.Context()
			engine := usecase.NewCartEngine(usecase.NewCartCodec(kv, cfg.CartKey, logger), cfg.MaxQuantity, logger)
			engine.Hydrate(ctx)
			if clearCart {
				engine.Clear(ctx)
			}

			sum := engine.Summary()
			out := cartOutput{
				Items:      sum.Items,
				ItemCount:  sum.ItemCount,
				TotalPrice: usecase.FormatPrice(sum.TotalPrice),
			}

			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			return writeCartText(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().BoolVar(&clearCart, "clear", false, "empty the saved cart")
	return cmd
}

func writeCartText(w io.Writer, out cartOutput) error {
	if len(out.Items) == 0 {
		_, err := fmt.Fprintln(w, "cart is empty")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tQTY\tSUBTOTAL")
	for _, l := range out.Items {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", l.ID, l.Title, l.Quantity, usecase.FormatPrice(l.Subtotal()))
	}
	fmt.Fprintf(tw, "\t\t%d\t%s\n", out.ItemCount, out.TotalPrice)
	return tw.Flush()
}
