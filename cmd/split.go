package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/bookgrep/bookgrep/internal/book"
	"github.com/bookgrep/bookgrep/internal/query"
)

var splitSigned bool

var splitCmd = &cobra.Command{
	Use:   "split GUID",
	Short: "Show one split",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		bk, err := openBook(cfg)
		if err != nil {
			return err
		}
		defer bk.Close()

		sp, err := bk.SplitByGUID(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		notes, err := bk.NotesBatch(cmd.Context(), []string{sp.TxGUID})
		if err != nil {
			return err
		}

		conv, err := newConverter(bk, cfg)
		if err != nil {
			return err
		}
		rows, err := query.BuildRows(cmd.Context(), []book.Split{*sp}, notes, conv, query.RowOptions{
			Mode:         currencyMode(cfg),
			Signed:       splitSigned,
			FullAccount:  true,
			AlsoOriginal: flagAlsoOriginal,
		})
		if err != nil {
			return err
		}

		f := newFormatter(cfg)
		f.IncludeNotes = true
		return f.Splits(os.Stdout, rows)
	},
}

func init() {
	splitCmd.Flags().BoolVar(&splitSigned, "signed", false, "Use signed amounts instead of absolute values")
	addCurrencyFlags(splitCmd)

	rootCmd.AddCommand(splitCmd)
}
