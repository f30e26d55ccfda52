package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/bookgrep/bookgrep/internal/query"
)

var (
	txContext string
	txSigned  bool
)

var txCmd = &cobra.Command{
	Use:   "tx GUID",
	Short: "Show one transaction",
	Long:  "Show a transaction with all of its splits, or with the minimal balanced subset when --context balanced is set.",
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

		tx, err := bk.TransactionByGUID(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		note, err := bk.Note(cmd.Context(), tx.GUID)
		if err != nil {
			return err
		}

		rows, warnings, err := query.BuildTransactions(cmd.Context(), tx.Splits, bk,
			map[string]string{tx.GUID: note}, query.TxOptions{
				Signed:      txSigned,
				FullAccount: true,
				Context:     txContext,
			})
		if err != nil {
			return err
		}
		for _, u := range warnings {
			warnf("transaction %s not perfectly balanced in %s, showing full context", u.TxGUID, u.Currency)
		}

		f := newFormatter(cfg)
		f.IncludeNotes = true
		return f.Transactions(os.Stdout, rows)
	},
}

func init() {
	f := txCmd.Flags()
	f.StringVar(&txContext, "context", query.ContextFull, "Context: full or balanced")
	f.BoolVar(&txSigned, "signed", false, "Use signed amounts instead of absolute values")

	rootCmd.AddCommand(txCmd)
}
