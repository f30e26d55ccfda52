package cmd

import (
	"github.com/spf13/cobra"
)

var (
	ledgerRegex bool
	ledgerCase  bool
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger PATTERN",
	Short: "Show the register for matching accounts",
	Long:  "Show all splits posted to accounts matching the pattern (and their sub-accounts), with the same date, amount and currency options as grep.",
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

		accounts, filterCurrencies, err := resolveAccounts(bk, args[0], ledgerRegex, ledgerCase, true)
		if err != nil {
			return err
		}

		guids := make([]string, 0, len(accounts))
		for _, a := range accounts {
			guids = append(guids, a.GUID)
		}
		splits, err := bk.SplitsForAccounts(cmd.Context(), guids)
		if err != nil {
			return err
		}

		filter, err := buildFilter("")
		if err != nil {
			return err
		}
		matched, notes, err := applyFilter(cmd.Context(), bk, splits, filter)
		if err != nil {
			return err
		}
		if len(matched) == 0 {
			return ErrNoMatches
		}
		return printSplits(cmd.Context(), cfg, bk, matched, notes, filterCurrencies)
	},
}

func init() {
	f := ledgerCmd.Flags()
	f.BoolVar(&ledgerRegex, "regex", false, "Treat PATTERN as a regular expression")
	f.BoolVar(&ledgerCase, "case-sensitive", false, "Match case-sensitively")
	addFilterFlags(ledgerCmd)
	addCurrencyFlags(ledgerCmd)

	rootCmd.AddCommand(ledgerCmd)
}
