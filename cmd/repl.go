package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bookgrep/bookgrep/internal/repl"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive query shell",
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

		base := cfg.Currency.Base
		if base == "" {
			base = bk.Info().DefaultCurrency
		}
		session := repl.NewSession(bk, base, cfg.Currency.FxLookbackDays)
		return repl.Run(session)
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}
