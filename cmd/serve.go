package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bookgrep/bookgrep/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read-only HTTP API",
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
		srv := server.New(bk, base, cfg.Currency.FxLookbackDays, serveAddr)
		return srv.ListenAndServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8799", "Listen address")
	rootCmd.AddCommand(serveCmd)
}
