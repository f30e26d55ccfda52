package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bookgrep/bookgrep/internal/cache"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose the configured book",
	Long:  "Open the configured book and report schema capabilities, account and transaction counts, and sidecar cache state.",
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

		info := bk.Info()
		fmt.Printf("Book:             %s\n", info.Path)
		fmt.Printf("Default currency: %s\n", info.DefaultCurrency)
		fmt.Printf("Accounts:         %d\n", info.AccountCount)
		fmt.Printf("Transactions:     %d\n", info.TransactionCount)
		switch {
		case info.HasNotesColumn:
			fmt.Println("Notes:            notes column")
		case info.HasSlotsNotes:
			fmt.Println("Notes:            slots")
		default:
			fmt.Println("Notes:            not available")
		}
		fmt.Printf("FX lookback:      %d days\n", cfg.Currency.FxLookbackDays)

		if cfg.Cache.Enabled {
			mgr := cache.NewManager(cfg.Cache.Path, info.Path)
			st, err := mgr.Status(cmd.Context())
			if err != nil {
				return err
			}
			if st.Exists {
				fmt.Printf("Cache:            %s (%d splits, built %s)\n", st.Path, st.SplitCount, st.BuildTime)
				if st.SourceBook != "" && st.SourceBook != info.Path {
					warnf("cache was built from a different book: %s", st.SourceBook)
				}
				if st.SchemaVersion != cache.SchemaVersion {
					warnf("cache schema v%d differs from current v%d, rebuild with 'bookgrep cache build --force'",
						st.SchemaVersion, cache.SchemaVersion)
				}
			} else {
				fmt.Printf("Cache:            not built (%s)\n", st.Path)
			}
		} else {
			fmt.Println("Cache:            disabled")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
