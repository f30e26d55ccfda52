package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bookgrep/bookgrep/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the sidecar search cache",
}

var cacheForce bool

var cacheBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the search cache from the configured book",
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

		mgr := cache.NewManager(cfg.Cache.Path, bk.Info().Path)
		if err := mgr.Build(cmd.Context(), bk, cacheForce); err != nil {
			return err
		}

		st, err := mgr.Status(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Cache built: %s (%d splits)\n", st.Path, st.SplitCount)
		return nil
	},
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cache state",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		mgr := cache.NewManager(cfg.Cache.Path, "")
		st, err := mgr.Status(cmd.Context())
		if err != nil {
			return err
		}

		if !st.Exists {
			fmt.Printf("No cache at %s\n", st.Path)
			return nil
		}
		fmt.Printf("Path:      %s\n", st.Path)
		fmt.Printf("Size:      %d bytes\n", st.SizeBytes)
		fmt.Printf("Splits:    %d\n", st.SplitCount)
		fmt.Printf("Schema:    v%d\n", st.SchemaVersion)
		fmt.Printf("Book:      %s\n", st.SourceBook)
		fmt.Printf("Built:     %s\n", st.BuildTime)
		fmt.Printf("Build ID:  %s\n", st.BuildID)
		return nil
	},
}

var cacheDropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete the search cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		mgr := cache.NewManager(cfg.Cache.Path, "")
		existed, err := mgr.Drop()
		if err != nil {
			return err
		}
		if existed {
			fmt.Printf("Cache dropped: %s\n", cfg.Cache.Path)
		} else {
			fmt.Printf("No cache at %s\n", cfg.Cache.Path)
		}
		return nil
	},
}

var (
	cacheSearchFTS   bool
	cacheSearchLimit int
)

var cacheSearchCmd = &cobra.Command{
	Use:   "search TEXT",
	Short: "Search the cache directly",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		mgr := cache.NewManager(cfg.Cache.Path, "")
		entries, err := mgr.Search(cmd.Context(), args[0], cacheSearchFTS, cacheSearchLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return ErrNoMatches
		}
		for _, e := range entries {
			line := fmt.Sprintf("%s  %s  %s  %s %s", e.TxDate, e.Description, e.AccountName, e.Amount, e.Currency)
			fmt.Println(strings.TrimRight(line, " "))
		}
		return nil
	},
}

func init() {
	cacheBuildCmd.Flags().BoolVar(&cacheForce, "force", false, "Rebuild even if a cache exists")
	cacheSearchCmd.Flags().BoolVar(&cacheSearchFTS, "fts", true, "Use the full-text index")
	cacheSearchCmd.Flags().IntVar(&cacheSearchLimit, "limit", 50, "Maximum results")

	cacheCmd.AddCommand(cacheBuildCmd)
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheDropCmd)
	cacheCmd.AddCommand(cacheSearchCmd)

	rootCmd.AddCommand(cacheCmd)
}
