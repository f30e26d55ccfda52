package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bookgrep/bookgrep/internal/output"
)

var (
	acctRegex     bool
	acctCase      bool
	acctTree      bool
	acctTreePrune bool
	acctMaxDepth  int
	acctShowGUIDs bool
)

var accountsCmd = &cobra.Command{
	Use:   "accounts [pattern]",
	Short: "List or search accounts",
	Long:  "List all accounts, or those whose full colon-separated name matches a substring or regex pattern.",
	Args:  cobra.MaximumNArgs(1),
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

		pattern := ""
		if len(args) == 1 {
			pattern = args[0]
		}

		accounts, err := bk.AccountsByPattern(pattern, acctRegex, acctCase, false)
		if err != nil {
			return err
		}
		if len(accounts) == 0 {
			if pattern != "" {
				if suggestions := bk.SuggestAccounts(pattern, 3); len(suggestions) > 0 {
					fmt.Fprintf(os.Stderr, "No accounts match %q. Did you mean: %s?\n",
						pattern, strings.Join(suggestions, ", "))
				}
			}
			return ErrNoMatches
		}

		if acctTree && acctTreePrune {
			accounts = bk.PruneToMatchingPaths(accounts)
		}
		if acctMaxDepth > 0 {
			kept := accounts[:0]
			for _, a := range accounts {
				if a.Depth() < acctMaxDepth {
					kept = append(kept, a)
				}
			}
			accounts = kept
		}

		rows := make([]output.AccountRow, 0, len(accounts))
		for _, a := range accounts {
			rows = append(rows, output.AccountRow{
				Name:     a.FullName,
				Type:     a.Type,
				Currency: a.Currency,
				GUID:     a.GUID,
				Depth:    a.Depth(),
			})
		}

		f := newFormatter(cfg)
		f.ShowGUIDs = acctShowGUIDs
		return f.Accounts(os.Stdout, rows, acctTree)
	},
}

func init() {
	f := accountsCmd.Flags()
	f.BoolVar(&acctRegex, "regex", false, "Treat the pattern as a regular expression")
	f.BoolVar(&acctCase, "case-sensitive", false, "Match case-sensitively")
	f.BoolVar(&acctTree, "tree", false, "Render accounts as an indented tree")
	f.BoolVar(&acctTreePrune, "tree-prune", false, "With --tree, keep only matching paths and their subtrees")
	f.IntVar(&acctMaxDepth, "max-depth", 0, "Hide accounts deeper than this (0 = unlimited)")
	f.BoolVar(&acctShowGUIDs, "show-guids", false, "Include account GUIDs")

	rootCmd.AddCommand(accountsCmd)
}
