package book

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

func (b *Book) loadAccounts(ctx context.Context) error {
	rows, err := b.db.QueryContext(ctx,
		`SELECT a.guid, a.name, a.account_type, COALESCE(a.parent_guid, ''),
		        COALESCE(c.mnemonic, '')
		 FROM accounts a
		 LEFT JOIN commodities c ON c.guid = a.commodity_guid`,
	)
	if err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}
	defer rows.Close()

	all := make(map[string]Account)
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.GUID, &a.Name, &a.Type, &a.ParentGUID, &a.Currency); err != nil {
			return fmt.Errorf("scan account: %w", err)
		}
		all[a.GUID] = a
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}

	// Full name is the colon-joined path from the first non-ROOT ancestor.
	fullName := func(guid string) string {
		var segments []string
		for cur := guid; cur != ""; {
			a, ok := all[cur]
			if !ok || a.Type == TypeRoot {
				break
			}
			segments = append(segments, a.Name)
			cur = a.ParentGUID
		}
		for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
			segments[i], segments[j] = segments[j], segments[i]
		}
		return strings.Join(segments, ":")
	}

	b.byGUID = make(map[string]Account, len(all))
	for guid, a := range all {
		if a.Type == TypeRoot || a.Type == TypeTrading {
			continue
		}
		a.FullName = fullName(guid)
		b.byGUID[guid] = a
		b.accounts = append(b.accounts, a)
	}
	sort.Slice(b.accounts, func(i, j int) bool { return b.accounts[i].FullName < b.accounts[j].FullName })
	return nil
}

// Accounts returns every user-facing account sorted by full name. ROOT and
// TRADING accounts are excluded; they only anchor the hierarchy.
func (b *Book) Accounts() []Account {
	out := make([]Account, len(b.accounts))
	copy(out, b.accounts)
	return out
}

// AccountByGUID returns a single account, ErrAccountNotFound if absent.
func (b *Book) AccountByGUID(guid string) (Account, error) {
	a, ok := b.byGUID[guid]
	if !ok {
		return Account{}, fmt.Errorf("%w: %s", ErrAccountNotFound, guid)
	}
	return a, nil
}

// AccountsByPattern finds accounts whose full name matches the pattern, by
// substring (default) or regular expression. With subtree set, descendants of
// every match are included too.
func (b *Book) AccountsByPattern(pattern string, isRegex, caseSensitive, subtree bool) ([]Account, error) {
	match, err := compileMatcher(pattern, isRegex, caseSensitive)
	if err != nil {
		return nil, err
	}

	matched := make(map[string]bool)
	var result []Account
	for _, a := range b.accounts {
		if match(a.FullName) {
			matched[a.GUID] = true
			result = append(result, a)
		}
	}

	if !subtree {
		return result, nil
	}

	for _, a := range b.accounts {
		if matched[a.GUID] {
			continue
		}
		if b.hasAncestorIn(a, matched) {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].FullName < result[j].FullName })
	return result, nil
}

func (b *Book) hasAncestorIn(a Account, set map[string]bool) bool {
	for parent := a.ParentGUID; parent != ""; {
		if set[parent] {
			return true
		}
		p, ok := b.byGUID[parent]
		if !ok {
			return false
		}
		parent = p.ParentGUID
	}
	return false
}

func compileMatcher(pattern string, isRegex, caseSensitive bool) (func(string) bool, error) {
	if isRegex {
		expr := pattern
		if !caseSensitive {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
		}
		return re.MatchString, nil
	}
	if caseSensitive {
		return func(s string) bool { return strings.Contains(s, pattern) }, nil
	}
	lower := strings.ToLower(pattern)
	return func(s string) bool { return strings.Contains(strings.ToLower(s), lower) }, nil
}

// SuggestAccounts returns up to n account full names closest to the pattern
// by edit distance, for "did you mean" hints when a pattern matches nothing.
func (b *Book) SuggestAccounts(pattern string, n int) []string {
	type scored struct {
		name string
		dist int
	}
	lower := strings.ToLower(pattern)
	candidates := make([]scored, 0, len(b.accounts))
	for _, a := range b.accounts {
		d := levenshtein.ComputeDistance(lower, strings.ToLower(a.Name))
		if fd := levenshtein.ComputeDistance(lower, strings.ToLower(a.FullName)); fd < d {
			d = fd
		}
		candidates = append(candidates, scored{name: a.FullName, dist: d})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		return candidates[i].name < candidates[j].name
	})
	if n > len(candidates) {
		n = len(candidates)
	}
	names := make([]string, 0, n)
	for _, c := range candidates[:n] {
		names = append(names, c.name)
	}
	return names
}

// PruneToMatchingPaths expands a match set for tree display: ancestors of
// each match (the path from the top) plus the full subtree below each match.
func (b *Book) PruneToMatchingPaths(matches []Account) []Account {
	matched := make(map[string]bool, len(matches))
	keep := make(map[string]bool, len(matches))
	for _, a := range matches {
		matched[a.GUID] = true
		keep[a.GUID] = true
	}

	for _, a := range matches {
		for parent := a.ParentGUID; parent != ""; {
			p, ok := b.byGUID[parent]
			if !ok {
				break
			}
			keep[p.GUID] = true
			parent = p.ParentGUID
		}
	}
	for _, a := range b.accounts {
		if !keep[a.GUID] && b.hasAncestorIn(a, matched) {
			keep[a.GUID] = true
		}
	}

	var result []Account
	for _, a := range b.accounts {
		if keep[a.GUID] {
			result = append(result, a)
		}
	}
	return result
}
