package query

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bookgrep/bookgrep/internal/book"
)

// Fields selects which text fields a search pattern is matched against.
type Fields struct {
	Desc  bool
	Memo  bool
	Notes bool
}

// ParseFields parses a comma-separated field list like "desc,memo,notes".
func ParseFields(s string) (Fields, error) {
	var f Fields
	for _, name := range strings.Split(s, ",") {
		switch strings.TrimSpace(name) {
		case "desc":
			f.Desc = true
		case "memo":
			f.Memo = true
		case "notes":
			f.Notes = true
		case "":
		default:
			return Fields{}, fmt.Errorf("unknown search field %q (want desc, memo or notes)", name)
		}
	}
	if !f.Desc && !f.Memo && !f.Notes {
		return Fields{}, fmt.Errorf("no search fields selected")
	}
	return f, nil
}

// CompileText builds the search pattern: a regular expression when isRegex is
// set, otherwise a literal substring match. Case-insensitive by default.
func CompileText(text string, isRegex, caseSensitive bool) (*regexp.Regexp, error) {
	expr := text
	if !isRegex {
		expr = regexp.QuoteMeta(text)
	}
	if !caseSensitive {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", book.ErrInvalidPattern, err)
	}
	return re, nil
}

// Filter holds the predicates applied to candidate splits. Pattern may be nil
// (no text filtering); After is inclusive, Before exclusive; the amount
// bounds apply to the signed or absolute value per Signed.
type Filter struct {
	Pattern   *regexp.Regexp
	Fields    Fields
	After     *time.Time
	Before    *time.Time
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
	Signed    bool
}

// Match reports whether a split passes all filters. note is the owning
// transaction's note text, used only when Fields.Notes is set.
func (f *Filter) Match(s book.Split, note string) bool {
	if f.After != nil && s.PostDate.Before(*f.After) {
		return false
	}
	if f.Before != nil && !s.PostDate.Before(*f.Before) {
		return false
	}

	value := s.Value
	if !f.Signed {
		value = value.Abs()
	}
	if f.MinAmount != nil && value.LessThan(*f.MinAmount) {
		return false
	}
	if f.MaxAmount != nil && value.GreaterThan(*f.MaxAmount) {
		return false
	}

	if f.Pattern != nil {
		var sb strings.Builder
		if f.Fields.Desc {
			sb.WriteString(s.Description)
			sb.WriteByte(' ')
		}
		if f.Fields.Memo {
			sb.WriteString(s.Memo)
			sb.WriteByte(' ')
		}
		if f.Fields.Notes && note != "" {
			sb.WriteString(note)
			sb.WriteByte(' ')
		}
		if !f.Pattern.MatchString(sb.String()) {
			return false
		}
	}
	return true
}
