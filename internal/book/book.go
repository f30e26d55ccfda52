// Package book provides read-only access to a GnuCash SQLite file: accounts,
// transactions, splits, and the price database. It never writes to the book.
package book

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "modernc.org/sqlite"
)

type Book struct {
	db   *sql.DB
	info Info

	// The source is read-only and static for the lifetime of the handle, so
	// the account tree is materialized once at open time.
	accounts []Account
	byGUID   map[string]Account
}

// Open opens a GnuCash SQLite book in read-only mode and probes its schema.
func Open(path string) (*Book, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve book path: %w", err)
	}

	fi, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrBookNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("stat book: %w", err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotAFile, path)
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open book: %w", err)
	}
	db.SetMaxOpenConns(runtime.NumCPU())

	b := &Book{db: db}
	ctx := context.Background()
	if err := b.probe(ctx, path); err != nil {
		db.Close()
		return nil, err
	}
	if err := b.loadAccounts(ctx); err != nil {
		db.Close()
		return nil, err
	}
	b.info.AccountCount = len(b.accounts)
	return b, nil
}

func (b *Book) Close() error {
	return b.db.Close()
}

// Info returns schema and size details gathered at open time.
func (b *Book) Info() Info {
	return b.info
}

func (b *Book) probe(ctx context.Context, path string) error {
	info := Info{Path: path, DefaultCurrency: "EUR"}

	// Notes live either in a transactions.notes column or in the slots table,
	// depending on the GnuCash version that wrote the book.
	rows, err := b.db.QueryContext(ctx, `PRAGMA table_info(transactions)`)
	if err != nil {
		return fmt.Errorf("probe transactions schema: %w", err)
	}
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notnull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notnull, &defaultVal, &pk); err != nil {
			rows.Close()
			return fmt.Errorf("scan column info: %w", err)
		}
		if name == "notes" {
			info.HasNotesColumn = true
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("probe transactions schema: %w", err)
	}

	if !info.HasNotesColumn {
		var n int
		err := b.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM slots
			 WHERE name = 'notes' AND obj_guid IN (SELECT guid FROM transactions)`,
		).Scan(&n)
		if err == nil && n > 0 {
			info.HasSlotsNotes = true
		}
	}

	err = b.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).
		Scan(&info.TransactionCount)
	if err != nil {
		return fmt.Errorf("count transactions: %w", err)
	}

	// GnuCash keeps the book currency in options slots that not every writer
	// populates; the dominant transaction currency is a reliable stand-in.
	var mnemonic string
	err = b.db.QueryRowContext(ctx,
		`SELECT c.mnemonic FROM transactions t
		 JOIN commodities c ON c.guid = t.currency_guid
		 GROUP BY c.mnemonic ORDER BY COUNT(*) DESC, c.mnemonic LIMIT 1`,
	).Scan(&mnemonic)
	if err == nil && mnemonic != "" {
		info.DefaultCurrency = mnemonic
	}

	b.info = info
	return nil
}

var postDateLayouts = []string{
	"2006-01-02 15:04:05",
	"20060102150405",
	"2006-01-02",
}

// parsePostDate handles the timestamp formats GnuCash has used across
// versions. Unparseable values yield the zero time rather than an error so a
// single odd row cannot poison a whole query.
func parsePostDate(s string) time.Time {
	for _, layout := range postDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
