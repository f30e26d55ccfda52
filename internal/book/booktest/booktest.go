// Package booktest builds minimal GnuCash-schema SQLite books for tests.
package booktest

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// Builder creates a throwaway book file under t.TempDir() and fills it with
// accounts, transactions, prices, and notes.
type Builder struct {
	t    *testing.T
	db   *sql.DB
	path string

	commodities map[string]string // mnemonic -> guid
	RootGUID    string
}

// New creates an empty book with the GnuCash core tables and a ROOT account.
// withNotesColumn controls whether transactions carry a notes column or notes
// go through the slots table.
func New(t *testing.T, withNotesColumn bool) *Builder {
	t.Helper()

	path := filepath.Join(t.TempDir(), "book.gnucash")
	db, err := sql.Open("sqlite", "file:"+path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	notesCol := ""
	if withNotesColumn {
		notesCol = ", notes TEXT"
	}
	statements := []string{
		`CREATE TABLE commodities (
			guid TEXT PRIMARY KEY,
			mnemonic TEXT NOT NULL
		)`,
		`CREATE TABLE accounts (
			guid TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			account_type TEXT NOT NULL,
			parent_guid TEXT,
			commodity_guid TEXT
		)`,
		fmt.Sprintf(`CREATE TABLE transactions (
			guid TEXT PRIMARY KEY,
			currency_guid TEXT,
			post_date TEXT,
			description TEXT%s
		)`, notesCol),
		`CREATE TABLE splits (
			guid TEXT PRIMARY KEY,
			tx_guid TEXT NOT NULL,
			account_guid TEXT NOT NULL,
			memo TEXT,
			value_num INTEGER NOT NULL,
			value_denom INTEGER NOT NULL
		)`,
		`CREATE TABLE prices (
			guid TEXT PRIMARY KEY,
			commodity_guid TEXT NOT NULL,
			currency_guid TEXT NOT NULL,
			date TEXT NOT NULL,
			value_num INTEGER NOT NULL,
			value_denom INTEGER NOT NULL
		)`,
		`CREATE TABLE slots (
			obj_guid TEXT NOT NULL,
			name TEXT NOT NULL,
			string_val TEXT
		)`,
	}
	for _, stmt := range statements {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	b := &Builder{t: t, db: db, path: path, commodities: make(map[string]string)}
	b.RootGUID = b.newGUID()
	_, err = db.Exec(
		`INSERT INTO accounts (guid, name, account_type, parent_guid, commodity_guid)
		 VALUES (?, 'Root Account', 'ROOT', NULL, NULL)`, b.RootGUID)
	require.NoError(t, err)
	return b
}

// Path is the book file on disk, for book.Open.
func (b *Builder) Path() string {
	return b.path
}

func (b *Builder) newGUID() string {
	return uuid.NewString()
}

// Commodity registers a currency mnemonic, creating it on first use.
func (b *Builder) Commodity(mnemonic string) string {
	if guid, ok := b.commodities[mnemonic]; ok {
		return guid
	}
	guid := b.newGUID()
	_, err := b.db.Exec(
		`INSERT INTO commodities (guid, mnemonic) VALUES (?, ?)`, guid, mnemonic)
	require.NoError(b.t, err)
	b.commodities[mnemonic] = guid
	return guid
}

// Account adds an account under the given parent (the ROOT account when
// parentGUID is empty) and returns its GUID.
func (b *Builder) Account(name, accountType, parentGUID, currency string) string {
	b.t.Helper()
	if parentGUID == "" {
		parentGUID = b.RootGUID
	}
	guid := b.newGUID()
	_, err := b.db.Exec(
		`INSERT INTO accounts (guid, name, account_type, parent_guid, commodity_guid)
		 VALUES (?, ?, ?, ?, ?)`,
		guid, name, accountType, parentGUID, b.Commodity(currency))
	require.NoError(b.t, err)
	return guid
}

// SplitSpec is one posting in a transaction: Num/Denom form the exact value.
type SplitSpec struct {
	Account string
	Num     int64
	Denom   int64
	Memo    string
}

// Transaction adds a transaction dated date (YYYY-MM-DD) in the given
// currency with the given splits and returns its GUID.
func (b *Builder) Transaction(date, currency, description string, splits ...SplitSpec) string {
	b.t.Helper()
	guid := b.newGUID()
	_, err := b.db.Exec(
		`INSERT INTO transactions (guid, currency_guid, post_date, description)
		 VALUES (?, ?, ?, ?)`,
		guid, b.Commodity(currency), date+" 00:00:00", description)
	require.NoError(b.t, err)

	for _, s := range splits {
		denom := s.Denom
		if denom == 0 {
			denom = 100
		}
		_, err := b.db.Exec(
			`INSERT INTO splits (guid, tx_guid, account_guid, memo, value_num, value_denom)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			b.newGUID(), guid, s.Account, s.Memo, s.Num, denom)
		require.NoError(b.t, err)
	}
	return guid
}

// SplitGUIDs returns the split GUIDs of a transaction in insertion order.
func (b *Builder) SplitGUIDs(txGUID string) []string {
	b.t.Helper()
	rows, err := b.db.Query(
		`SELECT guid FROM splits WHERE tx_guid = ? ORDER BY rowid`, txGUID)
	require.NoError(b.t, err)
	defer rows.Close()

	var guids []string
	for rows.Next() {
		var guid string
		require.NoError(b.t, rows.Scan(&guid))
		guids = append(guids, guid)
	}
	require.NoError(b.t, rows.Err())
	return guids
}

// Price records an exchange rate quote: 1 commodity = num/denom currency on
// the given date.
func (b *Builder) Price(commodity, currency, date string, num, denom int64) {
	b.t.Helper()
	_, err := b.db.Exec(
		`INSERT INTO prices (guid, commodity_guid, currency_guid, date, value_num, value_denom)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		b.newGUID(), b.Commodity(commodity), b.Commodity(currency), date+" 00:00:00", num, denom)
	require.NoError(b.t, err)
}

// Note attaches a note to a transaction: via the notes column when the book
// has one, via a slots row otherwise.
func (b *Builder) Note(txGUID, note string) {
	b.t.Helper()
	var hasColumn bool
	rows, err := b.db.Query(`PRAGMA table_info(transactions)`)
	require.NoError(b.t, err)
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notnull    int
			defaultVal sql.NullString
			pk         int
		)
		require.NoError(b.t, rows.Scan(&cid, &name, &typ, &notnull, &defaultVal, &pk))
		if name == "notes" {
			hasColumn = true
		}
	}
	rows.Close()
	require.NoError(b.t, rows.Err())

	if hasColumn {
		_, err = b.db.Exec(`UPDATE transactions SET notes = ? WHERE guid = ?`, note, txGUID)
	} else {
		_, err = b.db.Exec(
			`INSERT INTO slots (obj_guid, name, string_val) VALUES (?, 'notes', ?)`, txGUID, note)
	}
	require.NoError(b.t, err)
}
