package book

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Note returns the free-text note attached to a transaction, or "" if none.
// Depending on the writing GnuCash version, notes live either in a column on
// the transactions table or in the slots table.
func (b *Book) Note(ctx context.Context, txGUID string) (string, error) {
	var note sql.NullString
	var err error
	if b.info.HasNotesColumn {
		err = b.db.QueryRowContext(ctx,
			`SELECT notes FROM transactions WHERE guid = ?`, txGUID).Scan(&note)
	} else {
		err = b.db.QueryRowContext(ctx,
			`SELECT string_val FROM slots WHERE obj_guid = ? AND name = 'notes'`, txGUID).Scan(&note)
	}
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get note: %w", err)
	}
	return note.String, nil
}

// NotesBatch fetches notes for many transactions in one query. Transactions
// without a note are absent from the returned map.
func (b *Book) NotesBatch(ctx context.Context, txGUIDs []string) (map[string]string, error) {
	result := make(map[string]string)
	if len(txGUIDs) == 0 {
		return result, nil
	}
	if !b.info.HasNotesColumn && !b.info.HasSlotsNotes {
		return result, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(txGUIDs)), ",")
	args := make([]any, len(txGUIDs))
	for i, guid := range txGUIDs {
		args[i] = guid
	}

	var query string
	if b.info.HasNotesColumn {
		query = fmt.Sprintf(
			`SELECT guid, notes FROM transactions WHERE guid IN (%s)`, placeholders)
	} else {
		query = fmt.Sprintf(
			`SELECT obj_guid, string_val FROM slots WHERE obj_guid IN (%s) AND name = 'notes'`, placeholders)
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("batch notes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var guid string
		var note sql.NullString
		if err := rows.Scan(&guid, &note); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		if note.Valid && note.String != "" {
			result[guid] = note.String
		}
	}
	return result, rows.Err()
}
