package book

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const splitColumns = `s.guid, s.tx_guid, s.account_guid, COALESCE(s.memo, ''),
	s.value_num, s.value_denom, t.post_date, COALESCE(t.description, '')`

// SplitsForAccounts returns every split posted to the given accounts,
// pre-joined with transaction date/description and account currency.
func (b *Book) SplitsForAccounts(ctx context.Context, accountGUIDs []string) ([]Split, error) {
	if len(accountGUIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(accountGUIDs)), ",")
	args := make([]any, len(accountGUIDs))
	for i, guid := range accountGUIDs {
		args[i] = guid
	}

	rows, err := b.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT %s FROM splits s
		 JOIN transactions t ON t.guid = s.tx_guid
		 WHERE s.account_guid IN (%s)
		 ORDER BY t.post_date, s.rowid`, splitColumns, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("splits for accounts: %w", err)
	}
	defer rows.Close()

	return b.scanSplits(rows)
}

// SplitsForTransaction returns the full posting set of one transaction in
// insertion order, including splits on ROOT/TRADING accounts' siblings.
func (b *Book) SplitsForTransaction(ctx context.Context, txGUID string) ([]Split, error) {
	rows, err := b.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT %s FROM splits s
		 JOIN transactions t ON t.guid = s.tx_guid
		 WHERE s.tx_guid = ?
		 ORDER BY s.rowid`, splitColumns), txGUID)
	if err != nil {
		return nil, fmt.Errorf("splits for transaction: %w", err)
	}
	defer rows.Close()

	return b.scanSplits(rows)
}

// TransactionByGUID returns a transaction with its full posting set.
func (b *Book) TransactionByGUID(ctx context.Context, guid string) (*Transaction, error) {
	var txn Transaction
	var postDate string
	err := b.db.QueryRowContext(ctx,
		`SELECT guid, post_date, COALESCE(description, '') FROM transactions WHERE guid = ?`,
		guid,
	).Scan(&txn.GUID, &postDate, &txn.Description)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrTransactionNotFound, guid)
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	txn.PostDate = parsePostDate(postDate)

	splits, err := b.SplitsForTransaction(ctx, guid)
	if err != nil {
		return nil, err
	}
	txn.Splits = splits
	return &txn, nil
}

// SplitByGUID returns a single split, ErrSplitNotFound if absent.
func (b *Book) SplitByGUID(ctx context.Context, guid string) (*Split, error) {
	rows, err := b.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT %s FROM splits s
		 JOIN transactions t ON t.guid = s.tx_guid
		 WHERE s.guid = ?`, splitColumns), guid)
	if err != nil {
		return nil, fmt.Errorf("get split: %w", err)
	}
	defer rows.Close()

	splits, err := b.scanSplits(rows)
	if err != nil {
		return nil, err
	}
	if len(splits) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSplitNotFound, guid)
	}
	return &splits[0], nil
}

func (b *Book) scanSplits(rows *sql.Rows) ([]Split, error) {
	var splits []Split
	for rows.Next() {
		var (
			s          Split
			num, denom int64
			postDate   string
		)
		if err := rows.Scan(&s.GUID, &s.TxGUID, &s.AccountGUID, &s.Memo,
			&num, &denom, &postDate, &s.Description); err != nil {
			return nil, fmt.Errorf("scan split: %w", err)
		}
		if denom == 0 {
			denom = 1
		}
		s.Value = decimal.NewFromInt(num).Div(decimal.NewFromInt(denom))
		s.PostDate = parsePostDate(postDate)
		if acct, ok := b.byGUID[s.AccountGUID]; ok {
			s.Account = acct.FullName
			s.Currency = acct.Currency
		}
		splits = append(splits, s)
	}
	return splits, rows.Err()
}
