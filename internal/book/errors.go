package book

import "errors"

var (
	ErrBookNotFound        = errors.New("book file not found")
	ErrNotAFile            = errors.New("book path is not a regular file")
	ErrInvalidPattern      = errors.New("invalid search pattern")
	ErrAccountNotFound     = errors.New("account not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrSplitNotFound       = errors.New("split not found")
	ErrInvalidLookback     = errors.New("fx lookback days must not be negative")
	ErrNoCache             = errors.New("cache does not exist")
	ErrCacheExists         = errors.New("cache already exists")
)
