// Package client is a small HTTP client for the bookgrep API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Info mirrors the /api/v1/info response.
type Info struct {
	Path             string `json:"path"`
	DefaultCurrency  string `json:"default_currency"`
	AccountCount     int    `json:"account_count"`
	TransactionCount int    `json:"transaction_count"`
	HasNotes         bool   `json:"has_notes"`
}

func (c *Client) GetInfo(ctx context.Context) (*Info, error) {
	var result Info
	if err := c.get(ctx, "/api/v1/info", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Account mirrors the account rows the API returns.
type Account struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Currency string `json:"currency"`
	GUID     string `json:"guid"`
}

// AccountQuery filters ListAccounts.
type AccountQuery struct {
	Pattern       string
	Regex         bool
	CaseSensitive bool
	Subtree       bool
}

func (c *Client) ListAccounts(ctx context.Context, q AccountQuery) ([]Account, error) {
	params := url.Values{}
	if q.Pattern != "" {
		params.Set("pattern", q.Pattern)
	}
	setBool(params, "regex", q.Regex)
	setBool(params, "case", q.CaseSensitive)
	setBool(params, "subtree", q.Subtree)

	var result []Account
	if err := c.get(ctx, "/api/v1/accounts?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) GetAccount(ctx context.Context, guid string) (*Account, error) {
	var result Account
	if err := c.get(ctx, "/api/v1/accounts/"+url.PathEscape(guid), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Split mirrors the split rows the API returns. Amounts are decimal strings.
type Split struct {
	Date         string `json:"date"`
	Description  string `json:"description"`
	Account      string `json:"account"`
	Memo         string `json:"memo"`
	Notes        string `json:"notes,omitempty"`
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
	FxRate       string `json:"fx_rate,omitempty"`
	TxGUID       string `json:"tx_guid"`
	SplitGUID    string `json:"split_guid"`
	AmountOrig   string `json:"amount_orig,omitempty"`
	CurrencyOrig string `json:"currency_orig,omitempty"`
}

// SearchQuery filters Search and ListAccountSplits.
type SearchQuery struct {
	Pattern       string
	Regex         bool
	CaseSensitive bool
	Fields        string
	Account       string
	After         string
	Before        string
	Amount        string
	Currency      string
	Signed        bool
	AlsoOriginal  bool
	Sort          string
	Reverse       bool
	Limit         int
	Offset        int
}

func (q SearchQuery) values() url.Values {
	params := url.Values{}
	if q.Pattern != "" {
		params.Set("pattern", q.Pattern)
	}
	setBool(params, "regex", q.Regex)
	setBool(params, "case", q.CaseSensitive)
	if q.Fields != "" {
		params.Set("fields", q.Fields)
	}
	if q.Account != "" {
		params.Set("account", q.Account)
	}
	if q.After != "" {
		params.Set("after", q.After)
	}
	if q.Before != "" {
		params.Set("before", q.Before)
	}
	if q.Amount != "" {
		params.Set("amount", q.Amount)
	}
	if q.Currency != "" {
		params.Set("currency", q.Currency)
	}
	setBool(params, "signed", q.Signed)
	setBool(params, "also_original", q.AlsoOriginal)
	if q.Sort != "" {
		params.Set("sort", q.Sort)
	}
	setBool(params, "reverse", q.Reverse)
	if q.Limit > 0 {
		params.Set("limit", fmt.Sprint(q.Limit))
	}
	if q.Offset > 0 {
		params.Set("offset", fmt.Sprint(q.Offset))
	}
	return params
}

func (c *Client) Search(ctx context.Context, q SearchQuery) ([]Split, error) {
	var result []Split
	if err := c.get(ctx, "/api/v1/search?"+q.values().Encode(), &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) ListAccountSplits(ctx context.Context, guid string, q SearchQuery) ([]Split, error) {
	var result []Split
	path := "/api/v1/accounts/" + url.PathEscape(guid) + "/splits?" + q.values().Encode()
	if err := c.get(ctx, path, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Transaction mirrors the /api/v1/transactions/{guid} response.
type Transaction struct {
	TxGUID            string  `json:"tx_guid"`
	Date              string  `json:"date"`
	Description       string  `json:"description"`
	Notes             string  `json:"notes,omitempty"`
	Splits            []Split `json:"splits"`
	UnbalancedContext bool    `json:"unbalanced_context,omitempty"`
}

func (c *Client) GetTransaction(ctx context.Context, guid, contextMode string) (*Transaction, error) {
	path := "/api/v1/transactions/" + url.PathEscape(guid)
	if contextMode != "" {
		path += "?context=" + url.QueryEscape(contextMode)
	}
	var result Transaction
	if err := c.get(ctx, path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetSplit(ctx context.Context, guid string) (*Split, error) {
	var result Split
	if err := c.get(ctx, "/api/v1/splits/"+url.PathEscape(guid), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Price mirrors the /api/v1/prices response.
type Price struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Date  string `json:"date"`
	Found bool   `json:"found"`
	Rate  string `json:"rate,omitempty"`
}

func (c *Client) GetPrice(ctx context.Context, from, to, date string) (*Price, error) {
	params := url.Values{}
	params.Set("from", from)
	params.Set("to", to)
	params.Set("date", date)
	var result Price
	if err := c.get(ctx, "/api/v1/prices?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Ping checks if the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/v1/info", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func setBool(params url.Values, key string, v bool) {
	if v {
		params.Set(key, "true")
	}
}

type apiError struct {
	Error string `json:"error"`
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.doRequest(req, result)
}

func (c *Client) doRequest(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(bodyBytes, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server error (%d): %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server error (%d): %s", resp.StatusCode, string(bodyBytes))
	}

	if result != nil {
		if err := json.Unmarshal(bodyBytes, result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
