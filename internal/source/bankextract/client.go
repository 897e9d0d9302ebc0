// Package bankextract pages through a bank's proprietary extract API and
// maps its records into raw ledger entries. The bank streams paginated
// results rather than files, so there is no batch identity to gate on:
// deduplication relies solely on per-record fingerprints.
package bankextract

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dvloznov/statement-recon/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Source is the source tag stamped on transactions pulled from the bank
// extract API.
const Source = "BANK_EXTRACT"

const (
	defaultMaxPages   = 200
	defaultMaxRetries = 3
	defaultBackoff    = 500 * time.Millisecond
	defaultTimeout    = 30 * time.Second
)

// Client fetches statement pages from the extract API with bounded retry
// per page and a hard page-count ceiling, so a misbehaving or unpaginated
// upstream cannot drive unbounded iteration.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger

	maxPages   int
	maxRetries int
	backoff    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithMaxPages overrides the page-count ceiling.
func WithMaxPages(n int) Option {
	return func(c *Client) { c.maxPages = n }
}

// WithRetry overrides the per-page retry budget and base backoff.
func WithRetry(maxRetries int, backoff time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.backoff = backoff
	}
}

// NewClient creates a Client for the given API base URL.
func NewClient(baseURL string, log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		http:       &http.Client{Timeout: defaultTimeout},
		log:        log,
		maxPages:   defaultMaxPages,
		maxRetries: defaultMaxRetries,
		backoff:    defaultBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// entryDTO mirrors one record of the extract API's JSON wire format.
type entryDTO struct {
	Description              string          `json:"description"`
	ComplementaryDescription string          `json:"complementaryDescription,omitempty"`
	EncodedDate              json.Number     `json:"encodedDate"`
	Magnitude                decimal.Decimal `json:"magnitude"`
	SignIndicator            string          `json:"signIndicator,omitempty"`
	EntryTypeIndicator       string          `json:"entryTypeIndicator,omitempty"`
	TransactionCode          int64           `json:"transactionCode,omitempty"`
	LotNumber                int64           `json:"lotNumber,omitempty"`
	DocumentNumber           int64           `json:"documentNumber,omitempty"`
	CounterpartyTaxID        string          `json:"counterpartyTaxId,omitempty"`
	CounterpartyPersonType   string          `json:"counterpartyPersonType,omitempty"`
}

// pageDTO is one page of the extract API response.
type pageDTO struct {
	Entries  []entryDTO `json:"entries"`
	NextPage int        `json:"nextPage"` // 0 when this is the last page
}

// FetchStatement pulls every statement page for an account in the given
// window and returns the raw entries in API order.
func (c *Client) FetchStatement(ctx context.Context, accountID string, from, to time.Time) ([]domain.RawLedgerEntry, error) {
	var entries []domain.RawLedgerEntry

	page := 1
	for fetched := 0; ; fetched++ {
		if fetched >= c.maxPages {
			return nil, fmt.Errorf("FetchStatement: page ceiling of %d reached for account %s", c.maxPages, accountID)
		}

		dto, err := c.fetchPage(ctx, accountID, from, to, page)
		if err != nil {
			return nil, err
		}

		for _, e := range dto.Entries {
			entries = append(entries, toRawEntry(e))
		}

		if dto.NextPage == 0 || len(dto.Entries) == 0 {
			break
		}
		page = dto.NextPage
	}

	c.log.Info().
		Str("account_id", accountID).
		Int("entries", len(entries)).
		Msg("Bank extract fetched")
	return entries, nil
}

// fetchPage retrieves a single page with bounded retry and linear backoff.
func (c *Client) fetchPage(ctx context.Context, accountID string, from, to time.Time, page int) (*pageDTO, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * c.backoff):
			}
			c.log.Warn().
				Int("page", page).
				Int("attempt", attempt).
				Err(lastErr).
				Msg("Retrying extract page")
		}

		dto, err := c.doFetchPage(ctx, accountID, from, to, page)
		if err == nil {
			return dto, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("fetchPage: page %d: retries exhausted: %w", page, lastErr)
}

func (c *Client) doFetchPage(ctx context.Context, accountID string, from, to time.Time, page int) (*pageDTO, error) {
	u, err := url.Parse(c.baseURL + "/accounts/" + url.PathEscape(accountID) + "/statement")
	if err != nil {
		return nil, fmt.Errorf("doFetchPage: parsing URL: %w", err)
	}
	q := u.Query()
	q.Set("from", from.Format("2006-01-02"))
	q.Set("to", to.Format("2006-01-02"))
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("doFetchPage: building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("doFetchPage: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("doFetchPage: unexpected status %d", resp.StatusCode)
	}

	var dto pageDTO
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
		return nil, fmt.Errorf("doFetchPage: decoding page %d: %w", page, err)
	}
	return &dto, nil
}

func toRawEntry(e entryDTO) domain.RawLedgerEntry {
	return domain.RawLedgerEntry{
		Description:              e.Description,
		ComplementaryDescription: e.ComplementaryDescription,
		EncodedDate:              e.EncodedDate.String(),
		Magnitude:                e.Magnitude,
		SignIndicator:            e.SignIndicator,
		EntryTypeIndicator:       e.EntryTypeIndicator,
		TransactionCode:          e.TransactionCode,
		LotNumber:                e.LotNumber,
		DocumentNumber:           e.DocumentNumber,
		CounterpartyTaxID:        e.CounterpartyTaxID,
		CounterpartyPersonType:   e.CounterpartyPersonType,
	}
}
