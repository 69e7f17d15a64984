// Package airtable is the read layer over the portal's source-of-truth base.
// It hides the REST API's pagination: every list call accumulates all pages
// before returning, so callers see an all-or-nothing result.
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrNotFound signals a missing single record, distinct from transport errors.
var ErrNotFound = errors.New("airtable: record not found")

// Table names in the source base.
const (
	TableEvents    = "events"
	TableAdmins    = "admins"
	TableAttendees = "attendees"
	TableVenues    = "venues"
)

// Record is one raw row from the source base: a stable string id plus a flat
// field map keyed by the base's own field vocabulary.
type Record struct {
	ID          string         `json:"id"`
	Fields      map[string]any `json:"fields"`
	CreatedTime time.Time      `json:"createdTime"`
}

type listResponse struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset"`
}

// Client talks to one Airtable base.
type Client struct {
	baseURL string
	baseID  string
	apiKey  string
	timeout time.Duration
	http    *http.Client
}

// NewClient builds a client for the given base. timeout bounds each API call
// so a hung remote read cannot wedge the sync pipeline.
func NewClient(baseURL, baseID, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		baseID:  baseID,
		apiKey:  apiKey,
		timeout: timeout,
		http:    &http.Client{Timeout: timeout},
	}
}

type listOptions struct {
	filterByFormula string
	sortField       string
}

// listRecords follows the offset cursor until the base reports no more pages.
func (c *Client) listRecords(ctx context.Context, table string, opts listOptions) ([]Record, error) {
	var all []Record
	offset := ""
	for {
		page, next, err := c.listPage(ctx, table, opts, offset)
		if err != nil {
			return nil, fmt.Errorf("airtable: list %s: %w", table, err)
		}
		all = append(all, page...)
		if next == "" {
			return all, nil
		}
		offset = next
	}
}

func (c *Client) listPage(ctx context.Context, table string, opts listOptions, offset string) ([]Record, string, error) {
	q := url.Values{}
	q.Set("pageSize", "100")
	if opts.filterByFormula != "" {
		q.Set("filterByFormula", opts.filterByFormula)
	}
	if opts.sortField != "" {
		q.Set("sort[0][field]", opts.sortField)
		q.Set("sort[0][direction]", "asc")
	}
	if offset != "" {
		q.Set("offset", offset)
	}

	body, status, err := c.do(ctx, http.MethodGet, c.tableURL(table)+"?"+q.Encode(), nil)
	if err != nil {
		return nil, "", err
	}
	if status != http.StatusOK {
		return nil, "", fmt.Errorf("status %d: %s", status, truncate(body, 200))
	}
	var resp listResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, "", fmt.Errorf("decode response: %w", err)
	}
	return resp.Records, resp.Offset, nil
}

// getRecord fetches one row by id. A 404 maps to ErrNotFound.
func (c *Client) getRecord(ctx context.Context, table, id string) (*Record, error) {
	body, status, err := c.do(ctx, http.MethodGet, c.tableURL(table)+"/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("airtable: get %s/%s: %w", table, id, err)
	}
	switch status {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("airtable: get %s/%s: status %d: %s", table, id, status, truncate(body, 200))
	}
	var rec Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("airtable: get %s/%s: decode: %w", table, id, err)
	}
	return &rec, nil
}

// UpdateRecord patches the given fields on one source record. The mirror is
// never written directly by callers; updates go here first, then caches are
// invalidated, and the next sync run picks the change up.
func (c *Client) UpdateRecord(ctx context.Context, table, id string, fields map[string]any) error {
	payload, err := json.Marshal(map[string]any{"fields": fields})
	if err != nil {
		return err
	}
	body, status, err := c.do(ctx, http.MethodPatch, c.tableURL(table)+"/"+url.PathEscape(id), payload)
	if err != nil {
		return fmt.Errorf("airtable: update %s/%s: %w", table, id, err)
	}
	switch status {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return fmt.Errorf("airtable: update %s/%s: status %d: %s", table, id, status, truncate(body, 200))
	}
}

func (c *Client) do(ctx context.Context, method, rawURL string, payload []byte) ([]byte, int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

func (c *Client) tableURL(table string) string {
	return fmt.Sprintf("%s/%s/%s", c.baseURL, c.baseID, table)
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
