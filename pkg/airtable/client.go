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
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/persibuloi/kamenic/pkg/errors"
)

const (
	defaultBaseURL             = "https://api.airtable.com/v0"
	defaultPageSize            = 100
	errorBodyReadLimit   int64 = 1024
	defaultClientTimeout       = 20 * time.Second
)

var (
	errTokenRequired  = errors.New("airtable api token is required")
	errBaseIDRequired = errors.New("airtable base id is required")
)

// Record is one Airtable row. Fields keep whatever JSON shape the base returns.
type Record struct {
	ID          string         `json:"id"`
	CreatedTime string         `json:"createdTime,omitempty"`
	Fields      map[string]any `json:"fields"`
}

// SortField orders a list query.
type SortField struct {
	Field     string
	Direction string
}

// Query narrows a ListRecords call. BaseID overrides the client's base for tables that
// live in a separate base.
type Query struct {
	BaseID          string
	PageSize        int
	MaxRecords      int
	FilterByFormula string
	Sort            []SortField
}

// StatusError carries a non-2xx Airtable response.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Status, e.Body)
}

// StatusCode exposes the upstream status to error dumps.
func (e *StatusError) StatusCode() int {
	return e.Status
}

// Client talks to the Airtable REST API with a bearer token.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	baseID     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the API root, mostly for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 && c.httpClient != nil {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds an Airtable client for the given token and default base.
func NewClient(token, baseID string, opts ...Option) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errTokenRequired
	}
	baseID = strings.TrimSpace(baseID)
	if baseID == "" {
		return nil, errBaseIDRequired
	}

	client := &Client{
		token:      token,
		baseID:     baseID,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultClientTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultClientTimeout}
	}
	return client, nil
}

// ListRecords walks every page of table in order. Pages are fetched one after another,
// each carrying the previous page's offset. Any non-2xx page aborts the walk and nothing
// accumulated so far is returned.
func (c *Client) ListRecords(ctx context.Context, table string, q Query) ([]Record, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "airtable client not configured")
	}
	if strings.TrimSpace(table) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "airtable table is required")
	}

	var (
		records []Record
		offset  string
	)
	for {
		endpoint := c.tableURL(q.BaseID, table) + "?" + q.values(offset).Encode()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build airtable list request")
		}
		c.authorize(req)

		var page struct {
			Records []Record `json:"records"`
			Offset  string   `json:"offset"`
		}
		if err := c.do(req, &page); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("list %s failed", table))
		}
		records = append(records, page.Records...)
		if page.Offset == "" {
			return records, nil
		}
		offset = page.Offset
	}
}

// CreateRecord inserts one row and returns it as stored. Values are typecast, so select
// and linked-record fields accept plain strings.
func (c *Client) CreateRecord(ctx context.Context, baseID, table string, fields map[string]any) (*Record, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "airtable client not configured")
	}
	if strings.TrimSpace(table) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "airtable table is required")
	}

	payload, err := json.Marshal(map[string]any{"fields": fields, "typecast": true})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal airtable record")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tableURL(baseID, table), bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build airtable create request")
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	var created Record
	if err := c.do(req, &created); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("create in %s failed", table))
	}
	return &created, nil
}

func (c *Client) do(req *http.Request, dest any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
}

func (c *Client) tableURL(baseID, table string) string {
	if strings.TrimSpace(baseID) == "" {
		baseID = c.baseID
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(c.baseURL, "/"), url.PathEscape(baseID), url.PathEscape(table))
}

func (q Query) values(offset string) url.Values {
	v := url.Values{}
	size := q.PageSize
	if size <= 0 || size > defaultPageSize {
		size = defaultPageSize
	}
	v.Set("pageSize", strconv.Itoa(size))
	if q.MaxRecords > 0 {
		v.Set("maxRecords", strconv.Itoa(q.MaxRecords))
	}
	if q.FilterByFormula != "" {
		v.Set("filterByFormula", q.FilterByFormula)
	}
	for i, s := range q.Sort {
		v.Set(fmt.Sprintf("sort[%d][field]", i), s.Field)
		dir := strings.ToLower(s.Direction)
		if dir != "desc" {
			dir = "asc"
		}
		v.Set(fmt.Sprintf("sort[%d][direction]", i), dir)
	}
	if offset != "" {
		v.Set("offset", offset)
	}
	return v
}
