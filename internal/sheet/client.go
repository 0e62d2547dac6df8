package sheet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/storystudio/ledger/internal/models"
)

const contentTypeText = "text/plain;charset=utf-8"

// Client issues load and save requests against a sheet endpoint. It never
// touches local state; results are only visible through return values.
type Client struct {
	httpClient *http.Client
	log        *zap.Logger
	readMethod string
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithReadMethod selects how load requests are sent: http.MethodGet puts the
// action in the query string, http.MethodPost puts it in the body. Both are
// the same read intent for the endpoint.
func WithReadMethod(method string) Option {
	return func(c *Client) {
		if method == http.MethodPost {
			c.readMethod = http.MethodPost
			return
		}
		c.readMethod = http.MethodGet
	}
}

// NewClient creates a Client on top of httpClient (http.DefaultClient when nil).
// No timeout is added; the transport's own behaviour applies.
func NewClient(httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{
		httpClient: httpClient,
		log:        zap.NewNop(),
		readMethod: http.MethodGet,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load fetches both sheets from endpoint and decodes them.
func (c *Client) Load(ctx context.Context, endpoint string) (models.Dataset, error) {
	target := Normalize(endpoint)

	var (
		req *http.Request
		err error
	)
	if c.readMethod == http.MethodPost {
		req, err = c.newPost(ctx, target, Request{Action: ActionLoad})
	} else {
		req, err = newLoadGet(ctx, target)
	}
	if err != nil {
		return models.Dataset{}, err
	}

	resp, err := c.roundTrip(req, false)
	if err != nil {
		return models.Dataset{}, fmt.Errorf("load: %w", err)
	}

	ds := models.Dataset{
		Transactions: []models.Transaction{},
		Users:        []models.User{},
	}
	if resp.Data != nil {
		ds.Transactions = DecodeTransactions(resp.Data.Transactions)
		ds.Users = DecodeUsers(resp.Data.Users)
	}
	c.log.Debug("sheet load succeeded",
		zap.Int("transactions", len(ds.Transactions)),
		zap.Int("users", len(ds.Users)),
	)
	return ds, nil
}

// Save overwrites both remote sheets with the full contents of ds.
// There is no partial save.
func (c *Client) Save(ctx context.Context, endpoint string, ds models.Dataset) error {
	req, err := c.newPost(ctx, Normalize(endpoint), Request{
		Action:       ActionSave,
		Transactions: EncodeTransactions(ds.Transactions),
		Users:        EncodeUsers(ds.Users),
	})
	if err != nil {
		return err
	}

	resp, err := c.roundTrip(req, true)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	c.log.Debug("sheet save succeeded", zap.String("message", resp.Message))
	return nil
}

// Initialize probes endpoint by performing a load. It reports true iff the
// load returned data; it has no protocol of its own.
func (c *Client) Initialize(ctx context.Context, endpoint string) bool {
	_, err := c.Load(ctx, endpoint)
	return err == nil
}

func newLoadGet(ctx context.Context, target string) (*http.Request, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("%w: parse endpoint: %w", ErrUnreachable, err)
	}
	q := u.Query()
	q.Set("action", ActionLoad)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrUnreachable, err)
	}
	return req, nil
}

func (c *Client) newPost(ctx context.Context, target string, body Request) (*http.Request, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrUnreachable, err)
	}
	req.Header.Set("Content-Type", contentTypeText)
	return req, nil
}

// roundTrip sends req and classifies the body. The HTTP status code is not
// consulted: the sheet endpoint reports errors in the body and a sign-in page
// may arrive with any status.
func (c *Client) roundTrip(req *http.Request, allowEmpty bool) (*Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrUnreachable, err)
	}

	out, err := classify(body, allowEmpty)
	if err != nil && isHTML(body) {
		c.log.Warn("sheet endpoint answered with HTML",
			zap.String("url", req.URL.Redacted()),
			zap.Int("status", resp.StatusCode),
			zap.String("hint", HTMLHint),
		)
	}
	return out, err
}

// classify turns a raw response body into a Response or one of the failure kinds.
// The HTML check runs before any JSON decoding.
func classify(body []byte, allowEmpty bool) (*Response, error) {
	trimmed := trimBody(body)
	if len(trimmed) == 0 {
		if allowEmpty {
			return &Response{Status: StatusSuccess}, nil
		}
		return nil, fmt.Errorf("%w: empty body", ErrMalformedPayload)
	}
	if isHTML(trimmed) {
		return nil, ErrUnexpectedHTML
	}

	var resp Response
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if resp.Status != StatusSuccess {
		return nil, fmt.Errorf("%w: status %q: %s", ErrRemoteRejected, resp.Status, resp.Message)
	}
	return &resp, nil
}

func isHTML(body []byte) bool {
	trimmed := trimBody(body)
	return len(trimmed) > 0 && trimmed[0] == '<'
}

var utf8BOM = []byte("\xEF\xBB\xBF")

// trimBody strips surrounding whitespace and a leading byte-order mark.
func trimBody(body []byte) []byte {
	return bytes.TrimSpace(bytes.TrimPrefix(bytes.TrimSpace(body), utf8BOM))
}
