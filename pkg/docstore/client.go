package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultTimeout bounds every store call when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// Document is the envelope every stored document shares. Fields keeps the
// raw response body for callers that need more than the identity pair.
type Document struct {
	ID       string          `json:"id"`
	Revision string          `json:"revision"`
	Fields   json.RawMessage `json:"-"`
}

// Client performs single-document operations against the remote store.
// Every write or delete of an existing document must carry the document's
// current revision; the store rejects stale revisions with a conflict.
type Client interface {
	// Get fetches a document by id. Returns ErrNotFound if it does not
	// exist and ErrMalformedResponse if a success body lacks the id or
	// revision field.
	Get(ctx context.Context, collection, id string) (*Document, error)

	// Put writes the full document and returns the new revision token.
	// Returns ErrConflict when the document's revision is stale.
	Put(ctx context.Context, collection, id string, doc any) (string, error)

	// Delete removes the given revision of a document. Returns
	// ErrNotFound if the document is already absent.
	Delete(ctx context.Context, collection, id, revision string) error

	// Query posts the AND-combined clause structure and decodes the
	// matching documents into out.
	Query(ctx context.Context, collection string, query Query, out any) error
}

// Compile-time interface check.
var _ Client = (*client)(nil)

type client struct {
	log     logrus.FieldLogger
	baseURL string
	token   string
	httpc   *http.Client
}

// Options configures the document store client.
type Options struct {
	URL     string
	Token   string
	Timeout time.Duration
}

// NewClient creates a document store client for the given endpoint.
func NewClient(log logrus.FieldLogger, opts Options) (Client, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("store url is required")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &client{
		log:     log.WithField("component", "docstore"),
		baseURL: strings.TrimRight(opts.URL, "/"),
		token:   opts.Token,
		httpc:   &http.Client{Timeout: timeout},
	}, nil
}

// Get fetches a single document.
func (c *client) Get(
	ctx context.Context, collection, id string,
) (*Document, error) {
	body, status, err := c.do(
		ctx, http.MethodGet, c.docURL(collection, id), nil,
	)
	if err != nil {
		return nil, err
	}

	switch {
	case status == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	case !isSuccess(status):
		return nil, &StatusError{StatusCode: status, Body: trimBody(body)}
	}

	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if doc.ID == "" || doc.Revision == "" {
		return nil, fmt.Errorf(
			"%w: body missing id or revision", ErrMalformedResponse,
		)
	}

	doc.Fields = body

	return &doc, nil
}

// putResponse is the body returned by the store on a successful write.
type putResponse struct {
	ID       string `json:"id"`
	Revision string `json:"revision"`
	OK       bool   `json:"ok"`
}

// Put writes the full document and returns its new revision.
func (c *client) Put(
	ctx context.Context, collection, id string, doc any,
) (string, error) {
	body, status, err := c.do(
		ctx, http.MethodPut, c.docURL(collection, id), doc,
	)
	if err != nil {
		return "", err
	}

	switch {
	case status == http.StatusConflict:
		return "", fmt.Errorf("%w: %s/%s", ErrConflict, collection, id)
	case !isSuccess(status):
		return "", &StatusError{StatusCode: status, Body: trimBody(body)}
	}

	var resp putResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if resp.Revision == "" {
		return "", fmt.Errorf(
			"%w: write response missing revision", ErrMalformedResponse,
		)
	}

	return resp.Revision, nil
}

// Delete removes the given revision of a document.
func (c *client) Delete(
	ctx context.Context, collection, id, revision string,
) error {
	target := c.docURL(collection, id) + "?rev=" + url.QueryEscape(revision)

	body, status, err := c.do(ctx, http.MethodDelete, target, nil)
	if err != nil {
		return err
	}

	switch {
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	case !isSuccess(status):
		return &StatusError{StatusCode: status, Body: trimBody(body)}
	}

	return nil
}

// queryResponse wraps the documents matched by a query.
type queryResponse struct {
	Items json.RawMessage `json:"items"`
}

// Query posts the clause structure and decodes the matches into out.
func (c *client) Query(
	ctx context.Context, collection string, query Query, out any,
) error {
	target := c.baseURL + "/" + url.PathEscape(collection) + "/_query"

	body, status, err := c.do(ctx, http.MethodPost, target, query)
	if err != nil {
		return err
	}

	if !isSuccess(status) {
		return &StatusError{StatusCode: status, Body: trimBody(body)}
	}

	var resp queryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if len(resp.Items) == 0 {
		return nil
	}

	if err := json.Unmarshal(resp.Items, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return nil
}

// do executes a single HTTP call and returns the response body and status.
// Transport failures (including timeouts) are returned as-is; this layer
// never retries.
func (c *client) do(
	ctx context.Context, method, target string, payload any,
) ([]byte, int, error) {
	var reqBody io.Reader

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("encoding request body: %w", err)
		}

		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("calling store: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("reading response: %w", err)
	}

	c.log.WithField("method", method).
		WithField("url", target).
		WithField("status", resp.StatusCode).
		Trace("Store call")

	return body, resp.StatusCode, nil
}

// docURL builds the URL for a single document.
func (c *client) docURL(collection, id string) string {
	return c.baseURL + "/" +
		url.PathEscape(collection) + "/" + url.PathEscape(id)
}

// isSuccess reports whether the status code is in the 2xx range.
func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// maxErrorBody caps how much of an error response body is kept.
const maxErrorBody = 512

// trimBody normalizes an error response body for inclusion in messages.
func trimBody(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody]
	}

	return s
}
