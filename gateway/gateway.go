// Package gateway sends operations to the catalog over HTTP. It owns the
// single http.Client of the process.
package gateway

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/99designs/gqlgen/graphql"

	"compendium/catalog-relay/config"
	"compendium/catalog-relay/metrics"
	"compendium/catalog-relay/operations"
)

const (
	RestLiProtocolHeader  = "X-RestLi-Protocol-Version"
	RestLiProtocolVersion = "2.0.0"

	ActionIngest = "ingest"
	ActionDelete = "delete"
)

var (
	// ErrUpstreamUnavailable covers network failures, cancellation and
	// deadlines. Calls are never retried.
	ErrUpstreamUnavailable = errors.New("catalog unavailable")
	ErrMalformedResponse   = errors.New("malformed catalog response")
)

// UpstreamError is a catalog response with an unexpected status. Status and
// Body are handed back to the REST caller unchanged.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("catalog responded with status %d", e.Status)
}

// Request is the JSON body of a GraphQL call.
type Request struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName,omitempty"`
}

// Client is safe for concurrent use. Build one per process with New and
// release it with Close.
type Client struct {
	httpClient *http.Client
	graphqlURL string
	ingestURL  *url.URL
	headers    http.Header
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// New builds the catalog client from configuration. m may be nil.
func New(cfg config.CatalogConfig, m *metrics.Metrics, logger *slog.Logger) (*Client, error) {
	ingestURL, err := url.Parse(cfg.IngestURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ingest URL: %w", err)
	}

	headers := make(http.Header)
	for name, value := range cfg.Headers {
		headers.Set(name, value)
	}
	if cfg.Actor != "" {
		headers.Set(config.ActorHeader, cfg.Actor)
	}
	if cfg.Token != "" {
		headers.Set("Authorization", "Bearer "+cfg.Token)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		graphqlURL: cfg.GraphqlURL,
		ingestURL:  ingestURL,
		headers:    headers,
		metrics:    m,
		logger:     logger,
	}, nil
}

// Close releases idle connections held by the client.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// Execute sends op with variables to the GraphQL endpoint. Any 2xx response is
// decoded into a GraphQL response; anything else is an *UpstreamError.
func (c *Client) Execute(ctx context.Context, op *operations.Operation, variables map[string]interface{}) (*graphql.Response, error) {
	body, err := json.Marshal(Request{
		Query:         op.Document,
		Variables:     variables,
		OperationName: op.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	raw, err := c.post(ctx, op.Name, c.graphqlURL, body, nil, isSuccess)
	if err != nil {
		return nil, err
	}

	var resp graphql.Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &resp, nil
}

// Ingest posts payload to the ingest endpoint with the given rest.li action.
// Only a 200 counts as success.
func (c *Client) Ingest(ctx context.Context, action string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal ingest payload: %w", err)
	}

	extra := http.Header{}
	extra.Set(RestLiProtocolHeader, RestLiProtocolVersion)

	_, err = c.post(ctx, "ingest_"+action, c.actionURL(action), body, extra, isOK)
	return err
}

// actionURL returns the ingest URL with its action query parameter replaced.
func (c *Client) actionURL(action string) string {
	u := *c.ingestURL
	q := u.Query()
	q.Set("action", action)
	u.RawQuery = q.Encode()
	return u.String()
}

func isSuccess(status int) bool { return status >= 200 && status <= 299 }

func isOK(status int) bool { return status == http.StatusOK }

func (c *Client) post(ctx context.Context, operation, target string, body []byte, extra http.Header, accept func(int) bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for name, values := range c.headers {
		req.Header[name] = values
	}
	for name, values := range extra {
		req.Header[name] = values
	}

	c.logger.Debug("Sending catalog request", "operation", operation, "url", target)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveUpstream(operation, 0, time.Since(start))
		c.logger.Error("Catalog request failed", "operation", operation, "err", err)
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := readBody(resp)
	c.metrics.ObserveUpstream(operation, resp.StatusCode, time.Since(start))
	if err != nil {
		c.logger.Error("Failed to read catalog response", "operation", operation, "err", err)
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	c.logger.Debug("Catalog response", "operation", operation, "status", resp.StatusCode, "body", string(data))

	if !accept(resp.StatusCode) {
		return nil, &UpstreamError{Status: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}

// readBody reads the response body, decompressing it when the catalog
// honoured Accept-Encoding. Setting that header ourselves turns off the
// transport's transparent decompression.
func readBody(resp *http.Response) ([]byte, error) {
	if resp.Header.Get("Content-Encoding") != "gzip" {
		return io.ReadAll(resp.Body)
	}

	reader, err := gzip.NewReader(resp.Body)
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decompress response body: %w", err)
	}
	defer reader.Close()

	return io.ReadAll(reader)
}
