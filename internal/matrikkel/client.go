// Package matrikkel builds requests for the cadastral registry (Matrikkel)
// and reshapes its responses. Nothing in this package performs I/O; see the
// transport package for the collaborator that sends requests.
package matrikkel

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"masseutsendelse/internal/geometry"
	dErrors "masseutsendelse/pkg/domain-errors"
)

// Registry endpoints, relative to the configured base URL.
const (
	PathUnits = "matrikkelenheter"
	PathStore = "store"
)

const (
	headerContentType = "Content-Type"
	headerAPIKey      = "X-API-KEY"
	contentTypeJSON   = "application/json"

	proxySegment = "matrikkel/"
)

// Config holds the registry settings read at startup. ProxyBaseURL, when
// set, routes every call through the application proxy and BaseURL is
// ignored.
type Config struct {
	BaseURL      string
	ProxyBaseURL string
	APIKey       string
	ClientID     string
}

// Context identifies the calling client to the registry.
type Context struct {
	KlientIdentifikasjon string `json:"klientIdentifikasjon"`
}

// RequestBody is the JSON payload posted to the registry.
type RequestBody struct {
	KoordinatsystemKodeID CoordinateSystemCode  `json:"koordinatsystemKodeId"`
	Polygon               []geometry.Coordinate `json:"polygon,omitempty"`
	Items                 []any                 `json:"items,omitempty"`
	MatrikkelContext      Context               `json:"matrikkelContext"`
}

// Request is a fully built registry call. A Request is created per call and
// is not reused.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    RequestBody
}

// UnitsResponse is the registry's answer to a units lookup.
type UnitsResponse struct {
	Units  []Record `json:"units"`
	Owners []Record `json:"owners"`
}

// QueryParam is one query string pair. A nil Value means absent.
type QueryParam struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Client builds registry requests from a fixed configuration.
type Client struct {
	baseURL        string
	proxyBaseURL   string
	apiKey         string
	defaultContext Context
}

// NewClient validates cfg and returns a request builder.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" && cfg.ProxyBaseURL == "" {
		return nil, errors.New("matrikkel: base URL cannot be empty")
	}
	if cfg.ClientID == "" {
		return nil, errors.New("matrikkel: client ID cannot be empty")
	}
	return &Client{
		baseURL:        cfg.BaseURL,
		proxyBaseURL:   cfg.ProxyBaseURL,
		apiKey:         cfg.APIKey,
		defaultContext: Context{KlientIdentifikasjon: cfg.ClientID},
	}, nil
}

// DefaultContext returns the context used when a call supplies none.
func (c *Client) DefaultContext() Context {
	return c.defaultContext
}

type requestOptions struct {
	context *Context
	query   []QueryParam
}

// RequestOption adjusts a single request.
type RequestOption func(*requestOptions)

// WithContext replaces the client's default context for one request.
func WithContext(ctx Context) RequestOption {
	return func(o *requestOptions) {
		o.context = &ctx
	}
}

// WithQuery appends query parameters in the given order.
func WithQuery(params ...QueryParam) RequestOption {
	return func(o *requestOptions) {
		o.query = append(o.query, params...)
	}
}

// UnitsRequest builds the lookup for every cadastral unit inside polygon.
func (c *Client) UnitsRequest(polygon geometry.Polygon, code CoordinateSystemCode, opts ...RequestOption) (*Request, error) {
	if len(polygon.Vertices) == 0 {
		return nil, dErrors.WithTitle(dErrors.CodeValidation, "Polygon mangler", "Polygon cannot be empty")
	}
	if code == 0 {
		return nil, dErrors.WithTitle(dErrors.CodeValidation, "Koordinatsystem mangler", "koordinatsystemKodeId cannot be empty")
	}
	return c.build(PathUnits, RequestBody{
		KoordinatsystemKodeID: code,
		Polygon:               polygon.Vertices,
	}, opts), nil
}

// StoreRequest builds the lookup for registry objects by id.
func (c *Client) StoreRequest(items []any, code CoordinateSystemCode, opts ...RequestOption) (*Request, error) {
	if items == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "items cannot be empty")
	}
	if code == 0 {
		return nil, dErrors.WithTitle(dErrors.CodeValidation, "Koordinatsystem mangler", "koordinatsystemKodeId cannot be empty")
	}
	return c.build(PathStore, RequestBody{
		KoordinatsystemKodeID: code,
		Items:                 items,
	}, opts), nil
}

func (c *Client) build(sub string, body RequestBody, opts []RequestOption) *Request {
	var o requestOptions
	for _, opt := range opts {
		opt(&o)
	}

	headers := map[string]string{headerContentType: contentTypeJSON}
	if c.apiKey != "" {
		headers[headerAPIKey] = c.apiKey
	}

	body.MatrikkelContext = c.defaultContext
	if o.context != nil {
		body.MatrikkelContext = *o.context
	}

	return &Request{
		Method:  http.MethodPost,
		URL:     appendQuery(c.endpoint(sub), o.query),
		Headers: headers,
		Body:    body,
	}
}

func (c *Client) endpoint(sub string) string {
	if c.proxyBaseURL != "" {
		return c.proxyBaseURL + proxySegment + url.PathEscape(sub)
	}
	return c.baseURL + sub
}

// appendQuery adds the present params to rawURL. Absent params leave no
// trace, not even a delimiter.
func appendQuery(rawURL string, params []QueryParam) string {
	var b strings.Builder
	b.WriteString(rawURL)
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	for _, p := range params {
		if p.Value == nil {
			continue
		}
		b.WriteString(sep)
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(fmt.Sprint(p.Value)))
		sep = "&"
	}
	return b.String()
}
