// Package api is a typed client of the CI REST API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	validator "gopkg.in/go-playground/validator.v9"

	"github.com/blankon/cidash/internal/entity"
	"github.com/blankon/cidash/pkg/httputil"
)

// ErrUnauthenticated is returned by admin calls made without a token.
var ErrUnauthenticated = errors.New("not signed in")

var errMalformed = errors.New("malformed or truncated JSON")

// DecodeError reports a response that is not valid JSON or does not match
// the expected shape.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid response from %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Client talks to one API deployment, optionally scoped to a tenant.
type Client struct {
	base     *url.URL
	tenant   string
	token    string
	http     *http.Client
	validate *validator.Validate
}

// Option configures a Client.
type Option func(*Client)

// WithTenant scopes every tenant resource to name.
func WithTenant(name string) Option {
	return func(c *Client) { c.tenant = name }
}

// WithToken sets the bearer token sent on admin calls.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.http = client }
}

// WithTimeout bounds every request.
// The client is copied first so a shared one is never changed.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		client := *c.http
		client.Timeout = timeout
		c.http = &client
	}
}

// New returns a client for the deployment served at apiURL.
func New(apiURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid api url %q: scheme must be http or https", apiURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	c := &Client{
		base:     base,
		http:     &http.Client{Timeout: 30 * time.Second},
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Tenant returns the tenant the client is scoped to.
func (c *Client) Tenant() string {
	return c.tenant
}

// WithTenant returns a copy of the client scoped to another tenant.
func (c *Client) WithTenant(name string) *Client {
	clone := *c
	clone.tenant = name
	return &clone
}

// WithToken returns a copy of the client carrying token.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.token = token
	return &clone
}

// Prefix is the absolute api prefix, ending with a slash.
func (c *Client) Prefix() string {
	prefix := *c.base
	prefix.Path += "api/"
	if c.tenant != "" {
		prefix.Path += "tenant/" + c.tenant + "/"
	}
	return prefix.String()
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.Prefix() + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// escapePath escapes each segment of a name that may contain slashes.
func escapePath(name string) string {
	segments := strings.Split(name, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}

// getRaw fetches path and checks that the body is a JSON document.
func (c *Client) getRaw(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	raw, err := httputil.DoRaw(ctx, c.http, http.MethodGet, c.endpoint(path, query), nil, nil)
	if err != nil {
		return nil, err
	}
	if !json.Valid(raw) {
		return nil, &DecodeError{Path: path, Err: errMalformed}
	}
	return raw, nil
}

// get fetches path into target and validates the result.
func (c *Client) get(ctx context.Context, path string, query url.Values, target interface{}) error {
	raw, err := c.getRaw(ctx, path, query)
	if err != nil {
		return err
	}
	return c.decode(path, raw, target)
}

func (c *Client) decode(path string, raw []byte, target interface{}) error {
	if err := json.Unmarshal(raw, target); err != nil {
		return &DecodeError{Path: path, Err: err}
	}
	if err := c.check(target); err != nil {
		return &DecodeError{Path: path, Err: err}
	}
	return nil
}

// check validates a struct or every struct of a slice.
func (c *Client) check(target interface{}) error {
	switch v := target.(type) {
	case *[]entity.Tenant:
		return eachStruct(c.validate, *v)
	case *[]entity.Build:
		return eachStruct(c.validate, *v)
	case *[]entity.Buildset:
		return eachStruct(c.validate, *v)
	case *[]entity.JobDefinition:
		return eachStruct(c.validate, *v)
	case *[]entity.Project:
		return eachStruct(c.validate, *v)
	case *[]entity.Node:
		return eachStruct(c.validate, *v)
	case *[]entity.Label:
		return eachStruct(c.validate, *v)
	case *[]entity.Autohold:
		return eachStruct(c.validate, *v)
	case *[]entity.ConfigError:
		return eachStruct(c.validate, *v)
	}
	return c.validate.Struct(target)
}

func eachStruct[T any](validate *validator.Validate, items []T) error {
	for i := range items {
		if err := validate.Struct(items[i]); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, payload, target interface{}) error {
	if c.token == "" {
		return ErrUnauthenticated
	}
	if payload != nil {
		if err := c.validate.Struct(payload); err != nil {
			return err
		}
	}
	header := http.Header{"Authorization": {"Bearer " + c.token}}
	err := httputil.DoJSON(ctx, c.http, method, c.endpoint(path, nil), header, payload, target)

	var statusErr httputil.HTTPStatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	return err
}
