// Package client implements a client of the dbmap HTTP API.
package client

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

	"go.hackfix.me/dbmap/dbmap"
	"go.hackfix.me/dbmap/store"
	"go.hackfix.me/dbmap/web/server/types"
)

// Client queries the map served by a dbmap server. Failures are reported with
// the same error kinds as a local map.
type Client struct {
	*http.Client
	address string
}

var _ dbmap.TextMap = &Client{}

// New returns a client of the server listening on address ([host]:port).
func New(address string) *Client {
	return &Client{
		Client:  &http.Client{Timeout: 10 * time.Second},
		address: address,
	}
}

// Get returns the value of key.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	resp := &types.MapGetResponse{}
	if err := c.do(ctx, "get", http.MethodGet, valueURL(c.address, key), nil, resp); err != nil {
		return "", err
	}
	return resp.Value, nil
}

// Set stores value under key.
func (c *Client) Set(ctx context.Context, key, value string) error {
	body, err := json.Marshal(&types.MapSetRequest{Value: &value})
	if err != nil {
		return store.NewError("insert", dbmap.ErrEncodeFailed, err)
	}

	return c.do(ctx, "insert", http.MethodPost, valueURL(c.address, key),
		bytes.NewReader(body), &types.MapSetResponse{})
}

// GetKeys returns the keys that store value.
func (c *Client) GetKeys(ctx context.Context, value string) ([]string, error) {
	u := keysURL(c.address)
	u.RawQuery = url.Values{"value": {value}}.Encode()

	resp := &types.MapKeysResponse{}
	if err := c.do(ctx, "get keys", http.MethodGet, u, nil, resp); err != nil {
		return nil, err
	}
	return resp.Keys, nil
}

// Keys returns all keys.
func (c *Client) Keys(ctx context.Context) ([]string, error) {
	resp := &types.MapKeysResponse{}
	if err := c.do(ctx, "keys", http.MethodGet, keysURL(c.address), nil, resp); err != nil {
		return nil, err
	}
	return resp.Keys, nil
}

// Delete deletes key.
func (c *Client) Delete(ctx context.Context, key string) error {
	return c.do(ctx, "delete", http.MethodDelete, valueURL(c.address, key),
		nil, &types.MapDeleteResponse{})
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.CloseIdleConnections()
	return nil
}

// do sends the request and decodes the response body into out, which must
// embed *types.Response.
func (c *Client) do(
	ctx context.Context, op, method string, u *url.URL, body io.Reader, out any,
) error {
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return store.NewError(op, dbmap.ErrUnavailable,
			fmt.Errorf("failed creating request: %w", err))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return store.NewError(op, dbmap.ErrUnavailable,
			fmt.Errorf("failed sending request: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return store.NewError(op, dbmap.ErrUnavailable,
			fmt.Errorf("failed reading response body: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		errResp := &types.Response{}
		msg := resp.Status
		if err := json.Unmarshal(respBody, errResp); err == nil && errResp.Error != "" {
			msg = errResp.Error
		}
		return store.NewError(op, types.ErrorKind(resp.StatusCode),
			fmt.Errorf("request '%s %s' failed: %s", method, u.Path, msg))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return store.NewError(op, dbmap.ErrUnavailable,
			fmt.Errorf("failed unmarshalling response body: %w", err))
	}

	return nil
}

// valueURL returns the URL of key. The key is escaped as a single path segment
// and the path is never cleaned, so that the server receives it unchanged.
func valueURL(address, key string) *url.URL {
	const prefix = "/api/v1/map/value/"
	escaped := url.PathEscape(key)
	if key == "." || key == ".." {
		escaped = strings.ReplaceAll(key, ".", "%2E")
	}

	return &url.URL{
		Scheme:  "http",
		Host:    address,
		Path:    prefix + key,
		RawPath: prefix + escaped,
	}
}

func keysURL(address string) *url.URL {
	return &url.URL{Scheme: "http", Host: address, Path: "/api/v1/map/keys"}
}
