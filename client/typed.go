package client

import (
	"context"
	"net/http"

	"github.com/kbukum/gs2kit/response"
	"github.com/kbukum/gs2kit/transport"
)

// Get sends a GET call and decodes the 200 body into T.
func Get[T any](ctx context.Context, c *Client, call Call) (T, error) {
	return doTyped[T](ctx, c, http.MethodGet, call)
}

// Post sends a POST call and decodes the 200 body into T.
func Post[T any](ctx context.Context, c *Client, call Call) (T, error) {
	return doTyped[T](ctx, c, http.MethodPost, call)
}

// Put sends a PUT call and decodes the 200 body into T.
func Put[T any](ctx context.Context, c *Client, call Call) (T, error) {
	return doTyped[T](ctx, c, http.MethodPut, call)
}

// Delete sends a DELETE call and decodes the 200 body into T.
func Delete[T any](ctx context.Context, c *Client, call Call) (T, error) {
	return doTyped[T](ctx, c, http.MethodDelete, call)
}

func doTyped[T any](ctx context.Context, c *Client, method string, call Call) (T, error) {
	var out T
	err := c.do(ctx, method, call, func(resp *transport.Response) error {
		return response.ParseInto(resp, &out)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
