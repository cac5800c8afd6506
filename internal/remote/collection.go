package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/challan-admin/challan-admin/internal/listview"
)

// Remote API paths.
const (
	UsersPath   = "/api/v1/user/users"
	RecordsPath = "/api/v1/record/all"
)

// Collection fetches pages of one entity type.
type Collection[T any] struct {
	client   *Client
	name     string
	path     string
	itemsKey string
	body     func(listview.Query) any
}

// NewCollection builds a Fetcher posting body(q) to path and reading the
// entity array from itemsKey of the response.
func NewCollection[T any](client *Client, name, path, itemsKey string, body func(listview.Query) any) *Collection[T] {
	return &Collection[T]{client: client, name: name, path: path, itemsKey: itemsKey, body: body}
}

// Fetch implements listview.Fetcher.
func (c *Collection[T]) Fetch(ctx context.Context, q listview.Query) (listview.PageResult[T], error) {
	var raw map[string]json.RawMessage
	if err := c.client.do(ctx, c.name+".list", http.MethodPost, c.path, c.body(q), &raw); err != nil {
		return listview.PageResult[T]{}, err
	}

	res := listview.PageResult[T]{Items: []T{}}
	if data, ok := raw[c.itemsKey]; ok && string(data) != "null" {
		if err := json.Unmarshal(data, &res.Items); err != nil {
			return listview.PageResult[T]{}, fmt.Errorf("%w: decode %s: %v", ErrNetworkFailure, c.itemsKey, err)
		}
	}
	if data, ok := raw["totalPages"]; ok {
		if err := json.Unmarshal(data, &res.TotalPages); err != nil {
			return listview.PageResult[T]{}, fmt.Errorf("%w: decode totalPages: %v", ErrNetworkFailure, err)
		}
	}
	if data, ok := raw["currentPage"]; ok {
		// A malformed echo is ignored; the requested page stays in effect.
		_ = json.Unmarshal(data, &res.CurrentPage)
	}
	return res, nil
}

// DeleteRecord removes one record on the remote side.
func (c *Client) DeleteRecord(ctx context.Context, id string) error {
	return c.do(ctx, "records.delete", http.MethodDelete, "/api/v1/record/"+url.PathEscape(id), nil, nil)
}
