// Package listview implements the list-page data pipeline shared by the users
// and records screens: one set of filter, sort, search and pagination inputs
// is turned into one remote query, and exactly one page of results is held.
package listview

import (
	"context"
	"errors"
)

// Status filter values. For records the filter applies to the soft-delete flag.
const (
	StatusAll      = "all"
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Payment filter values (records only).
const (
	PaymentAll    = "all"
	PaymentPaid   = "paid"
	PaymentUnpaid = "unpaid"
)

// DefaultPageSize is the fixed number of entities per requested page.
const DefaultPageSize = 10

// SortOrder is the wire value of the sort direction.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Field names one settable input.
type Field string

const (
	FieldSearch  Field = "search"
	FieldStatus  Field = "status"
	FieldPayment Field = "payment"
	FieldSort    Field = "sort"
	FieldPage    Field = "page"
)

var (
	// ErrInvalidFilter is returned for values outside a field's enumeration.
	ErrInvalidFilter = errors.New("listview: invalid filter value")
	// ErrPageOutOfRange is returned for pages beyond the last known page.
	ErrPageOutOfRange = errors.New("listview: page out of range")
	// ErrStaleResponse marks a response superseded by a newer request.
	ErrStaleResponse = errors.New("listview: stale response discarded")
	// ErrNotFound is returned when an ID is not on the held page.
	ErrNotFound = errors.New("listview: entity not on held page")
)

// UserMessage returns display text for list errors, or "" for errors this
// package does not define.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidFilter):
		return "That filter value is not supported."
	case errors.Is(err, ErrPageOutOfRange):
		return "That page does not exist."
	case errors.Is(err, ErrNotFound):
		return "The selected item is no longer on this page."
	default:
		return ""
	}
}

// Inputs is the user-settable part of a list query.
type Inputs struct {
	Search  string `json:"search"`
	Status  string `json:"status"`
	Payment string `json:"payment,omitempty"`
	SortKey string `json:"sortKey"`
	Page    int    `json:"page"`
}

// Query is the canonical request derived from Inputs.
type Query struct {
	Inputs
	SortOrder SortOrder
	Limit     int
}

// PageResult is one server page. CurrentPage is zero when the server did not
// echo a page number.
type PageResult[T any] struct {
	Items       []T
	TotalPages  int
	CurrentPage int
}

// Fetcher executes a list query against the remote collection.
type Fetcher[T any] interface {
	Fetch(ctx context.Context, q Query) (PageResult[T], error)
}

// FetchFunc adapts a function to Fetcher.
type FetchFunc[T any] func(ctx context.Context, q Query) (PageResult[T], error)

// Fetch calls f.
func (f FetchFunc[T]) Fetch(ctx context.Context, q Query) (PageResult[T], error) {
	return f(ctx, q)
}

// Entity describes one entity collection to the generic controller.
type Entity[T any] struct {
	// Name is the collection name, also used as a storage and metrics label.
	Name string
	// SortKeys lists the accepted sort keys; DefaultSort must be one of them.
	SortKeys    []string
	DefaultSort string
	// HasPayment enables the payment filter.
	HasPayment bool
	// ID returns the immutable identifier of an entity.
	ID func(T) string
	// Match reports whether an entity satisfies the inputs locally.
	Match func(item T, in Inputs) bool
	// Less orders entities locally by sort key.
	Less func(a, b T, sortKey string) bool
	// Toggle applies the modal's primary flag action in place.
	Toggle func(item *T) error
	// ClearOnFailure drops the held page and flags NoData when a fetch fails.
	ClearOnFailure bool
	// AcceptServerPage adopts a current page echoed by the server.
	AcceptServerPage bool
}

func (e Entity[T]) validSort(key string) bool {
	for _, k := range e.SortKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Observer receives pipeline events, typically for metrics.
type Observer interface {
	StaleResponse(entity string)
	FilterMismatch(entity string, hidden int)
}

type nopObserver struct{}

func (nopObserver) StaleResponse(string)       {}
func (nopObserver) FilterMismatch(string, int) {}
