package listview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// ViewState summarises what the list area should show.
type ViewState string

const (
	ViewLoading ViewState = "loading"
	ViewNoData  ViewState = "no_data"
	ViewEmpty   ViewState = "empty"
	ViewReady   ViewState = "ready"
)

// Options configures a Controller.
type Options struct {
	PageSize  int
	Sequencer Sequencer
	Observer  Observer
	Logger    *slog.Logger
}

// Controller owns the inputs and the single held page of one entity list.
// It is safe for concurrent use.
type Controller[T any] struct {
	entity   Entity[T]
	fetcher  Fetcher[T]
	seq      Sequencer
	observer Observer
	logger   *slog.Logger
	pageSize int

	mu         sync.Mutex
	inputs     Inputs
	items      []T
	totalPages int
	loaded     bool
	noData     bool
	lastErr    string
	inFlight   int
	issued     uint64
	modalID    string
	modalErr   string
}

// NewController builds a controller with default inputs (page 1, default sort).
func NewController[T any](entity Entity[T], fetcher Fetcher[T], opts Options) *Controller[T] {
	c := &Controller[T]{
		entity:   entity,
		fetcher:  fetcher,
		seq:      opts.Sequencer,
		observer: opts.Observer,
		logger:   opts.Logger,
		pageSize: opts.PageSize,
	}
	if c.seq == nil {
		c.seq = &CounterSequencer{}
	}
	if c.observer == nil {
		c.observer = nopObserver{}
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if c.pageSize <= 0 {
		c.pageSize = DefaultPageSize
	}
	c.inputs = DefaultInputs(entity)
	return c
}

// DefaultInputs returns the inputs a freshly mounted list starts with.
func DefaultInputs[T any](entity Entity[T]) Inputs {
	in := Inputs{Status: StatusAll, SortKey: entity.DefaultSort, Page: 1}
	if entity.HasPayment {
		in.Payment = PaymentAll
	}
	return in
}

// Entity returns the descriptor the controller was built with.
func (c *Controller[T]) Entity() Entity[T] {
	return c.entity
}

// Inputs returns the current inputs.
func (c *Controller[T]) Inputs() Inputs {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inputs
}

// SetFilter updates one input. Changing the search term, a filter or the sort
// key moves back to page 1 on every list; setting the page stores it verbatim.
func (c *Controller[T]) SetFilter(field Field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.inputs
	switch field {
	case FieldSearch:
		next.Search = value
	case FieldStatus:
		if value != StatusAll && value != StatusActive && value != StatusInactive {
			return fmt.Errorf("%w: status %q", ErrInvalidFilter, value)
		}
		next.Status = value
	case FieldPayment:
		if !c.entity.HasPayment {
			return fmt.Errorf("%w: %s has no payment filter", ErrInvalidFilter, c.entity.Name)
		}
		if value != PaymentAll && value != PaymentPaid && value != PaymentUnpaid {
			return fmt.Errorf("%w: payment %q", ErrInvalidFilter, value)
		}
		next.Payment = value
	case FieldSort:
		if !c.entity.validSort(value) {
			return fmt.Errorf("%w: sort key %q", ErrInvalidFilter, value)
		}
		next.SortKey = value
	case FieldPage:
		page, err := parsePage(value)
		if err != nil {
			return err
		}
		if c.loaded && page > max(c.totalPages, 1) {
			return fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, page, c.totalPages)
		}
		c.inputs.Page = page
		return nil
	default:
		return fmt.Errorf("%w: unknown field %q", ErrInvalidFilter, field)
	}

	if next != c.inputs {
		next.Page = 1
		c.inputs = next
	}
	return nil
}

// Query derives the request for the current inputs.
func (c *Controller[T]) Query() Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queryLocked()
}

func (c *Controller[T]) queryLocked() Query {
	in := c.inputs
	if !c.entity.HasPayment {
		in.Payment = ""
	}
	return Query{Inputs: in, SortOrder: SortAsc, Limit: c.pageSize}
}

// Refresh issues exactly one fetch for the current inputs and applies the
// response if no newer request was issued meanwhile. Superseded responses
// are dropped with ErrStaleResponse and leave the held page untouched.
func (c *Controller[T]) Refresh(ctx context.Context) error {
	c.mu.Lock()
	q := c.queryLocked()
	c.mu.Unlock()

	seq, err := c.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("listview: issue %s request: %w", c.entity.Name, err)
	}

	c.mu.Lock()
	c.inFlight++
	c.issued = seq
	c.mu.Unlock()

	res, fetchErr := c.fetcher.Fetch(ctx, q)
	latest, seqErr := c.seq.Latest(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight--

	if seqErr != nil {
		return fmt.Errorf("listview: check %s request order: %w", c.entity.Name, seqErr)
	}
	if latest != seq {
		c.observer.StaleResponse(c.entity.Name)
		c.logger.Debug("discard stale list response",
			slog.String("entity", c.entity.Name),
			slog.Uint64("seq", seq),
			slog.Uint64("latest", latest))
		return ErrStaleResponse
	}

	if fetchErr != nil {
		c.applyFailureLocked(fetchErr)
		return fmt.Errorf("listview: fetch %s: %w", c.entity.Name, fetchErr)
	}
	c.applySuccessLocked(res)
	return nil
}

func (c *Controller[T]) applySuccessLocked(res PageResult[T]) {
	c.items = append([]T{}, res.Items...)
	c.totalPages = max(res.TotalPages, 0)
	if c.entity.AcceptServerPage && res.CurrentPage >= 1 {
		c.inputs.Page = res.CurrentPage
	}
	c.loaded = true
	c.noData = false
	c.lastErr = ""

	if hidden := len(c.items) - len(c.visibleLocked()); hidden > 0 {
		c.observer.FilterMismatch(c.entity.Name, hidden)
		c.logger.Warn("server page contains rows outside current filters",
			slog.String("entity", c.entity.Name),
			slog.Int("hidden", hidden))
	}
}

func (c *Controller[T]) applyFailureLocked(err error) {
	c.logger.Error("fetch list page",
		slog.String("entity", c.entity.Name),
		slog.Any("error", err))
	c.lastErr = err.Error()
	if c.entity.ClearOnFailure {
		c.items = []T{}
		c.totalPages = 0
		c.noData = true
		c.loaded = true
	}
}

// Items returns a copy of the held page in server order.
func (c *Controller[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.items...)
}

// Visible returns the held rows that also satisfy the inputs locally, in
// local sort order. The server stays authoritative for which page is held;
// this layer only hides rows that contradict the current inputs.
func (c *Controller[T]) Visible() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visibleLocked()
}

func (c *Controller[T]) visibleLocked() []T {
	out := make([]T, 0, len(c.items))
	for _, item := range c.items {
		if c.entity.Match == nil || c.entity.Match(item, c.inputs) {
			out = append(out, item)
		}
	}
	if c.entity.Less != nil {
		key := c.inputs.SortKey
		sort.SliceStable(out, func(i, j int) bool { return c.entity.Less(out[i], out[j], key) })
	}
	return out
}

// Loaded reports whether a response (or a clearing failure) was ever applied.
func (c *Controller[T]) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// TotalPages returns the last known server page count.
func (c *Controller[T]) TotalPages() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalPages
}

// LastError returns the message of the last failed fetch, if any.
func (c *Controller[T]) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// State reports what the list area should display.
func (c *Controller[T]) State() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.inFlight > 0 || !c.loaded:
		return ViewLoading
	case c.noData:
		return ViewNoData
	case len(c.visibleLocked()) == 0:
		return ViewEmpty
	default:
		return ViewReady
	}
}

// Mutate applies fn to the held entity with the given ID.
func (c *Controller[T]) Mutate(id string, fn func(item *T) error) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mutateLocked(id, fn)
}

func (c *Controller[T]) mutateLocked(id string, fn func(item *T) error) (T, error) {
	var zero T
	idx := c.indexLocked(id)
	if idx < 0 {
		return zero, fmt.Errorf("%w: %s %s", ErrNotFound, c.entity.Name, id)
	}
	updated := c.items[idx]
	if err := fn(&updated); err != nil {
		return zero, err
	}
	c.items[idx] = updated
	return updated, nil
}

// Remove drops exactly one held entity.
func (c *Controller[T]) Remove(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removeLocked(id)
}

func (c *Controller[T]) removeLocked(id string) error {
	idx := c.indexLocked(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s %s", ErrNotFound, c.entity.Name, id)
	}
	c.items = append(c.items[:idx:idx], c.items[idx+1:]...)
	return nil
}

func (c *Controller[T]) indexLocked(id string) int {
	for i, item := range c.items {
		if c.entity.ID(item) == id {
			return i
		}
	}
	return -1
}

// IsStale reports whether err only signals a superseded response.
func IsStale(err error) bool {
	return errors.Is(err, ErrStaleResponse)
}
