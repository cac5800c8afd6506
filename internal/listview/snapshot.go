package listview

// Snapshot is the serialisable state of a controller, persisted between
// requests of one session.
type Snapshot[T any] struct {
	Inputs     Inputs `json:"inputs"`
	Items      []T    `json:"items"`
	TotalPages int    `json:"totalPages"`
	Loaded     bool   `json:"loaded"`
	NoData     bool   `json:"noData"`
	LastError  string `json:"lastError,omitempty"`
	ModalID    string `json:"modalId,omitempty"`
	ModalError string `json:"modalError,omitempty"`
	// Seq is the request number of the response the held page came from.
	Seq uint64 `json:"seq"`
}

// Snapshot captures the controller state.
func (c *Controller[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot[T]{
		Inputs:     c.inputs,
		Items:      append([]T(nil), c.items...),
		TotalPages: c.totalPages,
		Loaded:     c.loaded,
		NoData:     c.noData,
		LastError:  c.lastErr,
		ModalID:    c.modalID,
		ModalError: c.modalErr,
		Seq:        c.issued,
	}
}

// Restore replaces the controller state with a snapshot. Missing inputs fall
// back to the entity defaults.
func (c *Controller[T]) Restore(s Snapshot[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defaults := DefaultInputs(c.entity)
	in := s.Inputs
	if in.Status == "" {
		in.Status = defaults.Status
	}
	if c.entity.HasPayment && in.Payment == "" {
		in.Payment = defaults.Payment
	}
	if !c.entity.validSort(in.SortKey) {
		in.SortKey = defaults.SortKey
	}
	if in.Page < 1 {
		in.Page = 1
	}
	c.inputs = in
	c.items = append([]T{}, s.Items...)
	c.totalPages = s.TotalPages
	c.loaded = s.Loaded
	c.noData = s.NoData
	c.lastErr = s.LastError
	c.modalID = s.ModalID
	c.modalErr = s.ModalError
	c.issued = s.Seq
}
