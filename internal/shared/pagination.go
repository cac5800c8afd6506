package shared

// PageButton is one numbered control in a pagination bar.
type PageButton struct {
	Number int
	Active bool
}

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int
	PerPage    int
	TotalPages int
	Buttons    []PageButton
	// Path is the list URL the buttons link to.
	Path string
}

// NewPagination builds exactly totalPages buttons. The current page only
// decides which button is highlighted, so an out-of-range page never changes
// the number of buttons rendered.
func NewPagination(page, perPage, totalPages int) Pagination {
	if perPage <= 0 {
		perPage = 10
	}
	if totalPages < 0 {
		totalPages = 0
	}
	buttons := make([]PageButton, 0, totalPages)
	for n := 1; n <= totalPages; n++ {
		buttons = append(buttons, PageButton{Number: n, Active: n == page})
	}
	return Pagination{Page: page, PerPage: perPage, TotalPages: totalPages, Buttons: buttons}
}
