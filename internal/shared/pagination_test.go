package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPaginationRendersTotalPagesButtons(t *testing.T) {
	cases := []struct {
		name  string
		page  int
		total int
	}{
		{name: "in range", page: 2, total: 4},
		{name: "beyond last page", page: 9, total: 4},
		{name: "zero page", page: 0, total: 3},
		{name: "no pages", page: 1, total: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPagination(tc.page, 10, tc.total)
			assert.Len(t, p.Buttons, tc.total)
			active := 0
			for i, b := range p.Buttons {
				assert.Equal(t, i+1, b.Number)
				if b.Active {
					active++
					assert.Equal(t, tc.page, b.Number)
				}
			}
			if tc.page >= 1 && tc.page <= tc.total {
				assert.Equal(t, 1, active)
			} else {
				assert.Zero(t, active)
			}
		})
	}
}

func TestNewPaginationClampsNegativeTotal(t *testing.T) {
	p := NewPagination(1, 0, -3)
	assert.Empty(t, p.Buttons)
	assert.Equal(t, 10, p.PerPage)
}
