package listview

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// FilterForm is the set of list inputs a request may carry. Absent fields are
// nil and leave the controller untouched.
type FilterForm struct {
	Search  *string
	Status  *string `validate:"omitempty,oneof=all active inactive"`
	Payment *string `validate:"omitempty,oneof=all paid unpaid"`
	Sort    *string `validate:"omitempty,max=64"`
	Page    *string `validate:"omitempty,number"`
}

// ParseFilterForm reads the recognised list parameters from values. The
// search term is kept verbatim; the enumerated fields are trimmed.
func ParseFilterForm(values url.Values) (FilterForm, error) {
	var form FilterForm
	pick := func(key string) *string {
		if !values.Has(key) {
			return nil
		}
		v := strings.TrimSpace(values.Get(key))
		return &v
	}
	if values.Has("search") {
		search := values.Get("search")
		form.Search = &search
	}
	form.Status = pick("status")
	form.Payment = pick("payment")
	form.Sort = pick("sort")
	form.Page = pick("page")
	if err := validate.Struct(form); err != nil {
		return FilterForm{}, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	return form, nil
}

// Empty reports whether the form carries no field at all.
func (f FilterForm) Empty() bool {
	return f.Search == nil && f.Status == nil && f.Payment == nil && f.Sort == nil && f.Page == nil
}

// Apply sets every present field on the controller. Filters are applied
// before the page so that an explicit page survives the reset they cause.
func (f FilterForm) Apply(c interface {
	SetFilter(field Field, value string) error
}) error {
	steps := []struct {
		field Field
		value *string
	}{
		{FieldSearch, f.Search},
		{FieldStatus, f.Status},
		{FieldPayment, f.Payment},
		{FieldSort, f.Sort},
		{FieldPage, f.Page},
	}
	for _, step := range steps {
		if step.value == nil {
			continue
		}
		if err := c.SetFilter(step.field, *step.value); err != nil {
			return err
		}
	}
	return nil
}

func parsePage(value string) (int, error) {
	page, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || page < 1 {
		return 0, fmt.Errorf("%w: page %q", ErrInvalidFilter, value)
	}
	return page, nil
}
