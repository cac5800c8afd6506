package listview_test

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/challan-admin/challan-admin/internal/listview"
)

func TestParseFilterFormAppliesPresentFields(t *testing.T) {
	backend := &fakeBackend{result: samplePage()}
	ctrl := listview.NewController(rowEntity(true, false), backend, listview.Options{})
	require.NoError(t, ctrl.Refresh(context.Background()))

	form, err := listview.ParseFilterForm(url.Values{
		"search":  {" bus 12 "},
		"payment": {"paid"},
		"page":    {"2"},
	})
	require.NoError(t, err)
	assert.False(t, form.Empty())
	assert.Nil(t, form.Status)
	require.NoError(t, form.Apply(ctrl))

	in := ctrl.Inputs()
	assert.Equal(t, " bus 12 ", in.Search)
	assert.Equal(t, listview.StatusAll, in.Status)
	assert.Equal(t, listview.PaymentPaid, in.Payment)
	assert.Equal(t, 2, in.Page)
}

func TestParseFilterFormRejectsBadValues(t *testing.T) {
	_, err := listview.ParseFilterForm(url.Values{"status": {"gone"}})
	assert.ErrorIs(t, err, listview.ErrInvalidFilter)

	_, err = listview.ParseFilterForm(url.Values{"page": {"two"}})
	assert.ErrorIs(t, err, listview.ErrInvalidFilter)

	form, err := listview.ParseFilterForm(url.Values{"other": {"x"}})
	require.NoError(t, err)
	assert.True(t, form.Empty())
}

func TestParseFilterFormKeepsLongSearchVerbatim(t *testing.T) {
	search := "  " + strings.Repeat("a", 500) + "  "

	form, err := listview.ParseFilterForm(url.Values{"search": {search}, "status": {" active "}})

	require.NoError(t, err)
	require.NotNil(t, form.Search)
	assert.Equal(t, search, *form.Search)
	assert.Equal(t, listview.StatusActive, *form.Status)
}

func TestContainsFold(t *testing.T) {
	assert.True(t, listview.ContainsFold("MH12 Overspeed", "overSPEED"))
	assert.True(t, listview.ContainsFold("Ärger", "ärg"))
	assert.True(t, listview.ContainsFold("Parking", ""))
	assert.False(t, listview.ContainsFold("Parking", "speed"))
}

func TestLessFoldIgnoresCase(t *testing.T) {
	names := []string{"bhavna", "Anand", "Chetan", "arjun"}

	sort.SliceStable(names, func(i, j int) bool { return listview.LessFold(names[i], names[j]) })

	assert.Equal(t, []string{"Anand", "arjun", "bhavna", "Chetan"}, names)
	assert.False(t, listview.LessFold("anand", "anand"))
	assert.True(t, listview.LessFold("Anand", "anand"))
}

func TestSnapshotRestore(t *testing.T) {
	ctrl := loadedController(t)
	require.NoError(t, ctrl.SetFilter(listview.FieldPage, "2"))
	_, err := ctrl.Modal().Open("u3")
	require.NoError(t, err)
	snap := ctrl.Snapshot()

	restored := listview.NewController(rowEntity(true, false), &fakeBackend{}, listview.Options{})
	restored.Restore(snap)

	assert.Equal(t, ctrl.Inputs(), restored.Inputs())
	assert.Equal(t, ctrl.Items(), restored.Items())
	assert.True(t, restored.Modal().IsOpen())
	assert.Equal(t, listview.ViewReady, restored.State())

	// Unknown sort keys from an older snapshot fall back to the default.
	snap.Inputs.SortKey = "legacy"
	restored.Restore(snap)
	assert.Equal(t, "name", restored.Inputs().SortKey)
}
