package view

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine()
	assert.NoError(t, err, "Templates should parse without error")
	assert.NotNil(t, engine)
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "1,250.50", FormatAmount(1250.5))
	assert.Equal(t, "0.00", FormatAmount(0))
	assert.Equal(t, "", FormatDate(time.Time{}))
	assert.Equal(t, "05 Mar 2024 09:30", FormatDate(time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)))
}

func TestRenderStatusWritesLoginPage(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	err = engine.RenderStatus(rr, http.StatusBadRequest, "pages/login.html", TemplateData{Title: "Login", CSRFToken: "tok"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), `name="csrf_token" value="tok"`)
}

func TestRenderUnknownTemplate(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	assert.Error(t, engine.Render(rr, "pages/missing.html", TemplateData{}))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
