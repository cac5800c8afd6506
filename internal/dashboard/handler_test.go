package dashboard_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/challan-admin/challan-admin/internal/dashboard"
	"github.com/challan-admin/challan-admin/internal/shared"
	"github.com/challan-admin/challan-admin/internal/view"
	_ "github.com/challan-admin/challan-admin/testing"
)

type discardRecorder struct {
	sessions []string
}

func (d *discardRecorder) Discard(_ context.Context, sessionID string) error {
	d.sessions = append(d.sessions, sessionID)
	return nil
}

func fixed(n int, err error) dashboard.Counter {
	return dashboard.CounterFunc(func(context.Context) (int, error) { return n, err })
}

func serve(t *testing.T, svc *dashboard.Service, lists ...dashboard.ListDiscarder) (*httptest.ResponseRecorder, *shared.Session) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	templates, err := view.NewEngine()
	require.NoError(t, err)
	h := dashboard.NewHandler(nil, svc, templates, shared.NewCSRFManager("csrf"), lists...)

	sessions := shared.NewSessionManager(rdb, "test_session", "secret", time.Hour, false)
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	sess, err := sessions.Load(context.Background(), req)
	require.NoError(t, err)
	sess.SetAdmin("1", "admin")

	r := chi.NewRouter()
	r.Route("/dashboard", h.MountRoutes)
	res := httptest.NewRecorder()
	r.ServeHTTP(res, req.WithContext(shared.ContextWithSession(req.Context(), sess)))
	return res, sess
}

func TestDashboardShowsCounts(t *testing.T) {
	svc := dashboard.NewService(dashboard.NewCache(nil, time.Minute), fixed(12, nil), fixed(34, nil), nil)
	lists := &discardRecorder{}

	res, sess := serve(t, svc, lists, lists)

	require.Equal(t, http.StatusOK, res.Code)
	body := res.Body.String()
	assert.Contains(t, body, "Welcome, admin")
	assert.Contains(t, body, `data-stat="users">12<`)
	assert.Contains(t, body, `data-stat="records">34<`)
	assert.Equal(t, []string{sess.ID, sess.ID}, lists.sessions)
}

func TestDashboardWithoutCounts(t *testing.T) {
	svc := dashboard.NewService(dashboard.NewCache(nil, time.Minute), fixed(0, errors.New("down")), fixed(1, nil), nil)

	res, _ := serve(t, svc)

	require.Equal(t, http.StatusOK, res.Code)
	body := res.Body.String()
	assert.Contains(t, body, "Counts are unavailable right now.")
	assert.Contains(t, body, `data-stat="users">-<`)
}
