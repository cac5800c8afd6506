package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessionManager(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "test_session", "secret", time.Hour, false), mr
}

func commitAndCookie(t *testing.T, sm *SessionManager, sess *Session) *http.Cookie {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	require.NoError(t, sm.Commit(context.Background(), rr, req, sess))
	cookies := rr.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func TestSessionRoundTripKeepsAdminAndFlash(t *testing.T) {
	sm, _ := newTestSessionManager(t)

	sess, err := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.False(t, sess.Authenticated())
	sess.SetAdmin("7", "Admin")
	sess.AddFlash(FlashMessage{Kind: "success", Message: "Welcome back"})
	cookie := commitAndCookie(t, sm, sess)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	loaded, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, loaded.ID)
	assert.True(t, loaded.Authenticated())
	assert.Equal(t, "Admin", loaded.AdminName())
	flash := loaded.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "Welcome back", flash.Message)
	assert.Nil(t, loaded.PopFlash())
}

func TestSessionLoadIgnoresUnknownCookie(t *testing.T) {
	sm, _ := newTestSessionManager(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sm.CookieName(), Value: "forged"})

	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, "forged", sess.ID)
	assert.False(t, sess.Authenticated())
}

func TestSessionRenewDropsPreviousKey(t *testing.T) {
	sm, mr := newTestSessionManager(t)
	sess, err := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	cookie := commitAndCookie(t, sm, sess)
	oldID := cookie.Value
	require.True(t, mr.Exists("session:"+oldID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	loaded, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	sm.Renew(loaded)
	loaded.SetAdmin("1", "Admin")
	newCookie := commitAndCookie(t, sm, loaded)

	assert.NotEqual(t, oldID, newCookie.Value)
	assert.False(t, mr.Exists("session:"+oldID))
	assert.True(t, mr.Exists("session:"+newCookie.Value))
}

func TestSessionDestroyExpiresCookie(t *testing.T) {
	sm, mr := newTestSessionManager(t)
	sess, err := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	cookie := commitAndCookie(t, sm, sess)

	sm.Destroy(sess)
	expired := commitAndCookie(t, sm, sess)
	assert.Equal(t, -1, expired.MaxAge)
	assert.False(t, mr.Exists("session:"+cookie.Value))
}
