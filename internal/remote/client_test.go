package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/challan-admin/challan-admin/internal/listview"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"))
}

type thing struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) ObserveRemote(op, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, op+":"+outcome)
}

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *recorder) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	rec := &recorder{}
	client := NewClient(Config{
		BaseURL:     srv.URL + "/",
		TokenSecret: "remote-secret",
		HTTPClient:  srv.Client(),
		Recorder:    rec,
	})
	return client, rec
}

func thingBody(q listview.Query) any {
	return map[string]any{"search": q.Search, "page": q.Page, "limit": q.Limit, "sortOrder": q.SortOrder}
}

func TestCollectionFetchSendsSignedQuery(t *testing.T) {
	var gotBody map[string]any
	var gotAuth, gotRequestID string
	client, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/things", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"things":[{"_id":"1","name":"a"},{"_id":"2","name":"b"}],"totalPages":4,"currentPage":2}`))
	})
	coll := NewCollection[thing](client, "things", "/api/v1/things", "things", thingBody)

	ctx := WithSubject(context.Background(), "admin-42")
	res, err := coll.Fetch(ctx, listview.Query{
		Inputs:    listview.Inputs{Search: "x", Page: 2},
		SortOrder: listview.SortAsc,
		Limit:     10,
	})
	require.NoError(t, err)

	assert.Equal(t, []thing{{ID: "1", Name: "a"}, {ID: "2", Name: "b"}}, res.Items)
	assert.Equal(t, 4, res.TotalPages)
	assert.Equal(t, 2, res.CurrentPage)
	assert.Equal(t, map[string]any{"search": "x", "page": float64(2), "limit": float64(10), "sortOrder": "asc"}, gotBody)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, []string{"things.list:ok"}, rec.calls)

	require.True(t, strings.HasPrefix(gotAuth, "Bearer "))
	claims := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(strings.TrimPrefix(gotAuth, "Bearer "), claims, func(*jwt.Token) (any, error) {
		return []byte("remote-secret"), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	require.NoError(t, err)
	assert.Equal(t, "admin-42", claims.Subject)
}

func TestCollectionFetchEmptyResponse(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"things":[],"totalPages":0}`))
	})
	coll := NewCollection[thing](client, "things", "/api/v1/things", "things", thingBody)

	res, err := coll.Fetch(context.Background(), listview.Query{})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.NotNil(t, res.Items)
	assert.Zero(t, res.TotalPages)
	assert.Zero(t, res.CurrentPage)
}

func TestStatusAboveRedirectRangeIsNetworkFailure(t *testing.T) {
	for _, status := range []int{http.StatusMultipleChoices, http.StatusNotFound, http.StatusBadGateway} {
		client, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", status)
		})
		coll := NewCollection[thing](client, "things", "/api/v1/things", "things", thingBody)

		_, err := coll.Fetch(context.Background(), listview.Query{})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNetworkFailure)
		var statusErr *StatusError
		require.True(t, errors.As(err, &statusErr))
		assert.Equal(t, status, statusErr.Status)
		assert.Equal(t, []string{"things.list:error"}, rec.calls)
	}
}

func TestTransportErrorIsNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := NewClient(Config{BaseURL: srv.URL, TokenSecret: "s"})

	err := client.DeleteRecord(context.Background(), "r1")
	assert.ErrorIs(t, err, ErrNetworkFailure)
}

func TestDeleteRecord(t *testing.T) {
	var method, path string
	client, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.EscapedPath()
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.DeleteRecord(context.Background(), "rec/7"))
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/api/v1/record/rec%2F7", path)
	assert.Equal(t, []string{"records.delete:ok"}, rec.calls)
}
