package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/challan-admin/challan-admin/internal/auth"
	"github.com/challan-admin/challan-admin/internal/records"
	"github.com/challan-admin/challan-admin/internal/remote"
	"github.com/challan-admin/challan-admin/internal/users"
)

type apiStub struct {
	lastBody map[string]any
	deleted  []string
}

func (a *apiStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost && r.URL.Path == remote.UsersPath:
		_ = json.NewDecoder(r.Body).Decode(&a.lastBody)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"users": []users.User{
				{ID: "u1", UserName: "Anand Rao", PhoneNumber: "9820000001", AccountType: "driver", Active: true},
			},
			"totalPages": 4,
		})
	case r.Method == http.MethodPost && r.URL.Path == remote.RecordsPath:
		_ = json.NewDecoder(r.Body).Decode(&a.lastBody)
		_ = json.NewEncoder(w).Encode(map[string]any{"records": []records.Record{}, "totalPages": 0})
	case r.Method == http.MethodDelete:
		id := strings.TrimPrefix(r.URL.Path, "/api/v1/record/")
		if id == "missing" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		a.deleted = append(a.deleted, id)
	default:
		http.NotFound(w, r)
	}
}

type stubCreator struct {
	created map[string]string
}

func (s *stubCreator) CreateAdmin(_ context.Context, username, password string) (*auth.Admin, error) {
	if _, ok := s.created[username]; ok {
		return nil, auth.ErrDuplicateAdmin
	}
	s.created[username] = password
	return &auth.Admin{ID: int64(len(s.created)), Username: username}, nil
}

func run(t *testing.T, api *apiStub, creator *stubCreator, stdin string, args ...string) (string, error) {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	var out bytes.Buffer
	e := env{
		in:       strings.NewReader(stdin),
		out:      &out,
		pageSize: 10,
		remote: func() (*remote.Client, error) {
			return remote.NewClient(remote.Config{BaseURL: srv.URL, TokenSecret: "secret", HTTPClient: srv.Client()}), nil
		},
		admins: func(context.Context) (AdminCreator, func(), error) {
			return creator, nil, nil
		},
	}
	root := newRootCmd(e)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestUsersListTable(t *testing.T) {
	api := &apiStub{}

	out, err := run(t, api, nil, "", "users", "list", "--status", "active", "--page", "2")

	require.NoError(t, err)
	assert.Contains(t, out, "Anand Rao")
	assert.Contains(t, out, "page 2 of 4, 1 shown")
	assert.Equal(t, true, api.lastBody["active"])
	assert.EqualValues(t, 2, api.lastBody["page"])
	assert.Equal(t, "asc", api.lastBody["sortOrder"])
}

func TestUsersListJSON(t *testing.T) {
	out, err := run(t, &apiStub{}, nil, "", "users", "list", "--json")

	require.NoError(t, err)
	var page pageOutput[users.User]
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Equal(t, 4, page.TotalPages)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "u1", page.Items[0].ID)
}

func TestUsersListRejectsPaymentFlag(t *testing.T) {
	_, err := run(t, &apiStub{}, nil, "", "users", "list", "--payment", "paid")
	assert.Error(t, err)
}

func TestRecordsListEmpty(t *testing.T) {
	api := &apiStub{}

	out, err := run(t, api, nil, "", "records", "list", "--payment", "unpaid")

	require.NoError(t, err)
	assert.Contains(t, out, "No records found")
	assert.Equal(t, false, api.lastBody["isPaid"])
	assert.NotContains(t, api.lastBody, "isDelete")
}

func TestRecordsListSendsSearchVerbatim(t *testing.T) {
	api := &apiStub{}

	_, err := run(t, api, nil, "", "records", "list", "--search", "  bus 12 ")

	require.NoError(t, err)
	assert.Equal(t, "  bus 12 ", api.lastBody["search"])
}

func TestRecordsListInvalidStatus(t *testing.T) {
	_, err := run(t, &apiStub{}, nil, "", "records", "list", "--status", "archived")
	assert.Error(t, err)
}

func TestRecordsDelete(t *testing.T) {
	api := &apiStub{}

	out, err := run(t, api, nil, "", "records", "delete", "r-9")
	require.NoError(t, err)
	assert.Contains(t, out, "record r-9 deleted")
	assert.Equal(t, []string{"r-9"}, api.deleted)

	_, err = run(t, api, nil, "", "records", "delete", "missing")
	assert.ErrorIs(t, err, remote.ErrNetworkFailure)
}

func TestAdminCreate(t *testing.T) {
	creator := &stubCreator{created: map[string]string{}}

	out, err := run(t, &apiStub{}, creator, "s3cret-pass\n", "admin", "create", "ops")
	require.NoError(t, err)
	assert.Contains(t, out, "admin ops created")
	assert.Equal(t, "s3cret-pass", creator.created["ops"])

	_, err = run(t, &apiStub{}, creator, "another-pass\n", "admin", "create", "ops")
	assert.EqualError(t, err, `admin "ops" already exists`)
}

func TestAdminCreateNeedsPassword(t *testing.T) {
	_, err := run(t, &apiStub{}, &stubCreator{created: map[string]string{}}, "", "admin", "create", "ops")
	assert.Error(t, err)
}
