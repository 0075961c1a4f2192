package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/GoArmGo/ContactsApp/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const annaJSON = `{"first_name":"Anna","last_name":"Smith","email":"anna@acme.com","phone":"+1 555 0100","birthday":"1990-03-07"}`

func (ts *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestCreateContact(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(http.MethodPost, "/contacts/", annaJSON)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decodeBody[map[string]any](t, rec)
	assert.Equal(t, float64(1), got["id"])
	assert.Equal(t, "1990-03-07", got["birthday"])
	assert.Nil(t, got["additional_info"])
	assert.True(t, ts.provider.allClosed())
}

func TestCreateContact_Duplicate(t *testing.T) {
	ts := newTestServer()
	require.Equal(t, http.StatusOK, ts.do(http.MethodPost, "/contacts/", annaJSON).Code)

	rec := ts.do(http.MethodPost, "/contacts/", annaJSON)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email anna@acme.com already registered", decodeBody[errorResponse](t, rec).Message)
}

func TestCreateContact_Validation(t *testing.T) {
	ts := newTestServer()

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing first name", `{"last_name":"S","email":"a@b.co","phone":"1","birthday":"1990-01-01"}`, "first_name"},
		{"missing email", `{"first_name":"A","last_name":"S","phone":"1","birthday":"1990-01-01"}`, "email"},
		{"long email", `{"first_name":"A","last_name":"S","email":"` + strings.Repeat("a", 256) + `","phone":"1","birthday":"1990-01-01"}`, "email"},
		{"missing birthday", `{"first_name":"A","last_name":"S","email":"a@b.co","phone":"1"}`, "birthday"},
		{"bad birthday", `{"first_name":"A","last_name":"S","email":"a@b.co","phone":"1","birthday":"01/02/1990"}`, "body"},
		{"not json", `{`, "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodPost, "/contacts/", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decodeBody[errorResponse](t, rec).Fields, tt.field)
		})
	}
	assert.Empty(t, ts.contacts.contacts)
}

func TestCreateContact_FreeFormEmailAndPhone(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(http.MethodPost, "/contacts/", `{"first_name":"John","last_name":"Doe","email":"john","phone":"","birthday":"1985-06-01"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[domain.Contact](t, rec)
	assert.Equal(t, "john", got.Email)
	assert.Empty(t, got.Phone)
}

func TestGetContact(t *testing.T) {
	ts := newTestServer()
	require.Equal(t, http.StatusOK, ts.do(http.MethodPost, "/contacts/", annaJSON).Code)

	rec := ts.do(http.MethodGet, "/contacts/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Anna", decodeBody[domain.Contact](t, rec).FirstName)

	rec = ts.do(http.MethodGet, "/contacts/42", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Contact with ID 42 not found", decodeBody[errorResponse](t, rec).Message)

	rec = ts.do(http.MethodGet, "/contacts/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateContact(t *testing.T) {
	ts := newTestServer()
	require.Equal(t, http.StatusOK, ts.do(http.MethodPost, "/contacts/", annaJSON).Code)

	updated := strings.Replace(annaJSON, "Smith", "Jones", 1)
	rec := ts.do(http.MethodPut, "/contacts/1", updated)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Jones", decodeBody[domain.Contact](t, rec).LastName)

	rec = ts.do(http.MethodPut, "/contacts/7", updated)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Contact not found", decodeBody[errorResponse](t, rec).Message)
}

func TestDeleteContact(t *testing.T) {
	ts := newTestServer()
	require.Equal(t, http.StatusOK, ts.do(http.MethodPost, "/contacts/", annaJSON).Code)

	rec := ts.do(http.MethodDelete, "/contacts/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anna@acme.com", decodeBody[domain.Contact](t, rec).Email)

	rec = ts.do(http.MethodDelete, "/contacts/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Contact not found", decodeBody[errorResponse](t, rec).Message)
}

func TestListContacts_Params(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(http.MethodGet, "/contacts/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
	assert.Equal(t, 0, ts.contacts.lastSkip)
	assert.Equal(t, 10, ts.contacts.lastLim)

	rec = ts.do(http.MethodGet, "/contacts?skip=5&limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, ts.contacts.lastSkip)
	assert.Equal(t, 2, ts.contacts.lastLim)

	for _, q := range []string{"skip=-1", "limit=0", "limit=x", "skip=1.5"} {
		rec = ts.do(http.MethodGet, "/contacts/?"+q, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestSearchContacts(t *testing.T) {
	ts := newTestServer()
	require.Equal(t, http.StatusOK, ts.do(http.MethodPost, "/contacts/", annaJSON).Code)

	rec := ts.do(http.MethodGet, "/contacts/search/?name=Anna", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]domain.Contact](t, rec), 1)

	rec = ts.do(http.MethodGet, "/contacts/search?email=other@acme.com", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestUpcomingBirthdays_ReferenceDate(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(http.MethodGet, "/contacts/birthdays/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2026-10-15", ts.contacts.lastRef.String())

	rec = ts.do(http.MethodGet, "/contacts/birthdays?date=2026-01-31", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2026-01-31", ts.contacts.lastRef.String())

	rec = ts.do(http.MethodGet, "/contacts/birthdays/?date=tomorrow", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStoreFailure_HidesDetails(t *testing.T) {
	ts := newTestServer()
	ts.contacts.err = &domain.StoreError{Op: "list contacts", Err: errors.New("connection refused")}

	rec := ts.do(http.MethodGet, "/contacts/", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", decodeBody[errorResponse](t, rec).Message)
	assert.True(t, ts.provider.allClosed())
}
