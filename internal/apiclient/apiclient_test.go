package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buildbid/internal/model"
	"buildbid/internal/workflow"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", opts...)
}

func contractorSession() *Session {
	return &Session{Token: "tok", UserID: uuid.New(), Email: "casey@example.com", Role: model.RoleContractor}
}

func TestErrorMessageVariants(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"error string", `{"error":"project not found"}`, "project not found"},
		{"error object", `{"error":{"code":"X","message":"nested message"}}`, "nested message"},
		{"message field", `{"message":"top level"}`, "top level"},
		{"empty object", `{}`, fallbackMessage},
		{"not json", `<html>bad gateway</html>`, fallbackMessage},
		{"empty body", ``, fallbackMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusConflict)
				_, _ = io.WriteString(w, tt.body)
			})

			err := c.DeleteProject(context.Background(), uuid.New())
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
			assert.Equal(t, tt.want, apiErr.Message)
			assert.True(t, IsStatus(err, http.StatusConflict))
			assert.False(t, IsStatus(err, http.StatusNotFound))
		})
	}
}

func TestTransportErrorIsWrapped(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url)
	_, err := c.Me(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GET /me")

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestLoginInstallsSessionAndSendsBearer(t *testing.T) {
	userID := uuid.New()
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "casey@example.com", body["email"])
			_ = json.NewEncoder(w).Encode(map[string]any{
				"token": "signed",
				"user":  map[string]any{"id": userID.String(), "email": "casey@example.com", "role": "contractor"},
			})
		case "/contractor/projects":
			gotAuth = r.Header.Get("Authorization")
			assert.Equal(t, "awaiting_takeoff", r.URL.Query().Get("status"))
			_, _ = io.WriteString(w, `[]`)
		default:
			http.NotFound(w, r)
		}
	})

	s, err := c.Login(context.Background(), "casey@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, userID, s.UserID)
	assert.Equal(t, model.RoleContractor, s.Role)
	assert.True(t, s.Valid())

	projects, err := c.ListProjects(context.Background(), ProjectFilter{Status: workflow.StatusAwaitingTakeoff})
	require.NoError(t, err)
	assert.Empty(t, projects)
	assert.Equal(t, "Bearer signed", gotAuth)
}

func TestLoginRejectedKeepsNoSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"invalid credentials"}`)
	})

	_, err := c.Login(context.Background(), "x@example.com", "bad")
	require.Error(t, err)
	assert.EqualError(t, err, "invalid credentials (status 401)")
	assert.Nil(t, c.Session())
}

func TestRoleScopedCallsNeedSession(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	_, err := c.ListProjects(context.Background(), ProjectFilter{})
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = c.Pipeline(context.Background(), ProjectFilter{})
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = c.StartTimer(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNoSession)
	assert.False(t, called)
}

func TestLogoutDropsSession(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = io.WriteString(w, `{"id":"`+uuid.NewString()+`","role":"contractor"}`)
	}, WithSession(contractorSession()))

	require.NotNil(t, c.Session())
	c.Logout()
	assert.Nil(t, c.Session())

	_, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestSessionReturnsCopy(t *testing.T) {
	c := New("http://example.invalid", WithSession(contractorSession()))
	s := c.Session()
	s.Token = "changed"
	assert.Equal(t, "tok", c.Session().Token)
}

func TestSetStatusUsesRolePath(t *testing.T) {
	id := uuid.New()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/contractor/projects/"+id.String()+"/status", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "takeoff_in_progress", body["status"])
		_, _ = io.WriteString(w, `{"project":{"id":"`+id.String()+`","status":"takeoff_in_progress"}}`)
	}, WithSession(contractorSession()))

	change, err := c.SetStatus(context.Background(), id, workflow.StatusTakeoffInProgress)
	require.NoError(t, err)
	require.NotNil(t, change.Project)
	assert.Equal(t, id, change.Project.ID)
	assert.Nil(t, change.Change)
}

func TestUploadFileSendsMultipart(t *testing.T) {
	id := uuid.New()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/projects/"+id.String()+"/files/blueprints", r.URL.Path)
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "plan.pdf", header.Filename)
		assert.Equal(t, "PDF", string(data))
		_, _ = io.WriteString(w, `{"id":"`+id.String()+`","blueprints_url":"https://files/plan.pdf"}`)
	})

	p, err := c.UploadFile(context.Background(), id, "blueprints", "plan.pdf", strings.NewReader("PDF"))
	require.NoError(t, err)
	assert.Equal(t, "https://files/plan.pdf", p.BlueprintsURL)
}

func TestNotificationsQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/notifications":
			assert.Equal(t, "true", r.URL.Query().Get("unread"))
			assert.Equal(t, "5", r.URL.Query().Get("limit"))
			_, _ = io.WriteString(w, `[]`)
		case "/notifications/read-all":
			_, _ = io.WriteString(w, `{"updated":3}`)
		case "/notifications/unread-count":
			_, _ = io.WriteString(w, `{"unread":7}`)
		default:
			http.NotFound(w, r)
		}
	}, WithSession(contractorSession()))

	list, err := c.Notifications(context.Background(), true, 5)
	require.NoError(t, err)
	assert.Empty(t, list)

	n, err := c.MarkAllNotificationsRead(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	unread, err := c.UnreadCount(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 7, unread)
}

func TestNoContentResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/push/subscriptions/abc%2Fdef", r.URL.EscapedPath())
		w.WriteHeader(http.StatusNoContent)
	}, WithSession(contractorSession()))

	assert.NoError(t, c.UnregisterPushToken(context.Background(), "abc/def"))
}
