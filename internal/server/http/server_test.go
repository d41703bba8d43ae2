package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/taskflow/backend/internal/errs"
	"github.com/taskflow/backend/internal/model"
	"github.com/taskflow/backend/internal/repository"
	"github.com/taskflow/backend/internal/service"
	"github.com/taskflow/backend/internal/token"
)

// In-memory repositories so the full stack runs without a database.

type memUsers struct{ byEmail map[string]*model.User }

var _ repository.UserRepository = (*memUsers)(nil)

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	if _, exists := m.byEmail[u.Email]; exists {
		return errs.ErrAlreadyExists
	}
	c := *u
	m.byEmail[u.Email] = &c
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *u
	return &c, nil
}

type memTasks struct{ tasks []model.Task }

var _ repository.TaskRepository = (*memTasks)(nil)

func (m *memTasks) Create(_ context.Context, t *model.Task) error {
	m.tasks = append(m.tasks, *t)
	return nil
}

func (m *memTasks) ListByUser(_ context.Context, userID uuid.UUID) ([]model.Task, error) {
	out := []model.Task{}
	for _, t := range m.tasks {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memTasks) UpdateTitle(_ context.Context, userID, taskID uuid.UUID, title string) (*model.Task, error) {
	for i := range m.tasks {
		if m.tasks[i].ID == taskID && m.tasks[i].UserID == userID {
			m.tasks[i].Title = title
			c := m.tasks[i]
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (m *memTasks) Delete(_ context.Context, userID, taskID uuid.UUID) error {
	for i := range m.tasks {
		if m.tasks[i].ID == taskID && m.tasks[i].UserID == userID {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return nil
		}
	}
	return errs.ErrNotFound
}

type noopLimiter struct{}

func (noopLimiter) Allow(context.Context, string, []byte) (bool, time.Duration, error) {
	return true, 0, nil
}
func (noopLimiter) Success(context.Context, string, []byte) error { return nil }
func (noopLimiter) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	return false, 0, nil
}

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	tokens, err := token.New("test-secret", "HS256", time.Hour)
	require.NoError(t, err)

	auth := service.NewAuthService(&memUsers{byEmail: map[string]*model.User{}}, tokens, noopLimiter{})
	tasks := service.NewTaskService(&memTasks{})
	srv := New(auth, tasks, zap.NewNop())
	return srv.Router(DefaultCORS([]string{"http://localhost:8080"}))
}

func doJSON(t *testing.T, h http.Handler, method, path, bearer, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func signupAndLogin(t *testing.T, h http.Handler, name, email, password string) string {
	t.Helper()
	rr := doJSON(t, h, "POST", "/api/v1/auth/signup", "",
		fmt.Sprintf(`{"name":%q,"email":%q,"password":%q}`, name, email, password))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = doJSON(t, h, "POST", "/api/v1/auth/login", "",
		fmt.Sprintf(`{"email":%q,"password":%q}`, email, password))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "bearer", resp.TokenType)
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func TestRoot(t *testing.T) {
	h := newTestHandler(t)
	rr := doJSON(t, h, "GET", "/", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"message":"TaskFlow API is running"}`, rr.Body.String())
}

func TestSignupLoginMe(t *testing.T) {
	h := newTestHandler(t)
	tok := signupAndLogin(t, h, "Alice", "a@x.com", "pw123")

	rr := doJSON(t, h, "GET", "/api/v1/me", tok, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var me struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &me))
	require.Equal(t, "Alice", me.Name)
	require.Equal(t, "a@x.com", me.Email)
	require.NotEmpty(t, me.ID)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	h := newTestHandler(t)
	body := `{"name":"Alice","email":"a@x.com","password":"pw123"}`

	rr := doJSON(t, h, "POST", "/api/v1/auth/signup", "", body)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, h, "POST", "/api/v1/auth/signup", "", body)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "email already registered")
}

func TestSignup_InvalidBody(t *testing.T) {
	h := newTestHandler(t)

	for _, body := range []string{
		`{`,
		`{"name":"","email":"a@x.com","password":"pw"}`,
		`{"name":"A","email":"not-an-email","password":"pw"}`,
		`{"name":"A","email":"a@x.com","password":""}`,
	} {
		rr := doJSON(t, h, "POST", "/api/v1/auth/signup", "", body)
		require.Equal(t, http.StatusBadRequest, rr.Code, "body=%s", body)
	}
}

func TestLogin_GenericFailureMessage(t *testing.T) {
	h := newTestHandler(t)
	signupAndLogin(t, h, "Alice", "a@x.com", "pw123")

	wrongPw := doJSON(t, h, "POST", "/api/v1/auth/login", "", `{"email":"a@x.com","password":"wrong"}`)
	noUser := doJSON(t, h, "POST", "/api/v1/auth/login", "", `{"email":"ghost@x.com","password":"wrong"}`)

	require.Equal(t, http.StatusUnauthorized, wrongPw.Code)
	require.Equal(t, http.StatusUnauthorized, noUser.Code)
	// Identical bodies: the response must not reveal which field was wrong.
	require.JSONEq(t, wrongPw.Body.String(), noUser.Body.String())
	require.Contains(t, wrongPw.Body.String(), "invalid email or password")
	require.NotContains(t, strings.ToLower(wrongPw.Body.String()), "wrong password")
}

func TestTasks_RequireAuth(t *testing.T) {
	h := newTestHandler(t)

	for _, tc := range []struct{ method, path string }{
		{"GET", "/api/v1/me"},
		{"POST", "/api/v1/tasks"},
		{"GET", "/api/v1/tasks"},
		{"PUT", "/api/v1/tasks/" + uuid.Must(uuid.NewV4()).String()},
		{"DELETE", "/api/v1/tasks/" + uuid.Must(uuid.NewV4()).String()},
	} {
		rr := doJSON(t, h, tc.method, tc.path, "", `{"title":"x"}`)
		require.Equal(t, http.StatusUnauthorized, rr.Code, "%s %s no token", tc.method, tc.path)

		rr = doJSON(t, h, tc.method, tc.path, "garbage.token.here", `{"title":"x"}`)
		require.Equal(t, http.StatusUnauthorized, rr.Code, "%s %s bad token", tc.method, tc.path)
	}
}

func TestTasks_RoundTrip(t *testing.T) {
	h := newTestHandler(t)
	tok := signupAndLogin(t, h, "Alice", "a@x.com", "pw123")

	rr := doJSON(t, h, "POST", "/api/v1/tasks", tok, `{"title":"X"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	var created struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	require.Equal(t, "X", created.Title)
	require.NotEmpty(t, created.ID)

	rr = doJSON(t, h, "GET", "/api/v1/tasks", tok, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 1)
	require.Equal(t, created.ID, list[0].ID)
	require.Equal(t, "X", list[0].Title)

	rr = doJSON(t, h, "PUT", "/api/v1/tasks/"+created.ID, tok, `{"title":"Y"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, h, "GET", "/api/v1/tasks", tok, "")
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 1)
	require.Equal(t, "Y", list[0].Title)

	rr = doJSON(t, h, "DELETE", "/api/v1/tasks/"+created.ID, tok, "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "Task deleted")

	rr = doJSON(t, h, "GET", "/api/v1/tasks", tok, "")
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Empty(t, list)
}

func TestTasks_CrossUserMaskedAsNotFound(t *testing.T) {
	h := newTestHandler(t)
	tokA := signupAndLogin(t, h, "Alice", "a@x.com", "pw123")
	tokB := signupAndLogin(t, h, "Bob", "b@x.com", "pw456")

	rr := doJSON(t, h, "POST", "/api/v1/tasks", tokA, `{"title":"private"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))

	// Bob cannot see, rename or delete Alice's task; both are plain 404s.
	rr = doJSON(t, h, "GET", "/api/v1/tasks", tokB, "")
	require.Equal(t, "[]", strings.TrimSpace(rr.Body.String()))

	rr = doJSON(t, h, "PUT", "/api/v1/tasks/"+created.ID, tokB, `{"title":"stolen"}`)
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, h, "DELETE", "/api/v1/tasks/"+created.ID, tokB, "")
	require.Equal(t, http.StatusNotFound, rr.Code)

	// A nonexistent id looks exactly the same.
	rr = doJSON(t, h, "DELETE", "/api/v1/tasks/"+uuid.Must(uuid.NewV4()).String(), tokB, "")
	require.Equal(t, http.StatusNotFound, rr.Code)

	// Alice still owns the task, untouched.
	rr = doJSON(t, h, "GET", "/api/v1/tasks", tokA, "")
	require.Contains(t, rr.Body.String(), "private")
}

func TestTasks_BadTaskID(t *testing.T) {
	h := newTestHandler(t)
	tok := signupAndLogin(t, h, "Alice", "a@x.com", "pw123")

	rr := doJSON(t, h, "PUT", "/api/v1/tasks/not-a-uuid", tok, `{"title":"x"}`)
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, h, "DELETE", "/api/v1/tasks/not-a-uuid", tok, "")
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestExpiredToken_Unauthenticated(t *testing.T) {
	tokens, err := token.New("test-secret", "HS256", time.Hour)
	require.NoError(t, err)
	users := &memUsers{byEmail: map[string]*model.User{}}
	auth := service.NewAuthService(users, tokens, noopLimiter{})
	srv := New(auth, service.NewTaskService(&memTasks{}), zap.NewNop())
	h := srv.Router(DefaultCORS(nil))

	// Sign with the same key but an already-elapsed lifetime.
	expired, errIssue := func() (string, error) {
		short, err := token.New("test-secret", "HS256", time.Nanosecond)
		if err != nil {
			return "", err
		}
		signed, _, err := short.Issue(uuid.Must(uuid.NewV4()))
		return signed, err
	}()
	require.NoError(t, errIssue)
	time.Sleep(10 * time.Millisecond)

	rr := doJSON(t, h, "GET", "/api/v1/me", expired, "")
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCORS(t *testing.T) {
	h := newTestHandler(t)

	// Allowed origin is echoed back with credentials.
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "http://localhost:8080")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, "http://localhost:8080", rr.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))

	// Preflight short-circuits with the allowed methods.
	req = httptest.NewRequest("OPTIONS", "/api/v1/tasks", nil)
	req.Header.Set("Origin", "http://localhost:8080")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), "POST")
	require.Contains(t, rr.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	// Unlisted origins get no CORS headers at all.
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}
