// Package httpserver exposes the TaskFlow HTTP/JSON API.
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gofrs/uuid/v5"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/taskflow/backend/internal/errs"
	"github.com/taskflow/backend/internal/service"
)

// Server wires services into HTTP handlers.
type Server struct {
	auth  service.AuthService
	tasks service.TaskService
	log   *zap.Logger
}

// New constructs a server with injected services.
func New(auth service.AuthService, tasks service.TaskService, log *zap.Logger) *Server {
	return &Server{auth: auth, tasks: tasks, log: log}
}

// Router assembles the full handler chain: recover, logging, CORS, routes.
func (s *Server) Router(cors CORSConfig) http.Handler {
	r := mux.NewRouter()

	r.Methods("GET").Path("/").HandlerFunc(s.handleRoot)

	r.Methods("POST").Path("/api/v1/auth/signup").HandlerFunc(s.handleSignup)
	r.Methods("POST").Path("/api/v1/auth/login").HandlerFunc(s.handleLogin)

	r.Methods("GET").Path("/api/v1/me").HandlerFunc(s.requireUser(s.handleMe))

	r.Methods("POST").Path("/api/v1/tasks").HandlerFunc(s.requireUser(s.handleCreateTask))
	r.Methods("GET").Path("/api/v1/tasks").HandlerFunc(s.requireUser(s.handleListTasks))
	r.Methods("PUT").Path("/api/v1/tasks/{id}").HandlerFunc(s.requireUser(s.handleUpdateTask))
	r.Methods("DELETE").Path("/api/v1/tasks/{id}").HandlerFunc(s.requireUser(s.handleDeleteTask))

	// Preflight never reaches route handlers.
	r.Methods("OPTIONS").PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	var h http.Handler = r
	h = CORS(cors)(h)
	h = Logging(s.log)(h)
	h = Recover(s.log)(h)
	return h
}

// --- request/response shapes ---

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type taskRequest struct {
	Title string `json:"title"`
}

type taskResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// validate checks required fields and email shape before any business logic.
func (r signupRequest) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if r.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

func (r loginRequest) validate() error {
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if r.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

func (r taskRequest) validate() error {
	if r.Title == "" {
		return errors.New("title is required")
	}
	return nil
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 || strings.ContainsAny(email, " \t") {
		return errors.New("invalid email address")
	}
	return nil
}

// decodeJSON parses the body into dst and runs its validation.
func decodeJSON[T interface{ validate() error }](r *http.Request, dst *T) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.New("invalid request body")
	}
	return (*dst).validate()
}

// --- handlers ---

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "TaskFlow API is running"})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		errorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := s.auth.Signup(r.Context(), req.Name, req.Email, req.Password); err != nil {
		if errors.Is(err, errs.ErrAlreadyExists) {
			errorJSON(w, http.StatusBadRequest, "email already registered")
			return
		}
		s.internalError(w, "signup", err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Signup successful"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		errorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	tokens, _, err := s.auth.LoginWithIP(r.Context(), req.Email, req.Password, r.RemoteAddr)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrUnauthorized):
			errorJSON(w, http.StatusUnauthorized, "invalid email or password")
		case errors.Is(err, errs.ErrRateLimited):
			errorJSON(w, http.StatusTooManyRequests, "too many attempts, try again later")
		default:
			s.internalError(w, "login", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}{tokens.AccessToken, tokens.TokenType})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromCtx(r.Context())
	if !ok {
		errorJSON(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}{u.ID.String(), u.Name, u.Email})
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromCtx(r.Context())
	if !ok {
		errorJSON(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	var req taskRequest
	if err := decodeJSON(r, &req); err != nil {
		errorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	task, err := s.tasks.Create(r.Context(), u.ID, req.Title)
	if err != nil {
		s.internalError(w, "create task", err)
		return
	}
	writeJSON(w, http.StatusCreated, taskResponse{ID: task.ID.String(), Title: task.Title})
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromCtx(r.Context())
	if !ok {
		errorJSON(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	tasks, err := s.tasks.List(r.Context(), u.ID)
	if err != nil {
		s.internalError(w, "list tasks", err)
		return
	}
	out := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskResponse{ID: t.ID.String(), Title: t.Title})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromCtx(r.Context())
	if !ok {
		errorJSON(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	taskID, err := uuid.FromString(mux.Vars(r)["id"])
	if err != nil {
		// Unparsable ids cannot name an existing task; mask like any other miss.
		errorJSON(w, http.StatusNotFound, "task not found")
		return
	}
	var req taskRequest
	if err := decodeJSON(r, &req); err != nil {
		errorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	task, err := s.tasks.Update(r.Context(), u.ID, taskID, req.Title)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			errorJSON(w, http.StatusNotFound, "task not found")
			return
		}
		s.internalError(w, "update task", err)
		return
	}
	writeJSON(w, http.StatusOK, taskResponse{ID: task.ID.String(), Title: task.Title})
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromCtx(r.Context())
	if !ok {
		errorJSON(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	taskID, err := uuid.FromString(mux.Vars(r)["id"])
	if err != nil {
		errorJSON(w, http.StatusNotFound, "task not found")
		return
	}
	if err := s.tasks.Delete(r.Context(), u.ID, taskID); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			errorJSON(w, http.StatusNotFound, "task not found")
			return
		}
		s.internalError(w, "delete task", err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Task deleted"})
}

// --- encoding helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorJSON mirrors the {"detail": ...} error body of the original API.
func errorJSON(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, struct {
		Detail string `json:"detail"`
	}{detail})
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	s.log.Error(op, zap.Error(err))
	errorJSON(w, http.StatusInternalServerError, "internal server error")
}
