package handler

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/GoArmGo/ContactsApp/internal/domain"
	"github.com/GoArmGo/ContactsApp/internal/usecase"
	"github.com/go-chi/chi/v5"
)

// AuthHandler — регистрация и выдача токенов.
type AuthHandler struct {
	authUseCase usecase.AuthUseCase
	validator   *Validator
	logger      *slog.Logger
}

func NewAuthHandler(uc usecase.AuthUseCase, v *Validator, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{authUseCase: uc, validator: v, logger: logger}
}

// Routes монтируется под /auth.
func (h *AuthHandler) Routes(r chi.Router) {
	r.Post("/register", h.Register)
	r.Post("/token", h.Token)
	r.Get("/me", h.Me)
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func newUserResponse(u *domain.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, Email: u.Email}
}

// Register — POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var reg domain.Registration
	err := decodeJSON(r, &reg)
	if err == nil {
		err = h.validator.Struct(reg)
	}
	if err != nil {
		h.badInput(w, err)
		return
	}

	user, err := h.authUseCase.Register(r.Context(), sessionFrom(r.Context()), reg)
	var dup *domain.DuplicateError
	switch {
	case errors.As(err, &dup) && dup.Field == "username":
		respondWithError(w, http.StatusConflict, "Username already registered", h.logger)
		return
	case errors.As(err, &dup):
		respondWithError(w, http.StatusConflict, "Email already registered", h.logger)
		return
	case err != nil:
		h.logger.Error("registration failed", "error", err)
		respondWithInternalError(w, h.logger)
		return
	}

	respondWithJSON(w, http.StatusCreated, newUserResponse(user), h.logger)
}

// Token — POST /auth/token. Принимает форму username/password (как OAuth2 password flow) или JSON.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	creds, err := h.readCredentials(r)
	if err != nil {
		h.badInput(w, err)
		return
	}

	sess := sessionFrom(r.Context())
	user, err := h.authUseCase.Authenticate(r.Context(), sess, creds.Username, creds.Password)
	if errors.Is(err, domain.ErrAuthFailure) {
		h.unauthorized(w, "Incorrect username or password")
		return
	}
	if err != nil {
		h.logger.Error("authentication failed", "error", err)
		respondWithInternalError(w, h.logger)
		return
	}

	token, err := h.authUseCase.IssueToken(user)
	if err != nil {
		h.logger.Error("failed to issue token", "user_id", user.ID, "error", err)
		respondWithInternalError(w, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, token, h.logger)
}

// Me — GET /auth/me, владелец bearer-токена.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		h.unauthorized(w, "Not authenticated")
		return
	}

	user, err := h.authUseCase.UserFromToken(r.Context(), sessionFrom(r.Context()), token)
	if errors.Is(err, domain.ErrAuthFailure) {
		h.unauthorized(w, "Could not validate credentials")
		return
	}
	if err != nil {
		h.logger.Error("failed to resolve token owner", "error", err)
		respondWithInternalError(w, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, newUserResponse(user), h.logger)
}

func (h *AuthHandler) readCredentials(r *http.Request) (domain.Credentials, error) {
	var creds domain.Credentials
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := decodeJSON(r, &creds); err != nil {
			return creds, err
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return creds, domain.NewValidationError("body", "invalid form")
		}
		creds.Username = r.PostForm.Get("username")
		creds.Password = r.PostForm.Get("password")
	}
	return creds, h.validator.Struct(creds)
}

func (h *AuthHandler) badInput(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		respondWithValidationError(w, verr, h.logger)
		return
	}
	h.logger.Error("failed to read auth request", "error", err)
	respondWithInternalError(w, h.logger)
}

func (h *AuthHandler) unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	respondWithError(w, http.StatusUnauthorized, message, h.logger)
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}
