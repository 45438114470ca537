package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/campusgive/campusgive/internal/platform/httpx"
	"github.com/campusgive/campusgive/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     *SessionGuard
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard *SessionGuard) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		guard:     guard,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.With(h.guard.RequireAPI()).Get("/me", h.handleMe)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in RegisterInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(in); err != nil {
		httpx.RespondError(w, fieldError(err, "All fields required"))
		return
	}

	id, err := h.service.Register(r.Context(), in)
	if err != nil {
		h.logFailure("register", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusCreated, map[string]any{
		"userId":  id,
		"message": "User registered successfully",
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in LoginInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(in); err != nil {
		httpx.RespondError(w, shared.Invalid("Email and password required"))
		return
	}

	result, err := h.service.Login(r.Context(), in)
	if err != nil {
		h.logFailure("login", err)
		httpx.RespondError(w, err)
		return
	}
	setSessionCookie(w, r, result.Token, 0)
	httpx.Success(w, http.StatusOK, map[string]any{
		"token":   result.Token,
		"user":    result.User,
		"message": "Login successful",
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	setSessionCookie(w, r, "", -1)
	httpx.Success(w, http.StatusOK, map[string]any{"message": "Logged out"})
}

// setSessionCookie writes the page session cookie. maxAge follows
// http.Cookie: 0 for a browser-session cookie, negative to delete it.
func setSessionCookie(w http.ResponseWriter, r *http.Request, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := CurrentUserID(r)
	if !ok {
		RejectJSON(w, r, shared.ErrMissingCredential)
		return
	}
	user, err := h.service.Profile(r.Context(), userID)
	if err != nil {
		h.logFailure("profile", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK, map[string]any{"data": user})
}

func (h *Handler) logFailure(op string, err error) {
	if errors.Is(err, shared.ErrStoreFailure) || !isDomainError(err) {
		h.logger.Error(op+" failed", slog.Any("error", err))
	}
}

func isDomainError(err error) bool {
	return errors.Is(err, shared.ErrValidation) ||
		errors.Is(err, shared.ErrInvalidCredential) ||
		errors.Is(err, shared.ErrDuplicateEmail) ||
		errors.Is(err, shared.ErrNotFound)
}

func fieldError(err error, fallback string) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return shared.Invalid(fallback)
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return shared.Invalid(fallback)
		}
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "email":
		return shared.Invalid("Invalid email address")
	case "max":
		return shared.Invalid(fe.Field() + " is too long")
	default:
		return shared.Invalid(fallback)
	}
}
