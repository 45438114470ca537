package donations

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/campusgive/campusgive/internal/platform/blob"
	"github.com/campusgive/campusgive/internal/platform/httpx"
	"github.com/campusgive/campusgive/internal/shared"
)

// multipartMemory is how much of a multipart body is buffered in memory
// before spilling to temporary files.
const multipartMemory = 1 << 20

// Handler exposes the donation API.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	requireAuth func(http.Handler) http.Handler
	maxUpload   int64
	validator   *validator.Validate
}

// NewHandler constructs a Handler. requireAuth guards the mutating routes.
func NewHandler(logger *slog.Logger, service *Service, requireAuth func(http.Handler) http.Handler, maxUpload int64) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:      logger,
		service:     service,
		requireAuth: requireAuth,
		maxUpload:   maxUpload,
		validator:   validator.New(),
	}
}

// MountRoutes registers routes under /api.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/donations", h.list)
	r.Get("/donations/{id}", h.show)
	r.Get("/stats", h.stats)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Post("/donations", h.create)
		r.Patch("/donations/{id}", h.update)
		r.Delete("/donations/{id}", h.delete)
		r.Post("/donations/{id}/request", h.requestContact)
		r.Get("/recent-activity", h.recentActivity)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	items, pagination, err := h.service.List(r.Context(), ListFilter{
		Status:   q.Get("status"),
		Category: q.Get("category"),
		Search:   q.Get("search"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		h.fail(w, "list donations", err)
		return
	}
	httpx.Success(w, http.StatusOK, map[string]any{"data": items, "pagination": pagination})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get donation", err)
		return
	}
	httpx.Success(w, http.StatusOK, map[string]any{"data": item})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	userID, _ := shared.UserIDFromContext(r.Context())

	var (
		in    CreateInput
		image *blob.Image
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		var (
			file multipart.File
			err  error
		)
		in, file, image, err = h.readMultipart(w, r)
		if r.MultipartForm != nil {
			defer func() { _ = r.MultipartForm.RemoveAll() }()
		}
		if file != nil {
			defer file.Close()
		}
		if err != nil {
			h.fail(w, "read upload", err)
			return
		}
	} else if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}

	if err := h.validator.Struct(in); err != nil {
		httpx.RespondError(w, inputError(err, "All fields required"))
		return
	}

	item, err := h.service.Create(r.Context(), userID, in, image)
	if err != nil {
		h.fail(w, "create donation", err)
		return
	}
	httpx.Success(w, http.StatusCreated, map[string]any{
		"message": "Item donated successfully",
		"data":    item,
	})
}

func (h *Handler) readMultipart(w http.ResponseWriter, r *http.Request) (CreateInput, multipart.File, *blob.Image, error) {
	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartMemory)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return CreateInput{}, nil, nil, blob.ErrTooLarge
		}
		return CreateInput{}, nil, nil, shared.Invalid("Malformed form data")
	}
	in := CreateInput{
		Title:       r.PostFormValue("title"),
		Description: r.PostFormValue("description"),
		Category:    r.PostFormValue("category"),
		Condition:   r.PostFormValue("condition"),
		DonorName:   r.PostFormValue("donorName"),
		Email:       r.PostFormValue("email"),
		Mobile:      r.PostFormValue("mobile"),
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return in, nil, nil, nil
		}
		return CreateInput{}, nil, nil, shared.Invalid("Malformed form data")
	}
	image, err := blob.Inspect(file, header.Size, h.maxUpload)
	if err != nil {
		return CreateInput{}, file, nil, err
	}
	return in, file, image, nil
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	userID, _ := shared.UserIDFromContext(r.Context())
	var in UpdateInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(in); err != nil {
		httpx.RespondError(w, inputError(err, "Invalid field values"))
		return
	}
	item, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), userID, in)
	if err != nil {
		h.fail(w, "update donation", err)
		return
	}
	httpx.Success(w, http.StatusOK, map[string]any{"message": "Item updated successfully", "data": item})
}

type deleteRequest struct {
	Password string `json:"password"`
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := shared.UserIDFromContext(r.Context())
	var in deleteRequest
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id"), userID, in.Password); err != nil {
		if errors.Is(err, shared.ErrInvalidCredential) {
			httpx.Error(w, http.StatusBadRequest, "Invalid password")
			return
		}
		h.fail(w, "delete donation", err)
		return
	}
	httpx.Success(w, http.StatusOK, map[string]any{"message": "Item deleted successfully"})
}

type contactRequest struct {
	Message string `json:"message" validate:"max=1000"`
}

func (h *Handler) requestContact(w http.ResponseWriter, r *http.Request) {
	userID, _ := shared.UserIDFromContext(r.Context())
	var in contactRequest
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(in); err != nil {
		httpx.RespondError(w, shared.Invalid("Message is too long"))
		return
	}
	contact, err := h.service.RequestContact(r.Context(), chi.URLParam(r, "id"), userID, in.Message)
	if err != nil {
		h.fail(w, "request contact", err)
		return
	}
	httpx.Success(w, http.StatusOK, map[string]any{
		"data":    contact,
		"message": "Donor contact information retrieved successfully",
	})
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.fail(w, "stats", err)
		return
	}
	httpx.Success(w, http.StatusOK, map[string]any{
		"users":          stats.Users,
		"totalItems":     stats.TotalItems,
		"availableItems": stats.AvailableItems,
		"avgResponse":    stats.AvgResponse,
	})
}

func (h *Handler) recentActivity(w http.ResponseWriter, r *http.Request) {
	activity, err := h.service.RecentActivity(r.Context())
	if err != nil {
		h.fail(w, "recent activity", err)
		return
	}
	if activity == nil {
		activity = []Activity{}
	}
	httpx.Success(w, http.StatusOK, map[string]any{"data": activity})
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Error(w, http.StatusNotFound, "Item not found")
	case errors.Is(err, blob.ErrTooLarge):
		httpx.Error(w, http.StatusRequestEntityTooLarge, "File too large")
	case errors.Is(err, blob.ErrNotImage):
		httpx.Error(w, http.StatusBadRequest, "Only images allowed")
	default:
		status, _ := httpx.Status(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error(op+" failed", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
	}
}

func inputError(err error, fallback string) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return shared.Invalid(fallback)
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return shared.Invalid(fallback)
		}
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "max":
		return shared.Invalid(fe.Field() + " is too long")
	case "oneof":
		return shared.Invalid("Invalid status")
	case "min":
		return shared.Invalid("Fields cannot be empty")
	default:
		return shared.Invalid(fallback)
	}
}
