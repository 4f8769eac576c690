package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/quillstack/userd/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the credential lifecycle.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Get("/activate/{activationToken}", h.handleActivate)
	r.Post("/login", h.handleLogin)
}

type registerRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	Username  string `json:"username" validate:"required"`
	Role      string `json:"role" validate:"required"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Bio       string `json:"bio"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// validationMessages mirrors the public contract: one message per failed field.
var validationMessages = map[string]string{
	"Email":     "Email is not valid",
	"Password":  "Password cannot be blank",
	"Username":  "Username must be specified",
	"Role":      "Role must be specified",
	"FirstName": "First name must be specified",
	"LastName":  "Last name must be specified",
}

func (h *Handler) validate(form any) []string {
	err := h.validator.Struct(form)
	if err == nil {
		return nil
	}
	var messages []string
	for _, fieldErr := range err.(validator.ValidationErrors) {
		if msg, ok := validationMessages[fieldErr.Field()]; ok {
			messages = append(messages, msg)
		} else {
			messages = append(messages, fieldErr.Field()+" is not valid")
		}
	}
	return messages
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var form registerRequest
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "malformed request body")
		return
	}
	// Validation failures return 401 on auth routes; clients assert on it.
	if messages := h.validate(form); messages != nil {
		httpx.Fail(w, http.StatusUnauthorized, messages)
		return
	}

	user, err := h.service.Register(r.Context(), RegisterInput{
		Email:     form.Email,
		Password:  form.Password,
		Username:  form.Username,
		Role:      form.Role,
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Bio:       form.Bio,
	})
	if err != nil {
		h.logger.Warn("register failed", slog.String("email", NormalizeEmail(form.Email)), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user.Public())
}

func (h *Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "activationToken")
	sessionToken, err := h.service.Activate(r.Context(), token)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"token": sessionToken})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var form loginRequest
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if messages := h.validate(form); messages != nil {
		httpx.Fail(w, http.StatusUnauthorized, messages)
		return
	}

	sessionToken, err := h.service.Login(r.Context(), form.Email, form.Password)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"token": sessionToken})
}
