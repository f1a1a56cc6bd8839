package credential

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/redmonkez12/trailpass/internal/apperr"
	"github.com/redmonkez12/trailpass/internal/auth"
	"github.com/redmonkez12/trailpass/internal/httputil"
	"github.com/redmonkez12/trailpass/internal/logging"
)

// Handler contains HTTP handlers for credential and license endpoints
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Email       string         `json:"email"`
	Password    string         `json:"password"`
	Name        string         `json:"name"`
	Preferences map[string]any `json:"preferences,omitempty"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// IssueLicenseRequest represents the license issuance request body
type IssueLicenseRequest struct {
	UserID string `json:"userId"`
	Type   string `json:"type"`
}

// Register handles user registration
// @Summary      Register a new user
// @Description  Create an account and return a bearer token for it.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration details"
// @Success      201 {object} AuthResult
// @Failure      400 {object} httputil.ErrorResponse "Validation error or email already registered"
// @Failure      429 {object} httputil.ErrorResponse "Too many attempts"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req RegisterRequest
	if !decode(w, r, &req) {
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	res, err := h.service.RegisterUser(r.Context(), RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		Name:        req.Name,
		Preferences: req.Preferences,
	})
	if err != nil {
		respondServiceError(w, logger, "registration failed", err)
		return
	}

	logger.Info("user registered successfully", "user_id", res.User.ID)
	httputil.RespondJSON(w, res, http.StatusCreated)
}

// Login handles user authentication
// @Summary      Log in
// @Description  Exchange email and password for a bearer token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} AuthResult
// @Failure      400 {object} httputil.ErrorResponse "Missing fields"
// @Failure      401 {object} httputil.ErrorResponse "Invalid email or password"
// @Failure      429 {object} httputil.ErrorResponse "Too many attempts"
// @Router       /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req LoginRequest
	if !decode(w, r, &req) {
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	res, err := h.service.LoginUser(r.Context(), req.Email, req.Password)
	if err != nil {
		// Unknown email and wrong password look the same to the caller
		if errors.Is(err, apperr.ErrUserNotFound) || errors.Is(err, apperr.ErrAuthentication) {
			logger.Warn("login failed: invalid credentials", "reason", err.Error())
			httputil.RespondErrorWithCode(w, "invalid email or password", httputil.CodeInvalidCredentials, http.StatusUnauthorized)
			return
		}
		respondServiceError(w, logger, "login failed", err)
		return
	}

	logger.Info("user logged in successfully", "user_id", res.User.ID)
	httputil.RespondJSON(w, res, http.StatusOK)
}

// Me returns the user behind the bearer token
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} user.PublicView
// @Failure      401 {object} httputil.ErrorResponse "Missing, invalid or expired token"
// @Router       /auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	view, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, apperr.ErrUserNotFound) {
			logger.Warn("token refers to unknown user", "user_id", userID)
			httputil.RespondErrorWithCode(w, "invalid token", httputil.CodeInvalidToken, http.StatusUnauthorized)
			return
		}
		respondServiceError(w, logger, "lookup failed", err)
		return
	}

	httputil.RespondJSON(w, view, http.StatusOK)
}

// IssueLicense issues a new license to a user
// @Summary      Issue a license
// @Description  Create an active license valid for 365 days and link it to the user.
// @Tags         licenses
// @Accept       json
// @Produce      json
// @Param        request body IssueLicenseRequest true "License owner and type"
// @Success      200 {object} license.License
// @Failure      400 {object} httputil.ErrorResponse "Missing license type"
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Router       /licenses [post]
func (h *Handler) IssueLicense(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req IssueLicenseRequest
	if !decode(w, r, &req) {
		return
	}

	logger = logger.WithFields(map[string]any{"user_id": req.UserID})

	lic, err := h.service.IssueLicense(r.Context(), req.UserID, req.Type)
	if err != nil {
		respondServiceError(w, logger, "license issuance failed", err)
		return
	}

	logger.Info("license issued", "license_id", lic.ID, "type", lic.Type)
	httputil.RespondJSON(w, lic, http.StatusOK)
}

// VerifyLicense reports whether a license is currently valid
// @Summary      Verify a license
// @Tags         licenses
// @Produce      json
// @Param        id path string true "License ID"
// @Success      200 {object} Verification
// @Failure      404 {object} httputil.ErrorResponse "License not found"
// @Router       /licenses/{id}/verify [get]
func (h *Handler) VerifyLicense(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	licenseID := chi.URLParam(r, "id")

	res, err := h.service.VerifyLicense(r.Context(), licenseID)
	if err != nil {
		respondServiceError(w, logger.WithFields(map[string]any{"license_id": licenseID}), "license verification failed", err)
		return
	}

	httputil.RespondJSON(w, res, http.StatusOK)
}

// GetUserLicenses lists a user's licenses in issuance order
// @Summary      List a user's licenses
// @Description  Licenses in issuance order. An id with no ledger entry is returned as null.
// @Tags         licenses
// @Produce      json
// @Param        id path string true "User ID"
// @Success      200 {array} license.License
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Router       /users/{id}/licenses [get]
func (h *Handler) GetUserLicenses(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	userID := chi.URLParam(r, "id")

	licenses, err := h.service.GetUserLicenses(r.Context(), userID)
	if err != nil {
		respondServiceError(w, logger.WithFields(map[string]any{"user_id": userID}), "license listing failed", err)
		return
	}

	httputil.RespondJSON(w, licenses, http.StatusOK)
}

// decode reads a JSON body into v. An empty body decodes to the zero value
// so that validation reports the missing fields.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := render.DecodeJSON(r.Body, v); err != nil && !errors.Is(err, io.EOF) {
		logging.GetLoggerFromContext(r.Context()).Warn("invalid request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequest, http.StatusBadRequest)
		return false
	}
	return true
}

// respondServiceError maps a service failure to a status and error code.
// Infrastructure failures are logged and reported without detail.
func respondServiceError(w http.ResponseWriter, logger *logging.Logger, action string, err error) {
	kind, ok := apperr.KindOf(err)
	if !ok {
		logger.Error(action+": internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	status, code := statusFor(kind)
	logger.Warn(action, "kind", kind.String(), "error", err.Error())
	httputil.RespondErrorWithCode(w, err.Error(), code, status)
}

func statusFor(kind apperr.Kind) (int, string) {
	switch kind {
	case apperr.KindMissingFields:
		return http.StatusBadRequest, httputil.CodeMissingFields
	case apperr.KindInvalidEmailFormat:
		return http.StatusBadRequest, httputil.CodeInvalidEmailFormat
	case apperr.KindWeakPassword:
		return http.StatusBadRequest, httputil.CodeWeakPassword
	case apperr.KindDuplicateEmail:
		return http.StatusBadRequest, httputil.CodeDuplicateEmail
	case apperr.KindUserNotFound:
		return http.StatusNotFound, httputil.CodeUserNotFound
	case apperr.KindAuthenticationError:
		return http.StatusUnauthorized, httputil.CodeAuthenticationError
	case apperr.KindResourceNotFound:
		return http.StatusNotFound, httputil.CodeResourceNotFound
	default:
		return http.StatusInternalServerError, httputil.CodeInternalError
	}
}
