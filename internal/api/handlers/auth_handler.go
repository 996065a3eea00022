package handlers

import (
	"errors"
	"net/http"
	"time"

	"storefront-service/internal/auth"
	"storefront-service/internal/models"
	"storefront-service/internal/repository"
)

type AuthHandler struct {
	users     repository.UserRepository
	tokens    *auth.TokenIssuer
	bootstrap auth.BootstrapAdmin

	// devMode echoes issued OTP codes back in responses for testability;
	// never enabled in production.
	devMode       bool
	secureCookies bool
}

func NewAuthHandler(users repository.UserRepository, tokens *auth.TokenIssuer, bootstrap auth.BootstrapAdmin, devMode, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		users:         users,
		tokens:        tokens,
		bootstrap:     bootstrap,
		devMode:       devMode,
		secureCookies: secureCookies,
	}
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
	Phone    string `json:"phone" validate:"omitempty,e164"`
}

type RegisterResponse struct {
	User     *models.User `json:"user"`
	Message  string       `json:"message"`
	DebugOTP string       `json:"debug_otp,omitempty"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to register", nil)
		return
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		Phone:        req.Phone,
		Role:         models.RoleCustomer,
	}

	if err := h.users.Create(r.Context(), user); err != nil {
		writeRepoError(w, err, "failed to register")
		return
	}

	destination := user.Email
	if user.Phone != "" {
		destination = user.Phone
	}
	code := auth.GenerateCode(destination)
	if err := h.users.SetOTP(r.Context(), user.ID, code, time.Now().Add(auth.OTPTTL)); err != nil {
		writeRepoError(w, err, "failed to issue verification code")
		return
	}
	auth.DeliverCode(destination, code)

	resp := RegisterResponse{
		User:    user,
		Message: "verification code sent",
	}
	if h.devMode {
		resp.DebugOTP = code
	}

	writeJSON(w, http.StatusCreated, resp)
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type SessionResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// VerifyOTP consumes a registration code, marks the account verified and
// opens a session.
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyOTPRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		writeRepoError(w, err, "failed to verify")
		return
	}

	verified, err := h.users.ConsumeOTP(r.Context(), user.ID, req.Code, true)
	if err != nil {
		writeRepoError(w, err, "failed to verify")
		return
	}

	h.openSession(w, verified)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login handles password login. The bootstrap admin credential is checked
// before any store lookup and never touches the user table.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	if h.bootstrap.Match(req.Email, req.Password) {
		token, err := h.tokens.Issue(0, h.bootstrap.Email, models.RoleAdmin)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to open session", nil)
			return
		}
		auth.SetSessionCookie(w, token, h.tokens.TTL(), h.secureCookies)
		writeJSON(w, http.StatusOK, SessionResponse{
			User: &models.User{
				Email: h.bootstrap.Email,
				Name:  "Bootstrap Admin",
				Role:  models.RoleAdmin,
			},
			Token: token,
		})
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Same message as a wrong password; do not leak which was wrong.
			writeRepoError(w, repository.ErrInvalidCredentials, "")
			return
		}
		writeRepoError(w, err, "failed to log in")
		return
	}

	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		writeRepoError(w, repository.ErrInvalidCredentials, "")
		return
	}

	if !user.IsVerified && user.Role != models.RoleAdmin {
		writeError(w, http.StatusForbidden, "forbidden", "account not verified", nil)
		return
	}

	h.openSession(w, user)
}

type RequestOTPRequest struct {
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone" validate:"omitempty,e164"`
}

type RequestOTPResponse struct {
	Message  string `json:"message"`
	DebugOTP string `json:"debug_otp,omitempty"`
}

// RequestOTP issues a login code to an existing account, addressed by email
// or phone.
func (h *AuthHandler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var req RequestOTPRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}
	if req.Email == "" && req.Phone == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "email or phone required", nil)
		return
	}

	user, destination, err := h.lookup(r, req.Email, req.Phone)
	if err != nil {
		writeRepoError(w, err, "failed to issue code")
		return
	}

	code := auth.GenerateCode(destination)
	if err := h.users.SetOTP(r.Context(), user.ID, code, time.Now().Add(auth.OTPTTL)); err != nil {
		writeRepoError(w, err, "failed to issue code")
		return
	}
	auth.DeliverCode(destination, code)

	resp := RequestOTPResponse{Message: "code sent"}
	if h.devMode {
		resp.DebugOTP = code
	}
	writeJSON(w, http.StatusOK, resp)
}

type LoginOTPRequest struct {
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone" validate:"omitempty,e164"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

// LoginOTP consumes a login code and opens a session, refreshing the
// account's last-login timestamp. Unlike VerifyOTP there is no
// already-verified failure mode here.
func (h *AuthHandler) LoginOTP(w http.ResponseWriter, r *http.Request) {
	var req LoginOTPRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}
	if req.Email == "" && req.Phone == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "email or phone required", nil)
		return
	}

	user, _, err := h.lookup(r, req.Email, req.Phone)
	if err != nil {
		writeRepoError(w, err, "failed to log in")
		return
	}

	loggedIn, err := h.users.ConsumeOTP(r.Context(), user.ID, req.Code, false)
	if err != nil {
		writeRepoError(w, err, "failed to log in")
		return
	}

	h.openSession(w, loggedIn)
}

func (h *AuthHandler) lookup(r *http.Request, email, phone string) (*models.User, string, error) {
	if email != "" {
		user, err := h.users.GetByEmail(r.Context(), email)
		return user, email, err
	}
	user, err := h.users.GetByPhone(r.Context(), phone)
	return user, phone, err
}

func (h *AuthHandler) openSession(w http.ResponseWriter, user *models.User) {
	token, err := h.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to open session", nil)
		return
	}

	auth.SetSessionCookie(w, token, h.tokens.TTL(), h.secureCookies)
	writeJSON(w, http.StatusOK, SessionResponse{User: user, Token: token})
}
