package handlers_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/api/handlers"
	"storefront-service/internal/auth"
	"storefront-service/internal/models"
	"storefront-service/internal/repository"
)

func TestRegisterIssuesOTP(t *testing.T) {
	env := newTestEnv(t)

	var issuedCode string
	env.users.CreateFunc = func(ctx context.Context, user *models.User) error {
		user.ID = 7
		return nil
	}
	env.users.SetOTPFunc = func(ctx context.Context, userID int, code string, expiresAt time.Time) error {
		assert.Equal(t, 7, userID)
		assert.WithinDuration(t, time.Now().Add(auth.OTPTTL), expiresAt, 5*time.Second)
		issuedCode = code
		return nil
	}

	w := env.do(t, http.MethodPost, "/auth/register", map[string]any{
		"email":    "a@x.com",
		"password": "supersecret",
		"name":     "Aisha",
	}, reqOpts{})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decodeBody[handlers.RegisterResponse](t, w)
	assert.Equal(t, 7, resp.User.ID)
	assert.Len(t, issuedCode, 6)
	// devMode echoes the code so flows are testable without SMS/email.
	assert.Equal(t, issuedCode, resp.DebugOTP)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.users.CreateFunc = func(ctx context.Context, user *models.User) error {
		return repository.ErrDuplicate
	}

	w := env.do(t, http.MethodPost, "/auth/register", map[string]any{
		"email":    "a@x.com",
		"password": "supersecret",
		"name":     "Aisha",
	}, reqOpts{})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegisterRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/auth/register", map[string]any{
		"email":    "not-an-email",
		"password": "short",
		"name":     "",
	}, reqOpts{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyOTPOpensSession(t *testing.T) {
	env := newTestEnv(t)

	user := &models.User{ID: 7, Email: "a@x.com", Role: models.RoleCustomer}
	env.users.GetByEmailFunc = func(ctx context.Context, email string) (*models.User, error) {
		return user, nil
	}
	env.users.ConsumeOTPFunc = func(ctx context.Context, userID int, code string, markVerified bool) (*models.User, error) {
		assert.Equal(t, 7, userID)
		assert.Equal(t, "482913", code)
		assert.True(t, markVerified)
		verified := *user
		verified.IsVerified = true
		return &verified, nil
	}

	w := env.do(t, http.MethodPost, "/auth/verify-otp", map[string]any{
		"email": "a@x.com",
		"code":  "482913",
	}, reqOpts{})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeBody[handlers.SessionResponse](t, w)
	assert.True(t, resp.User.IsVerified)
	require.NotEmpty(t, resp.Token)

	claims, err := env.tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, 7, claims.UserID())

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.SessionCookie, cookies[0].Name)
	assert.Equal(t, resp.Token, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestVerifyOTPFailures(t *testing.T) {
	tests := []struct {
		name       string
		consumeErr error
		wantStatus int
		wantCode   string
	}{
		{"expired", repository.ErrOTPExpired, http.StatusBadRequest, "otp_invalid"},
		{"mismatch", repository.ErrOTPMismatch, http.StatusBadRequest, "otp_invalid"},
		{"never issued", repository.ErrOTPNotFound, http.StatusBadRequest, "otp_invalid"},
		{"already verified", repository.ErrAlreadyVerified, http.StatusConflict, "already_verified"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.users.GetByEmailFunc = func(ctx context.Context, email string) (*models.User, error) {
				return &models.User{ID: 7, Email: email}, nil
			}
			env.users.ConsumeOTPFunc = func(ctx context.Context, userID int, code string, markVerified bool) (*models.User, error) {
				return nil, tt.consumeErr
			}

			w := env.do(t, http.MethodPost, "/auth/verify-otp", map[string]any{
				"email": "a@x.com",
				"code":  "482913",
			}, reqOpts{})

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decodeBody[map[string]any](t, w)
			assert.Equal(t, tt.wantCode, body["error"])
		})
	}
}

func TestLoginGenericFailureForUnknownEmailAndWrongPassword(t *testing.T) {
	env := newTestEnv(t)

	hash, err := auth.HashPassword("right-password")
	require.NoError(t, err)
	env.users.GetByEmailFunc = func(ctx context.Context, email string) (*models.User, error) {
		if email == "known@x.com" {
			return &models.User{ID: 1, Email: email, PasswordHash: hash, IsVerified: true}, nil
		}
		return nil, repository.ErrNotFound
	}

	unknown := env.do(t, http.MethodPost, "/auth/login", map[string]any{
		"email": "nobody@x.com", "password": "whatever",
	}, reqOpts{})
	wrongPass := env.do(t, http.MethodPost, "/auth/login", map[string]any{
		"email": "known@x.com", "password": "wrong",
	}, reqOpts{})

	// Identical status and error code; the response must not reveal
	// whether the email or the password was wrong.
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.Equal(t, unknown.Body.String(), wrongPass.Body.String())
}

func TestLoginRejectsUnverifiedUser(t *testing.T) {
	env := newTestEnv(t)

	hash, err := auth.HashPassword("right-password")
	require.NoError(t, err)
	env.users.GetByEmailFunc = func(ctx context.Context, email string) (*models.User, error) {
		return &models.User{ID: 1, Email: email, PasswordHash: hash, Role: models.RoleCustomer, IsVerified: false}, nil
	}

	w := env.do(t, http.MethodPost, "/auth/login", map[string]any{
		"email": "a@x.com", "password": "right-password",
	}, reqOpts{})

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestLoginSuccess(t *testing.T) {
	env := newTestEnv(t)

	hash, err := auth.HashPassword("right-password")
	require.NoError(t, err)
	env.users.GetByEmailFunc = func(ctx context.Context, email string) (*models.User, error) {
		return &models.User{ID: 3, Email: email, PasswordHash: hash, Role: models.RoleCustomer, IsVerified: true}, nil
	}

	w := env.do(t, http.MethodPost, "/auth/login", map[string]any{
		"email": "a@x.com", "password": "right-password",
	}, reqOpts{})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeBody[handlers.SessionResponse](t, w)
	assert.NotEmpty(t, resp.Token)
}

func TestBootstrapAdminLoginBypassesUserStore(t *testing.T) {
	env := newTestEnv(t)

	storeTouched := false
	env.users.GetByEmailFunc = func(ctx context.Context, email string) (*models.User, error) {
		storeTouched = true
		return nil, repository.ErrNotFound
	}

	w := env.do(t, http.MethodPost, "/auth/login", map[string]any{
		"email": "boot@storefront.local", "password": "bootstrap-pw",
	}, reqOpts{})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.False(t, storeTouched, "bootstrap path must not query the user store")

	resp := decodeBody[handlers.SessionResponse](t, w)
	claims, err := env.tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestLoginOTPRefreshesLastLogin(t *testing.T) {
	env := newTestEnv(t)

	env.users.GetByPhoneFunc = func(ctx context.Context, phone string) (*models.User, error) {
		return &models.User{ID: 9, Email: "p@x.com", Phone: phone, Role: models.RoleCustomer, IsVerified: true}, nil
	}
	env.users.ConsumeOTPFunc = func(ctx context.Context, userID int, code string, markVerified bool) (*models.User, error) {
		assert.False(t, markVerified, "login flow must not set the verified flag")
		now := time.Now()
		return &models.User{ID: 9, Email: "p@x.com", Role: models.RoleCustomer, IsVerified: true, LastLogin: &now}, nil
	}

	w := env.do(t, http.MethodPost, "/auth/login-otp", map[string]any{
		"phone": "+911234567890", "code": "123456",
	}, reqOpts{})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeBody[handlers.SessionResponse](t, w)
	assert.NotNil(t, resp.User.LastLogin)
}
