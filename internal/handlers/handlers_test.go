package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testUser = &models.User{
	ID:       uuid.MustParse("7d0c5a8e-1f2b-4e3a-9c4d-5e6f7a8b9c01"),
	Email:    "a@b.com",
	Username: "ana",
	Name:     "Ana",
	CPFCNPJ:  "12345678909",
}

type mockOnboarding struct{ mock.Mock }

func (m *mockOnboarding) Register(ctx context.Context, req *dto.RegisterRequest) (*services.RegisterResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*services.RegisterResult)
	return res, args.Error(1)
}

func (m *mockOnboarding) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*dto.TokenResponse)
	return res, args.Error(1)
}

func (m *mockOnboarding) Logout(ctx context.Context, userID uuid.UUID, accessToken string) error {
	return m.Called(ctx, userID, accessToken).Error(0)
}

type mockSubscriptions struct{ mock.Mock }

func (m *mockSubscriptions) Create(ctx context.Context, user *models.User, req *dto.CreateSubscriptionRequest, remoteIP string) (*dto.CreateSubscriptionResponse, error) {
	args := m.Called(ctx, user, req, remoteIP)
	res, _ := args.Get(0).(*dto.CreateSubscriptionResponse)
	return res, args.Error(1)
}

func (m *mockSubscriptions) Get(ctx context.Context, subscriptionID string, userID uuid.UUID) (*models.Subscription, error) {
	args := m.Called(ctx, subscriptionID, userID)
	res, _ := args.Get(0).(*models.Subscription)
	return res, args.Error(1)
}

func (m *mockSubscriptions) Cancel(ctx context.Context, subscriptionID string, userID uuid.UUID) error {
	return m.Called(ctx, subscriptionID, userID).Error(0)
}

type mockReconciliation struct{ mock.Mock }

func (m *mockReconciliation) ListOpen(ctx context.Context, limit int) ([]models.ReconciliationIssue, error) {
	args := m.Called(ctx, limit)
	res, _ := args.Get(0).([]models.ReconciliationIssue)
	return res, args.Error(1)
}

func (m *mockReconciliation) Resolve(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type staticProfiles struct {
	user *models.User
	err  error
}

func (s staticProfiles) Current(context.Context, uuid.UUID) (*models.User, error) {
	return s.user, s.err
}

// authenticated stands in for JWTProtected by placing a parsed token in the
// context, then loads the profile through the real middleware.
func authenticated(profiles middleware.ProfileLoader) []fiber.Handler {
	return []fiber.Handler{
		func(c *fiber.Ctx) error {
			c.Locals("user", &jwt.Token{
				Raw:    "access-token",
				Claims: jwt.MapClaims{"sub": testUser.ID.String()},
			})
			return c.Next()
		},
		middleware.CurrentProfile(profiles),
	}
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

const validRegistration = `{"email":"a@b.com","password":"secret1","name":"Ana","username":"ana","cpf_cnpj":"12345678909"}`

func TestRegister(t *testing.T) {
	t.Run("returns the persisted profile", func(t *testing.T) {
		onboarding := new(mockOnboarding)
		onboarding.On("Register", mock.Anything, mock.MatchedBy(func(r *dto.RegisterRequest) bool {
			return r.Email == "a@b.com" && r.CPFCNPJ == "12345678909"
		})).Return(&services.RegisterResult{UserID: testUser.ID, Profile: testUser}, nil)

		app := fiber.New()
		app.Post("/auth/register", NewAuthHandler(onboarding).Register)

		status, body := doJSON(t, app, http.MethodPost, "/auth/register", validRegistration)
		assert.Equal(t, http.StatusCreated, status)
		assert.Equal(t, testUser.ID.String(), body["id"])
		assert.Equal(t, "ana", body["username"])
		onboarding.AssertExpectations(t)
	})

	t.Run("degraded result carries only the user id", func(t *testing.T) {
		onboarding := new(mockOnboarding)
		onboarding.On("Register", mock.Anything, mock.Anything).
			Return(&services.RegisterResult{UserID: testUser.ID}, nil)

		app := fiber.New()
		app.Post("/auth/register", NewAuthHandler(onboarding).Register)

		status, body := doJSON(t, app, http.MethodPost, "/auth/register", validRegistration)
		assert.Equal(t, http.StatusCreated, status)
		assert.Equal(t, testUser.ID.String(), body["user_id"])
		assert.NotContains(t, body, "email")
	})

	t.Run("invalid payload never reaches the service", func(t *testing.T) {
		onboarding := new(mockOnboarding)
		app := fiber.New()
		app.Post("/auth/register", NewAuthHandler(onboarding).Register)

		status, body := doJSON(t, app, http.MethodPost, "/auth/register", `{"email":"not-an-email","password":"x"}`)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "validation_error", body["code"])
		onboarding.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	})

	t.Run("profile persistence failure names the state but not the cause", func(t *testing.T) {
		onboarding := new(mockOnboarding)
		onboarding.On("Register", mock.Anything, mock.Anything).
			Return(nil, apperr.Unreconciled(services.ErrProfilePersistenceFailed, "insert_new_user: duplicate key"))

		app := fiber.New()
		app.Post("/auth/register", NewAuthHandler(onboarding).Register)

		status, body := doJSON(t, app, http.MethodPost, "/auth/register", validRegistration)
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, "internal_error", body["code"])
		assert.Equal(t, services.ErrProfilePersistenceFailed.Error(), body["message"])
		assert.NotContains(t, body["message"], "duplicate key")
	})

	t.Run("unexpected failure hides the message", func(t *testing.T) {
		onboarding := new(mockOnboarding)
		onboarding.On("Register", mock.Anything, mock.Anything).
			Return(nil, apperr.Internal(services.ErrUnexpectedAccountID, "not-a-uuid"))

		app := fiber.New()
		app.Post("/auth/register", NewAuthHandler(onboarding).Register)

		status, body := doJSON(t, app, http.MethodPost, "/auth/register", validRegistration)
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, "Internal server error", body["message"])
	})
}

func TestCreateSubscriptionNotPersistedIsReported(t *testing.T) {
	subs := new(mockSubscriptions)
	subs.On("Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, apperr.Unreconciled(services.ErrSubscriptionNotPersisted, "duplicate key value"))

	app := subscriptionApp(subs)
	status, body := doJSON(t, app, http.MethodPost, "/subscriptions/create",
		`{"billing_type":"PIX","next_due_date":"2026-11-01","value":"10","cycle":"MONTHLY","plan":"pro"}`)

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, services.ErrSubscriptionNotPersisted.Error(), body["message"])
}

func TestLogin(t *testing.T) {
	onboarding := new(mockOnboarding)
	onboarding.On("Login", mock.Anything, mock.MatchedBy(func(r *dto.LoginRequest) bool {
		return r.Password == "right"
	})).Return(&dto.TokenResponse{AccessToken: "jwt", TokenType: "bearer"}, nil)
	onboarding.On("Login", mock.Anything, mock.Anything).
		Return(nil, apperr.Auth(services.ErrInvalidCredentials, ""))

	app := fiber.New()
	app.Post("/auth/login", NewAuthHandler(onboarding).Login)

	status, body := doJSON(t, app, http.MethodPost, "/auth/login", `{"email":"a@b.com","password":"right"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "jwt", body["access_token"])

	status, body = doJSON(t, app, http.MethodPost, "/auth/login", `{"email":"a@b.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid email or password", body["message"])
}

func TestLogoutForwardsAccessToken(t *testing.T) {
	onboarding := new(mockOnboarding)
	onboarding.On("Logout", mock.Anything, testUser.ID, "access-token").Return(nil)

	app := fiber.New()
	app.Post("/auth/logout", append(authenticated(staticProfiles{user: testUser}), NewAuthHandler(onboarding).Logout)...)

	status, body := doJSON(t, app, http.MethodPost, "/auth/logout", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Logged out successfully", body["message"])
	onboarding.AssertExpectations(t)
}

func TestMe(t *testing.T) {
	app := fiber.New()
	app.Get("/users/me", append(authenticated(staticProfiles{user: testUser}), NewUserHandler().Me)...)

	status, body := doJSON(t, app, http.MethodGet, "/users/me", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "a@b.com", body["email"])

	missing := fiber.New()
	missing.Get("/users/me", append(authenticated(staticProfiles{
		err: apperr.NotFound(services.ErrProfileNotFound, ""),
	}), NewUserHandler().Me)...)

	status, body = doJSON(t, missing, http.MethodGet, "/users/me", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "user profile not found", body["message"])
}

func subscriptionApp(subs Subscriptions) *fiber.App {
	h := NewSubscriptionHandler(subs)
	mw := authenticated(staticProfiles{user: testUser})

	app := fiber.New()
	app.Post("/subscriptions/create", append(mw, h.Create)...)
	app.Get("/subscriptions/:id", append(mw, h.Get)...)
	app.Post("/subscriptions/:id/cancel", append(mw, h.Cancel)...)
	return app
}

func TestCreateSubscription(t *testing.T) {
	subs := new(mockSubscriptions)
	subs.On("Create", mock.Anything, testUser, mock.MatchedBy(func(r *dto.CreateSubscriptionRequest) bool {
		return r.BillingType == "PIX" && r.Value.String() == "49.9"
	}), mock.Anything).Return(&dto.CreateSubscriptionResponse{SubscriptionID: "sub_1", Status: "ACTIVE"}, nil)

	app := subscriptionApp(subs)
	status, body := doJSON(t, app, http.MethodPost, "/subscriptions/create",
		`{"billing_type":"PIX","next_due_date":"2026-11-01","value":"49.90","cycle":"MONTHLY","plan":"pro"}`)

	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "sub_1", body["subscription_id"])
	subs.AssertExpectations(t)
}

func TestCreateSubscriptionRejectsBadCycle(t *testing.T) {
	subs := new(mockSubscriptions)
	app := subscriptionApp(subs)

	status, body := doJSON(t, app, http.MethodPost, "/subscriptions/create",
		`{"billing_type":"PIX","next_due_date":"2026-11-01","value":"10","cycle":"DAILY","plan":"pro"}`)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", body["code"])
	subs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetSubscription(t *testing.T) {
	subs := new(mockSubscriptions)
	subs.On("Get", mock.Anything, "sub_1", testUser.ID).Return(&models.Subscription{
		ID:             uuid.New(),
		UserID:         testUser.ID,
		SubscriptionID: "sub_1",
		Status:         "ACTIVE",
		Plan:           "pro",
		CreatedAt:      time.Now(),
	}, nil)
	subs.On("Get", mock.Anything, "sub_other", testUser.ID).
		Return(nil, apperr.NotFound(services.ErrSubscriptionNotFound, ""))

	app := subscriptionApp(subs)

	status, body := doJSON(t, app, http.MethodGet, "/subscriptions/sub_1", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "pro", body["plan"])

	status, body = doJSON(t, app, http.MethodGet, "/subscriptions/sub_other", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", body["code"])
}

func TestCancelSubscription(t *testing.T) {
	subs := new(mockSubscriptions)
	subs.On("Cancel", mock.Anything, "sub_1", testUser.ID).Return(nil)
	subs.On("Cancel", mock.Anything, "sub_2", testUser.ID).
		Return(apperr.DataIntegrity(services.ErrCancellationNotPersisted, "0 rows updated"))

	app := subscriptionApp(subs)

	status, body := doJSON(t, app, http.MethodPost, "/subscriptions/sub_1/cancel", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Subscription cancelled successfully", body["message"])

	status, body = doJSON(t, app, http.MethodPost, "/subscriptions/sub_2/cancel", "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "data_integrity_error", body["code"])
}

func TestReconciliation(t *testing.T) {
	issueID := uuid.New()
	rec := new(mockReconciliation)
	rec.On("ListOpen", mock.Anything, 5).Return([]models.ReconciliationIssue{
		{ID: issueID, Kind: models.IssueOrphanedAccount},
	}, nil)
	rec.On("Resolve", mock.Anything, issueID).Return(nil)

	h := NewReconciliationHandler(rec)
	app := fiber.New()
	app.Get("/admin/reconciliation", h.List)
	app.Post("/admin/reconciliation/:id/resolve", h.Resolve)

	status, body := doJSON(t, app, http.MethodGet, "/admin/reconciliation?limit=5", "")
	assert.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["count"])

	status, _ = doJSON(t, app, http.MethodPost, "/admin/reconciliation/"+issueID.String()+"/resolve", "")
	assert.Equal(t, http.StatusOK, status)

	status, body = doJSON(t, app, http.MethodPost, "/admin/reconciliation/not-a-uuid/resolve", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid issue ID", body["message"])
	rec.AssertExpectations(t)
}

func TestHealth(t *testing.T) {
	healthy := NewHealthHandler(map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
	})
	app := fiber.New()
	app.Get("/health", healthy.Check)

	status, body := doJSON(t, app, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	degraded := NewHealthHandler(map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})
	app = fiber.New()
	app.Get("/health", degraded.Check)

	status, body = doJSON(t, app, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "degraded", body["status"])
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "ok", checks["database"])
	assert.Equal(t, "unhealthy", checks["redis"])
	assert.NotContains(t, checks["redis"], "connection refused")
}
