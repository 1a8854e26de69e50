package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/clients/asaas"
	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/clients/gotrue"
	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/models"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var (
	ErrRegistrationRejected     = errors.New("registration rejected")
	ErrUnexpectedAccountID      = errors.New("identity provider returned an unusable account id")
	ErrBillingCustomerFailed    = errors.New("billing customer creation failed")
	ErrProfilePersistenceFailed = errors.New("profile persistence failed, account remains without a profile")
	ErrInvalidCredentials       = errors.New("invalid email or password")
	ErrLoginFailed              = errors.New("login failed")
	ErrLogoutFailed             = errors.New("logout failed")
)

const workflowRegister = "register"

// RegisterResult is the outcome of a completed registration. Profile is nil
// when the write succeeded but reading it back did not.
type RegisterResult struct {
	UserID  uuid.UUID
	Profile *models.User
}

func (r *RegisterResult) Degraded() bool {
	return r.Profile == nil
}

type OnboardingService struct {
	identity IdentityProvider
	billing  BillingGateway
	profiles ProfileStore
	issues   IssueRecorder
}

func NewOnboardingService(identity IdentityProvider, billing BillingGateway, profiles ProfileStore, issues IssueRecorder) *OnboardingService {
	return &OnboardingService{
		identity: identity,
		billing:  billing,
		profiles: profiles,
		issues:   issues,
	}
}

// Register creates the account, then the billing customer, then the local
// profile. Only the billing customer is ever rolled back; an account left
// behind by a later failure is recorded for manual cleanup.
func (s *OnboardingService) Register(ctx context.Context, req *dto.RegisterRequest) (res *RegisterResult, err error) {
	ctx, span := tracer.Start(ctx, "OnboardingService.Register")
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "registration failed")
		}
	}()

	account, err := s.identity.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		slog.Warn("account creation failed", "action", workflowRegister, "error", err)
		metrics.Outcome(workflowRegister, "rejected")
		return nil, identityError(err, ErrRegistrationRejected)
	}

	userID, err := uuid.Parse(account.ID)
	if err != nil {
		slog.Error("identity provider returned a non-uuid account id",
			"action", workflowRegister, "account_id", account.ID, "error", err)
		metrics.Outcome(workflowRegister, "failed")
		return nil, apperr.Internal(ErrUnexpectedAccountID, account.ID)
	}
	span.SetAttributes(attribute.String("user.id", userID.String()))

	customer, err := s.billing.CreateCustomer(ctx, &asaas.CustomerRequest{
		Name:              req.Name,
		Email:             req.Email,
		CpfCnpj:           req.CPFCNPJ,
		MobilePhone:       deref(req.Phone),
		Address:           deref(req.Address),
		Description:       deref(req.Description),
		ExternalReference: userID.String(),
	})
	if err == nil && customer.ID == "" {
		err = errors.New("gateway response has no customer id")
	}
	if err != nil {
		slog.Error("billing customer creation failed, account left without profile",
			"action", workflowRegister, "user_id", userID.String(), "error", err)
		recordIssue(ctx, s.issues, models.IssueOrphanedAccount, userID, userID.String(),
			"billing customer creation failed: "+err.Error())
		metrics.Outcome(workflowRegister, "billing_customer_failed")
		return nil, gatewayError(err, ErrBillingCustomerFailed, false)
	}

	customerID := customer.ID
	profile := &models.User{
		ID:              userID,
		Email:           req.Email,
		Username:        req.Username,
		Name:            req.Name,
		CPFCNPJ:         req.CPFCNPJ,
		AsaasCustomerID: &customerID,
		Address:         req.Address,
		Phone:           req.Phone,
		Description:     req.Description,
	}
	if err := s.profiles.InsertNewUser(ctx, profile); err != nil {
		slog.Error("profile persistence failed, rolling back billing customer",
			"action", workflowRegister, "user_id", userID.String(), "customer_id", customerID, "error", err)
		s.deleteCustomer(ctx, userID, customerID)
		recordIssue(ctx, s.issues, models.IssueOrphanedAccount, userID, userID.String(),
			"profile persistence failed: "+err.Error())
		metrics.Outcome(workflowRegister, "profile_persistence_failed")
		return nil, apperr.Unreconciled(ErrProfilePersistenceFailed, fmt.Sprintf("%v (account %s)", err, userID))
	}

	stored, err := s.profiles.FindByID(ctx, userID)
	if err != nil {
		slog.Warn("profile re-fetch failed after registration",
			"action", workflowRegister, "user_id", userID.String(), "error", err)
		metrics.Outcome(workflowRegister, "degraded")
		return &RegisterResult{UserID: userID}, nil
	}

	slog.Info("user registered", "action", workflowRegister, "user_id", userID.String(), "customer_id", customerID)
	metrics.Outcome(workflowRegister, "success")
	return &RegisterResult{UserID: userID, Profile: stored}, nil
}

// deleteCustomer is best effort. Its failure never replaces the error the
// caller is about to get.
func (s *OnboardingService) deleteCustomer(ctx context.Context, userID uuid.UUID, customerID string) {
	cctx, cancel := detached(ctx)
	defer cancel()

	err := s.billing.DeleteCustomer(cctx, customerID)
	metrics.Compensation("delete_billing_customer", err)
	if err == nil {
		slog.Info("billing customer rolled back", "action", workflowRegister, "user_id", userID.String(), "customer_id", customerID)
		return
	}

	slog.Error("billing customer rollback failed",
		"action", workflowRegister, "user_id", userID.String(), "customer_id", customerID, "error", err)
	recordIssue(ctx, s.issues, models.IssueOrphanedBillingCustomer, userID, customerID,
		"rollback delete failed: "+err.Error())
}

func (s *OnboardingService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	ctx, span := tracer.Start(ctx, "OnboardingService.Login")
	defer span.End()

	session, err := s.identity.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		var apiErr *gotrue.APIError
		if errors.As(err, &apiErr) && apiErr.InvalidCredentials() {
			return nil, apperr.Auth(ErrInvalidCredentials, apiErr.Message)
		}
		slog.Error("sign-in failed", "action", "login", "error", err)
		return nil, identityError(err, ErrLoginFailed)
	}

	return &dto.TokenResponse{
		AccessToken: session.AccessToken,
		TokenType:   "bearer",
	}, nil
}

func (s *OnboardingService) Logout(ctx context.Context, userID uuid.UUID, accessToken string) error {
	ctx, span := tracer.Start(ctx, "OnboardingService.Logout")
	defer span.End()

	if err := s.identity.SignOut(ctx, accessToken); err != nil {
		slog.Error("sign-out failed", "action", "logout", "user_id", userID.String(), "error", err)
		return identityError(err, ErrLogoutFailed)
	}
	return nil
}
