package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/clients/asaas"
	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/repository"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrNoBillingCustomer         = errors.New("no billing customer associated")
	ErrInvalidBillingType        = errors.New("invalid billing type, use BOLETO, CREDIT_CARD or PIX")
	ErrInvalidValue              = errors.New("value must be greater than zero")
	ErrCreditCardDetailsRequired = errors.New("credit card subscriptions require card number, holder name, expiry and cvv, plus holder name, tax id, postal code, street and street number")
	ErrSubscriptionFailed        = errors.New("subscription creation failed")
	ErrSubscriptionNotPersisted  = errors.New("subscription created at the gateway but could not be saved")
	ErrSubscriptionNotFound      = errors.New("subscription not found")
	ErrCancellationFailed        = errors.New("subscription cancellation failed")
	ErrCancellationNotPersisted  = errors.New("subscription cancelled at the gateway but the local status was not updated")
)

const (
	workflowSubscribe = "subscribe"
	workflowCancel    = "cancel_subscription"
)

type SubscriptionService struct {
	billing       BillingGateway
	subscriptions SubscriptionStore
	issues        IssueRecorder
}

func NewSubscriptionService(billing BillingGateway, subscriptions SubscriptionStore, issues IssueRecorder) *SubscriptionService {
	return &SubscriptionService{
		billing:       billing,
		subscriptions: subscriptions,
		issues:        issues,
	}
}

// Create opens a gateway subscription for user and stores the local
// mirror. A failed local write does not cancel the gateway subscription; it
// is recorded for reconciliation instead.
func (s *SubscriptionService) Create(ctx context.Context, user *models.User, req *dto.CreateSubscriptionRequest, remoteIP string) (*dto.CreateSubscriptionResponse, error) {
	ctx, span := tracer.Start(ctx, "SubscriptionService.Create")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", user.ID.String()), attribute.String("billing.type", req.BillingType))

	customerID := user.BillingCustomerID()
	if customerID == "" {
		return nil, apperr.Validation(ErrNoBillingCustomer, "")
	}

	payload, err := buildSubscriptionRequest(customerID, req, remoteIP)
	if err != nil {
		return nil, err
	}

	created, err := s.billing.CreateSubscription(ctx, payload)
	if err == nil && created.ID == "" {
		err = errors.New("gateway response has no subscription id")
	}
	if err != nil {
		slog.Error("gateway subscription creation failed",
			"action", workflowSubscribe, "user_id", user.ID.String(), "error", err)
		metrics.Outcome(workflowSubscribe, "gateway_failed")
		return nil, gatewayError(err, ErrSubscriptionFailed, false)
	}

	record := &models.Subscription{
		UserID:         user.ID,
		SubscriptionID: created.ID,
		Status:         created.Status,
		Plan:           req.Plan,
	}
	if err := s.subscriptions.Create(ctx, record); err != nil {
		slog.Error("subscription not persisted after gateway creation",
			"action", workflowSubscribe, "user_id", user.ID.String(), "subscription_id", created.ID, "error", err)
		recordIssue(ctx, s.issues, models.IssueSubscriptionNotPersisted, user.ID, created.ID, err.Error())
		metrics.Outcome(workflowSubscribe, "persistence_failed")
		return nil, apperr.Unreconciled(ErrSubscriptionNotPersisted, err.Error())
	}

	slog.Info("subscription created",
		"action", workflowSubscribe, "user_id", user.ID.String(), "subscription_id", created.ID, "status", created.Status)
	metrics.Outcome(workflowSubscribe, "success")
	return &dto.CreateSubscriptionResponse{
		SubscriptionID: created.ID,
		Status:         created.Status,
	}, nil
}

// buildSubscriptionRequest validates the billing-type specific input. It
// runs before any gateway call.
func buildSubscriptionRequest(customerID string, req *dto.CreateSubscriptionRequest, remoteIP string) (*asaas.SubscriptionRequest, error) {
	if !req.Value.IsPositive() {
		return nil, apperr.Validation(ErrInvalidValue, req.Value.String())
	}

	payload := &asaas.SubscriptionRequest{
		Customer:    customerID,
		BillingType: req.BillingType,
		NextDueDate: req.NextDueDate,
		Value:       req.Value.InexactFloat64(),
		Cycle:       req.Cycle,
		Description: req.Description,
	}

	switch req.BillingType {
	case asaas.BillingTypeBoleto, asaas.BillingTypePix:
		return payload, nil
	case asaas.BillingTypeCreditCard:
	default:
		return nil, apperr.Validation(ErrInvalidBillingType, req.BillingType)
	}

	if !req.CreditCard.Complete() ||
		req.CreditCardHolderName == "" ||
		req.CreditCardHolderCPFCNPJ == "" ||
		req.CreditCardHolderPostalCode == "" ||
		req.CreditCardHolderAddress == "" ||
		req.CreditCardHolderAddressNumber == "" {
		return nil, apperr.Validation(ErrCreditCardDetailsRequired, "")
	}

	payload.CreditCard = &asaas.CreditCard{
		HolderName:  req.CreditCard.HolderName,
		Number:      req.CreditCard.Number,
		ExpiryMonth: fmt.Sprintf("%02d", req.CreditCard.ExpirationMonth),
		ExpiryYear:  fmt.Sprintf("%d", req.CreditCard.ExpirationYear),
		CCV:         req.CreditCard.CVV,
	}
	payload.CreditCardHolderInfo = &asaas.CreditCardHolderInfo{
		Name:              req.CreditCardHolderName,
		Email:             req.CreditCardHolderEmail,
		CpfCnpj:           req.CreditCardHolderCPFCNPJ,
		PostalCode:        req.CreditCardHolderPostalCode,
		Address:           req.CreditCardHolderAddress,
		AddressNumber:     req.CreditCardHolderAddressNumber,
		AddressComplement: req.CreditCardHolderAddressComplement,
		Phone:             req.CreditCardHolderPhone,
		MobilePhone:       req.CreditCardHolderPhone,
	}
	payload.RemoteIP = remoteIP
	return payload, nil
}

func (s *SubscriptionService) Get(ctx context.Context, subscriptionID string, userID uuid.UUID) (*models.Subscription, error) {
	sub, err := s.subscriptions.FindOwned(ctx, subscriptionID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound(ErrSubscriptionNotFound, subscriptionID)
	}
	if err != nil {
		return nil, apperr.Internal(err, "")
	}
	return sub, nil
}

// Cancel cancels at the gateway first and only then marks the local row.
// When the local update changes nothing the gateway side stays cancelled
// and the mismatch is surfaced as a data integrity failure.
func (s *SubscriptionService) Cancel(ctx context.Context, subscriptionID string, userID uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "SubscriptionService.Cancel")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID.String()), attribute.String("subscription.id", subscriptionID))

	if _, err := s.Get(ctx, subscriptionID, userID); err != nil {
		return err
	}

	if err := s.billing.CancelSubscription(ctx, subscriptionID); err != nil {
		slog.Error("gateway cancellation failed",
			"action", workflowCancel, "user_id", userID.String(), "subscription_id", subscriptionID, "error", err)
		metrics.Outcome(workflowCancel, "gateway_failed")
		return gatewayError(err, ErrCancellationFailed, true)
	}

	rows, err := s.subscriptions.MarkCancelled(ctx, subscriptionID, userID)
	if err == nil && rows == 0 {
		err = errors.New("update affected no rows")
	}
	if err != nil {
		integrityErr := apperr.DataIntegrity(ErrCancellationNotPersisted, err.Error())
		slog.Error("subscription cancelled remotely but not locally",
			"action", workflowCancel, "user_id", userID.String(), "subscription_id", subscriptionID, "error", err)
		recordIssue(ctx, s.issues, models.IssueCancellationNotPersisted, userID, subscriptionID, err.Error())
		captureInconsistency(integrityErr, workflowCancel, userID, subscriptionID)
		metrics.Outcome(workflowCancel, "inconsistent")
		return integrityErr
	}

	slog.Info("subscription cancelled", "action", workflowCancel, "user_id", userID.String(), "subscription_id", subscriptionID)
	metrics.Outcome(workflowCancel, "success")
	return nil
}
