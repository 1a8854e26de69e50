package services

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/clients/asaas"
	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/clients/gotrue"
	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/models"
	"github.com/google/uuid"
)

// IdentityProvider owns accounts and sessions.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password string) (*gotrue.User, error)
	SignIn(ctx context.Context, email, password string) (*gotrue.Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

// BillingGateway owns customers and recurring subscriptions.
type BillingGateway interface {
	CreateCustomer(ctx context.Context, req *asaas.CustomerRequest) (*asaas.Customer, error)
	DeleteCustomer(ctx context.Context, customerID string) error
	CreateSubscription(ctx context.Context, req *asaas.SubscriptionRequest) (*asaas.Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string) error
}

type ProfileStore interface {
	InsertNewUser(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type SubscriptionStore interface {
	Create(ctx context.Context, sub *models.Subscription) error
	FindOwned(ctx context.Context, subscriptionID string, userID uuid.UUID) (*models.Subscription, error)
	MarkCancelled(ctx context.Context, subscriptionID string, userID uuid.UUID) (int64, error)
}

type IssueRecorder interface {
	Record(ctx context.Context, issue *models.ReconciliationIssue) error
}
