package services

import (
	"context"
	"sync"

	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/clients/asaas"
	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/clients/gotrue"
	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockIdentity struct {
	mock.Mock
}

func (m *mockIdentity) SignUp(ctx context.Context, email, password string) (*gotrue.User, error) {
	args := m.Called(ctx, email, password)
	u, _ := args.Get(0).(*gotrue.User)
	return u, args.Error(1)
}

func (m *mockIdentity) SignIn(ctx context.Context, email, password string) (*gotrue.Session, error) {
	args := m.Called(ctx, email, password)
	s, _ := args.Get(0).(*gotrue.Session)
	return s, args.Error(1)
}

func (m *mockIdentity) SignOut(ctx context.Context, accessToken string) error {
	return m.Called(ctx, accessToken).Error(0)
}

type mockBilling struct {
	mock.Mock
}

func (m *mockBilling) CreateCustomer(ctx context.Context, req *asaas.CustomerRequest) (*asaas.Customer, error) {
	args := m.Called(ctx, req)
	c, _ := args.Get(0).(*asaas.Customer)
	return c, args.Error(1)
}

func (m *mockBilling) DeleteCustomer(ctx context.Context, customerID string) error {
	return m.Called(ctx, customerID).Error(0)
}

func (m *mockBilling) CreateSubscription(ctx context.Context, req *asaas.SubscriptionRequest) (*asaas.Subscription, error) {
	args := m.Called(ctx, req)
	s, _ := args.Get(0).(*asaas.Subscription)
	return s, args.Error(1)
}

func (m *mockBilling) CancelSubscription(ctx context.Context, subscriptionID string) error {
	return m.Called(ctx, subscriptionID).Error(0)
}

// memProfiles stores profiles the way insert_new_user would: all fields in
// one write or nothing.
type memProfiles struct {
	mu        sync.Mutex
	rows      map[uuid.UUID][]models.User
	insertErr error
	findErr   error
	finds     int
}

func newMemProfiles() *memProfiles {
	return &memProfiles{rows: make(map[uuid.UUID][]models.User)}
}

func (p *memProfiles) InsertNewUser(_ context.Context, u *models.User) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.insertErr != nil {
		return p.insertErr
	}
	p.rows[u.ID] = append(p.rows[u.ID], *u)
	return nil
}

func (p *memProfiles) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finds++
	if p.findErr != nil {
		return nil, p.findErr
	}
	rows := p.rows[id]
	switch len(rows) {
	case 0:
		return nil, repository.ErrNotFound
	case 1:
		u := rows[0]
		return &u, nil
	default:
		return nil, repository.ErrDuplicateProfile
	}
}

func (p *memProfiles) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, rows := range p.rows {
		n += len(rows)
	}
	return n
}

type memSubscriptions struct {
	mu        sync.Mutex
	rows      []models.Subscription
	createErr error
	// dropOnCancel simulates the row disappearing between check and update.
	dropOnCancel bool
}

func (s *memSubscriptions) Create(_ context.Context, sub *models.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	s.rows = append(s.rows, *sub)
	return nil
}

func (s *memSubscriptions) FindOwned(_ context.Context, subscriptionID string, userID uuid.UUID) (*models.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.SubscriptionID == subscriptionID && row.UserID == userID {
			r := row
			return &r, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memSubscriptions) MarkCancelled(_ context.Context, subscriptionID string, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dropOnCancel {
		return 0, nil
	}
	var n int64
	for i := range s.rows {
		if s.rows[i].SubscriptionID == subscriptionID && s.rows[i].UserID == userID {
			s.rows[i].Status = models.SubscriptionStatusCancelled
			n++
		}
	}
	return n, nil
}

type memIssues struct {
	mu     sync.Mutex
	issues []models.ReconciliationIssue
}

func (m *memIssues) Record(_ context.Context, issue *models.ReconciliationIssue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issues = append(m.issues, *issue)
	return nil
}

func (m *memIssues) kinds() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	kinds := make([]string, 0, len(m.issues))
	for _, i := range m.issues {
		kinds = append(kinds, i.Kind)
	}
	return kinds
}
