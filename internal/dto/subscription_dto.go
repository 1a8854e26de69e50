package dto

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreditCardInfo struct {
	Number          string `json:"number"`
	HolderName      string `json:"holderName"`
	ExpirationMonth int    `json:"expirationMonth"`
	ExpirationYear  int    `json:"expirationYear"`
	CVV             string `json:"cvv"`
}

// Complete reports whether every card field the gateway needs is present.
func (c *CreditCardInfo) Complete() bool {
	return c != nil && c.Number != "" && c.HolderName != "" &&
		c.ExpirationMonth >= 1 && c.ExpirationMonth <= 12 &&
		c.ExpirationYear > 0 && c.CVV != ""
}

type CreateSubscriptionRequest struct {
	BillingType string          `json:"billing_type" validate:"required"`
	NextDueDate string          `json:"next_due_date" validate:"required,datetime=2006-01-02"`
	Value       decimal.Decimal `json:"value"`
	Cycle       string          `json:"cycle" validate:"required,oneof=WEEKLY BIWEEKLY MONTHLY BIMONTHLY QUARTERLY SEMIANNUALLY YEARLY"`
	Plan        string          `json:"plan" validate:"required"`
	Description string          `json:"description,omitempty"`

	CreditCard                        *CreditCardInfo `json:"credit_card,omitempty"`
	CreditCardHolderName              string          `json:"credit_card_holder_name,omitempty"`
	CreditCardHolderCPFCNPJ           string          `json:"credit_card_holder_cpf_cnpj,omitempty"`
	CreditCardHolderEmail             string          `json:"credit_card_holder_email,omitempty"`
	CreditCardHolderPostalCode        string          `json:"credit_card_holder_postal_code,omitempty"`
	CreditCardHolderAddress           string          `json:"credit_card_holder_address,omitempty"`
	CreditCardHolderAddressNumber     string          `json:"credit_card_holder_address_number,omitempty"`
	CreditCardHolderAddressComplement string          `json:"credit_card_holder_address_complement,omitempty"`
	CreditCardHolderPhone             string          `json:"credit_card_holder_phone,omitempty"`
}

func (r *CreateSubscriptionRequest) Validate() error {
	return validate.Struct(r)
}

type CreateSubscriptionResponse struct {
	SubscriptionID string `json:"subscription_id"`
	Status         string `json:"status"`
}

type SubscriptionDetails struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	SubscriptionID string    `json:"subscription_id"`
	Status         string    `json:"status"`
	Plan           string    `json:"plan"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func NewSubscriptionDetails(s *models.Subscription) SubscriptionDetails {
	return SubscriptionDetails{
		ID:             s.ID,
		UserID:         s.UserID,
		SubscriptionID: s.SubscriptionID,
		Status:         s.Status,
		Plan:           s.Plan,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}
