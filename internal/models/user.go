package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the local profile of an identity-provider account. Its ID is the
// account ID; rows are only written by the insert_new_user procedure.
type User struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email           string    `gorm:"size:255;not null" json:"email"`
	Username        string    `gorm:"size:100;not null" json:"username"`
	Name            string    `gorm:"size:255;not null" json:"name"`
	CPFCNPJ         string    `gorm:"column:cpf_cnpj;size:18;not null" json:"cpf_cnpj"`
	AsaasCustomerID *string   `gorm:"size:64;index" json:"asaas_customer_id"`
	Address         *string   `gorm:"type:text" json:"address"`
	Phone           *string   `gorm:"size:32" json:"phone"`
	Description     *string   `gorm:"type:text" json:"description"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// BillingCustomerID returns the Asaas customer reference, or "" when none
// was stored.
func (u *User) BillingCustomerID() string {
	if u.AsaasCustomerID == nil {
		return ""
	}
	return *u.AsaasCustomerID
}
