package dto

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/models"
	"github.com/google/uuid"
)

// RegisterRequest limits mirror the users table columns.
type RegisterRequest struct {
	Email       string  `json:"email" validate:"required,max=255,email"`
	Password    string  `json:"password" validate:"required,min=6"`
	Name        string  `json:"name" validate:"required,max=255"`
	Username    string  `json:"username" validate:"required,max=100"`
	CPFCNPJ     string  `json:"cpf_cnpj" validate:"required,max=18"`
	Address     *string `json:"address,omitempty"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Description *string `json:"description,omitempty"`
}

func (r *RegisterRequest) Validate() error {
	return validate.Struct(r)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Validate() error {
	return validate.Struct(r)
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// RegisteredResponse is returned when the account was created but the
// profile could not be read back.
type RegisteredResponse struct {
	Message string    `json:"message"`
	UserID  uuid.UUID `json:"user_id"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type UserProfile struct {
	ID              uuid.UUID `json:"id"`
	Email           string    `json:"email"`
	Username        string    `json:"username"`
	Name            string    `json:"name"`
	CPFCNPJ         string    `json:"cpf_cnpj"`
	AsaasCustomerID *string   `json:"asaas_customer_id"`
	Address         *string   `json:"address"`
	Phone           *string   `json:"phone"`
	Description     *string   `json:"description"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func NewUserProfile(u *models.User) UserProfile {
	return UserProfile{
		ID:              u.ID,
		Email:           u.Email,
		Username:        u.Username,
		Name:            u.Name,
		CPFCNPJ:         u.CPFCNPJ,
		AsaasCustomerID: u.AsaasCustomerID,
		Address:         u.Address,
		Phone:           u.Phone,
		Description:     u.Description,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}
