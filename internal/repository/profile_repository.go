// Package repository is the data-store boundary. It owns every query and
// normalizes driver responses before services see them.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicateProfile = errors.New("more than one profile for user")
)

// RPCError is returned when a stored procedure did not report success.
type RPCError struct {
	Procedure  string
	Diagnostic string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Procedure, e.Diagnostic)
}

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// InsertNewUser writes the whole profile through the insert_new_user
// procedure so a row never exists without its billing reference.
func (r *ProfileRepository) InsertNewUser(ctx context.Context, u *models.User) error {
	var raw sql.NullString
	err := r.db.WithContext(ctx).Raw(
		`SELECT insert_new_user(@user_id, @user_email, @user_username, @user_name, @user_cpf_cnpj, @user_asaas_id, @user_address, @user_phone, @user_description)::text`,
		map[string]interface{}{
			"user_id":          u.ID,
			"user_email":       u.Email,
			"user_username":    u.Username,
			"user_name":        u.Name,
			"user_cpf_cnpj":    u.CPFCNPJ,
			"user_asaas_id":    u.AsaasCustomerID,
			"user_address":     u.Address,
			"user_phone":       u.Phone,
			"user_description": u.Description,
		},
	).Row().Scan(&raw)

	var data []byte
	if raw.Valid {
		data = []byte(raw.String)
	}

	res := ClassifyRPC(data, err)
	if !res.Success {
		return &RPCError{Procedure: "insert_new_user", Diagnostic: res.Diagnostic}
	}
	return nil
}

// FindByID loads the single profile for an account. Zero rows is
// ErrNotFound and more than one is ErrDuplicateProfile.
func (r *ProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).Limit(2).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	switch len(users) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return &users[0], nil
	default:
		return nil, ErrDuplicateProfile
	}
}
