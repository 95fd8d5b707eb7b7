// internal/services/customer_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/utils"
)

type CustomerService struct {
	db *gorm.DB
}

// UpdateCustomerRequest is a partial update; nil fields are left unchanged.
type UpdateCustomerRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,notblank,max=255"`
	Username *string `json:"username,omitempty" validate:"omitempty,notblank,max=50"`
	Email    *string `json:"email,omitempty" validate:"omitempty,notblank,email"`
	Password *string `json:"password,omitempty" validate:"omitempty,notblank"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Avatar   *string `json:"avatar,omitempty" validate:"omitempty,max=512"`
}

func NewCustomerService(db *gorm.DB) *CustomerService {
	return &CustomerService{db: db}
}

func (s *CustomerService) GetCustomer(ctx context.Context, id uint) (*models.Customer, error) {
	var customer models.Customer
	err := s.db.WithContext(ctx).
		Preload("OAuth").
		Preload("BillingAddress").
		Preload("ShippingAddress").
		Take(&customer, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundError(utils.MsgNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &customer, nil
}

func (s *CustomerService) UpdateCustomer(ctx context.Context, id uint, req *UpdateCustomerRequest) (*models.Customer, error) {
	if err := utils.ValidateRequest(req); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	var username, email string
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Username != nil {
		username = strings.TrimSpace(*req.Username)
		updates["username"] = username
	}
	if req.Email != nil {
		email = strings.TrimSpace(*req.Email)
		updates["email"] = email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Avatar != nil {
		updates["avatar"] = *req.Avatar
	}
	if req.Password != nil {
		var hashed models.Customer
		if err := hashed.SetPassword(*req.Password); err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		updates["password"] = hashed.Password
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkIdentityAvailable(tx, id, username, email); err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}

		res := tx.Model(&models.Customer{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
				return utils.ConflictError(utils.MsgUsernameTaken)
			}
			return fmt.Errorf("failed to update customer: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return utils.NotFoundError(utils.MsgNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetCustomer(ctx, id)
}

// SetAvatar stores the URL of an uploaded avatar.
func (s *CustomerService) SetAvatar(ctx context.Context, id uint, url string) (*models.Customer, error) {
	res := s.db.WithContext(ctx).Model(&models.Customer{}).Where("id = ?", id).Update("avatar", url)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update avatar: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, utils.NotFoundError(utils.MsgNotFound)
	}
	return s.GetCustomer(ctx, id)
}

// DeleteCustomer removes the customer. Sessions, orders, reviews, cart and
// wishlist rows go with it through cascading foreign keys.
func (s *CustomerService) DeleteCustomer(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Customer{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete customer: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return utils.NotFoundError(utils.MsgNotFound)
	}

	logrus.WithField("customer_id", id).Info("Customer deleted")
	return nil
}
