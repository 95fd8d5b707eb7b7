// internal/services/address_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/utils"
)

const MsgAddressNotFound = "Address not found."

type AddressService struct {
	db *gorm.DB
}

// CustomerAddresses is the result of linking addresses to a customer.
type CustomerAddresses struct {
	Customer        *models.Customer `json:"customer"`
	BillingAddress  *models.Address  `json:"billingAddress,omitempty"`
	ShippingAddress *models.Address  `json:"shippingAddress,omitempty"`
}

func NewAddressService(db *gorm.DB) *AddressService {
	return &AddressService{db: db}
}

// Reconcile returns the address row identical to in, creating it when none
// exists. It must run inside the caller's transaction. A concurrent insert
// of the same address loses on the unique index and re-reads the winner.
func (s *AddressService) Reconcile(tx *gorm.DB, in models.AddressInput) (*models.Address, error) {
	var address models.Address
	err := tx.Where(in.Identity()).Take(&address).Error
	if err == nil {
		return &address, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up address: %w", err)
	}

	address = in.Model()
	result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&address)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to create address: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		logrus.WithField("address_id", address.ID).Debug("Address created")
		return &address, nil
	}

	address = models.Address{}
	if err := tx.Where(in.Identity()).Take(&address).Error; err != nil {
		return nil, fmt.Errorf("failed to re-read conflicting address: %w", err)
	}
	return &address, nil
}

// ReconcilePair reconciles billing then shipping. Nil inputs yield nil
// addresses.
func (s *AddressService) ReconcilePair(tx *gorm.DB, billing, shipping *models.AddressInput) (*models.Address, *models.Address, error) {
	var resolved [2]*models.Address
	for i, in := range []*models.AddressInput{billing, shipping} {
		if in == nil {
			continue
		}
		address, err := s.Reconcile(tx, *in)
		if err != nil {
			return nil, nil, err
		}
		resolved[i] = address
	}
	return resolved[0], resolved[1], nil
}

// SetCustomerAddresses links the submitted addresses to the customer as the
// default billing and shipping addresses.
func (s *AddressService) SetCustomerAddresses(ctx context.Context, customerID uint, billing, shipping *models.AddressInput) (*CustomerAddresses, error) {
	result := &CustomerAddresses{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		billingAddress, shippingAddress, err := s.ReconcilePair(tx, billing, shipping)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if billingAddress != nil {
			updates["billing_address_id"] = billingAddress.ID
		}
		if shippingAddress != nil {
			updates["shipping_address_id"] = shippingAddress.ID
		}

		res := tx.Model(&models.Customer{}).Where("id = ?", customerID).Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("failed to link addresses: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return utils.NotFoundError(utils.MsgNotFound)
		}

		var customer models.Customer
		if err := tx.Preload("OAuth").First(&customer, customerID).Error; err != nil {
			return fmt.Errorf("failed to reload customer: %w", err)
		}

		result.Customer = &customer
		result.BillingAddress = billingAddress
		result.ShippingAddress = shippingAddress
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithField("customer_id", customerID).Info("Customer addresses updated")
	return result, nil
}

// RemoveCustomerAddress unlinks addressID from whichever default slot of the
// customer holds it. The address row is kept for the orders that use it.
func (s *AddressService) RemoveCustomerAddress(ctx context.Context, customerID, addressID uint) error {
	res := s.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ? AND (billing_address_id = ? OR shipping_address_id = ?)", customerID, addressID, addressID).
		Updates(map[string]interface{}{
			"billing_address_id":  gorm.Expr("CASE WHEN billing_address_id = ? THEN NULL ELSE billing_address_id END", addressID),
			"shipping_address_id": gorm.Expr("CASE WHEN shipping_address_id = ? THEN NULL ELSE shipping_address_id END", addressID),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to unlink address: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return utils.NotFoundError(MsgAddressNotFound)
	}
	return nil
}
