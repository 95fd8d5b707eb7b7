// internal/handlers/address.go
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/storefront-backend/internal/middleware"
	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/services"
	"github.com/javajoker/storefront-backend/internal/utils"
)

type AddressService interface {
	SetCustomerAddresses(ctx context.Context, customerID uint, billing, shipping *models.AddressInput) (*services.CustomerAddresses, error)
	RemoveCustomerAddress(ctx context.Context, customerID, addressID uint) error
}

type AddressHandler struct {
	addressService AddressService
}

func NewAddressHandler(addressService AddressService) *AddressHandler {
	return &AddressHandler{addressService: addressService}
}

// POST /customers/:id/addresses
// The request has already passed ValidateAddresses.
func (h *AddressHandler) AddAddresses(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}

	addresses, ok := middleware.Addresses(c)
	if !ok {
		utils.Fail(c, utils.ValidationError(middleware.MsgAddressRequired))
		return
	}

	result, err := h.addressService.SetCustomerAddresses(c.Request.Context(), id, addresses.Billing, addresses.Shipping)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	utils.CreatedResponse(c, result)
}

// DELETE /customers/:id/addresses/:addressId
func (h *AddressHandler) RemoveAddress(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}
	addressID, ok := pathID(c, "addressId")
	if !ok {
		return
	}

	if err := h.addressService.RemoveCustomerAddress(c.Request.Context(), id, addressID); err != nil {
		utils.Fail(c, err)
		return
	}

	utils.NoContentResponse(c)
}
