// internal/handlers/customer.go
package handlers

import (
	"context"
	"mime/multipart"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/services"
	"github.com/javajoker/storefront-backend/internal/utils"
)

const MsgAvatarMissing = "Request must include an `avatar` file."

type CustomerService interface {
	GetCustomer(ctx context.Context, id uint) (*models.Customer, error)
	UpdateCustomer(ctx context.Context, id uint, req *services.UpdateCustomerRequest) (*models.Customer, error)
	SetAvatar(ctx context.Context, id uint, url string) (*models.Customer, error)
	DeleteCustomer(ctx context.Context, id uint) error
}

type FileStorage interface {
	UploadFile(ctx context.Context, file multipart.File, header *multipart.FileHeader, options services.UploadOptions) (*services.UploadResult, error)
	DeleteFile(ctx context.Context, key string) error
}

type CustomerHandler struct {
	customerService CustomerService
	storage         FileStorage
}

func NewCustomerHandler(customerService CustomerService, storage FileStorage) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
		storage:         storage,
	}
}

// GET /customers/:id
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}

	customer, err := h.customerService.GetCustomer(c.Request.Context(), id)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"customer": customer})
}

// PUT /customers/:id
func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}

	var req services.UpdateCustomerRequest
	if !bindJSON(c, &req) {
		return
	}

	customer, err := h.customerService.UpdateCustomer(c.Request.Context(), id, &req)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"customer": customer})
}

// DELETE /customers/:id
func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}

	if err := h.customerService.DeleteCustomer(c.Request.Context(), id); err != nil {
		utils.Fail(c, err)
		return
	}

	utils.NoContentResponse(c)
}

// POST /customers/:id/avatar
func (h *CustomerHandler) UploadAvatar(c *gin.Context) {
	id, ok := customerID(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("avatar")
	if err != nil {
		utils.Fail(c, utils.ValidationError(MsgAvatarMissing))
		return
	}
	defer file.Close()

	ctx := c.Request.Context()
	result, err := h.storage.UploadFile(ctx, file, header, services.AvatarUploadOptions)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	customer, err := h.customerService.SetAvatar(ctx, id, result.URL)
	if err != nil {
		if cleanupErr := h.storage.DeleteFile(ctx, result.Key); cleanupErr != nil {
			logrus.WithError(cleanupErr).WithField("key", result.Key).Warn("Failed to remove orphaned avatar")
		}
		utils.Fail(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"customer": customer})
}
