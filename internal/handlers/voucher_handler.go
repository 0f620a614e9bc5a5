package handlers

import (
	"context"
	"net/http"

	"github.com/adbeam/recycling-rewards-backend/internal/middleware"
	"github.com/adbeam/recycling-rewards-backend/internal/models"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VoucherManager is the voucher service as seen by the HTTP layer
type VoucherManager interface {
	GenerateVoucher(ctx context.Context, userID, templateID primitive.ObjectID) (*models.VoucherView, error)
	RedeemVoucher(ctx context.Context, voucherID primitive.ObjectID, redeemedBy string) (*models.VoucherView, error)
	VerifyVoucherCode(ctx context.Context, code string) (*models.VerifyResult, error)
	ListTemplates(ctx context.Context) ([]*models.VoucherTemplate, error)
	ListCategories(ctx context.Context) ([]string, error)
	ListUserVouchers(ctx context.Context, userID primitive.ObjectID, status string) ([]*models.VoucherView, error)
	CreateTemplate(ctx context.Context, req *models.CreateTemplateRequest) (*models.VoucherTemplate, error)
}

// VoucherHandler handles voucher HTTP requests
type VoucherHandler struct {
	vouchers VoucherManager
}

// NewVoucherHandler creates a new VoucherHandler
func NewVoucherHandler(vouchers VoucherManager) *VoucherHandler {
	return &VoucherHandler{vouchers: vouchers}
}

// ListTemplates handles GET /vouchers/templates
func (h *VoucherHandler) ListTemplates(c *gin.Context) {
	templates, err := h.vouchers.ListTemplates(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, templates)
}

// ListCategories handles GET /vouchers/categories
func (h *VoucherHandler) ListCategories(c *gin.Context) {
	categories, err := h.vouchers.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, categories)
}

// ListMine handles GET /vouchers?status=
func (h *VoucherHandler) ListMine(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	vouchers, err := h.vouchers.ListUserVouchers(c.Request.Context(), userID, c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, vouchers)
}

// Generate handles POST /vouchers
func (h *VoucherHandler) Generate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.GenerateVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	templateID, err := primitive.ObjectIDFromHex(req.TemplateID)
	if err != nil {
		badRequest(c, "invalid templateId")
		return
	}

	v, err := h.vouchers.GenerateVoucher(c.Request.Context(), userID, templateID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, v)
}

// Verify handles GET /vouchers/verify/:code
func (h *VoucherHandler) Verify(c *gin.Context) {
	res, err := h.vouchers.VerifyVoucherCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, res)
}

// Redeem handles POST /vouchers/:id/redeem. The redeeming party is the
// authenticated vendor or admin.
func (h *VoucherHandler) Redeem(c *gin.Context) {
	voucherID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid voucher id")
		return
	}

	v, err := h.vouchers.RedeemVoucher(c.Request.Context(), voucherID, c.GetString(middleware.UserIDKey))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, v)
}

// CreateTemplate handles POST /admin/voucher-templates
func (h *VoucherHandler) CreateTemplate(c *gin.Context) {
	var req models.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	tpl, err := h.vouchers.CreateTemplate(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, tpl)
}
