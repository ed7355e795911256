package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/packlabs/packvault-backend/internal/services"
	"github.com/packlabs/packvault-backend/internal/vaulterr"
)

type AdminHandler struct {
	adminService services.AdminService
}

func NewAdminHandler(adminService services.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

func (ah *AdminHandler) Rebalance(c *gin.Context) {
	var req struct {
		Allocations []services.AllocationSpec `json:"allocations"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, vaulterr.New(vaulterr.KindValidation, "invalid_body", err))
		return
	}
	pack, err := ah.adminService.Rebalance(c.Request.Context(), c.Param("id"), req.Allocations)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, pack)
}

func (ah *AdminHandler) Pause(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, vaulterr.New(vaulterr.KindValidation, "invalid_body", err))
		return
	}
	if err := ah.adminService.Pause(c.Request.Context(), req.Reason); err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"paused": true})
}

func (ah *AdminHandler) Unpause(c *gin.Context) {
	if err := ah.adminService.Unpause(c.Request.Context()); err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"paused": false})
}

func (ah *AdminHandler) EmergencyWithdraw(c *gin.Context) {
	var req struct {
		Asset     string          `json:"asset"`
		Amount    decimal.Decimal `json:"amount"`
		Recipient string          `json:"recipient"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, vaulterr.New(vaulterr.KindValidation, "invalid_body", err))
		return
	}
	if err := ah.adminService.EmergencyWithdrawToken(c.Request.Context(), req.Asset, req.Amount, req.Recipient); err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"withdrawn": req.Amount, "asset": req.Asset, "recipient": req.Recipient})
}

func (ah *AdminHandler) RotateOracle(c *gin.Context) {
	var req struct {
		Endpoint string `json:"endpoint"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, vaulterr.New(vaulterr.KindValidation, "invalid_body", err))
		return
	}
	if err := ah.adminService.RotateOracle(c.Request.Context(), req.Endpoint); err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"rotated": "oracle"})
}

func (ah *AdminHandler) RotateRouter(c *gin.Context) {
	var req struct {
		Endpoint string `json:"endpoint"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, vaulterr.New(vaulterr.KindValidation, "invalid_body", err))
		return
	}
	if err := ah.adminService.RotateRouter(c.Request.Context(), req.Endpoint); err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"rotated": "router"})
}
