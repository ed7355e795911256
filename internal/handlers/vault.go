package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/packlabs/packvault-backend/internal/services"
	"github.com/packlabs/packvault-backend/internal/vaulterr"
)

type VaultHandler struct {
	vaultService services.VaultService
}

func NewVaultHandler(vaultService services.VaultService) *VaultHandler {
	return &VaultHandler{vaultService: vaultService}
}

func (vh *VaultHandler) Deposit(c *gin.Context) {
	var req struct {
		Amount      decimal.Decimal `json:"amount"`
		Beneficiary string          `json:"beneficiary"`
		ReferenceID string          `json:"reference_id"`
		SlippageBps int64           `json:"slippage_bps"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, vaulterr.New(vaulterr.KindValidation, "invalid_body", err))
		return
	}
	result, err := vh.vaultService.Deposit(c.Request.Context(), services.DepositInput{
		PackID:      c.Param("id"),
		Amount:      req.Amount,
		Beneficiary: req.Beneficiary,
		ReferenceID: req.ReferenceID,
		SlippageBps: req.SlippageBps,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"record":        result.Record,
		"shares_minted": result.SharesMinted,
		"fills":         result.Fills,
	})
}

func (vh *VaultHandler) Withdraw(c *gin.Context) {
	var req struct {
		SharesToBurn        decimal.Decimal `json:"shares_to_burn"`
		Depositor           string          `json:"depositor"`
		Recipient           string          `json:"recipient"`
		ConvertToSettlement bool            `json:"convert_to_settlement"`
		SlippageBps         int64           `json:"slippage_bps"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, vaulterr.New(vaulterr.KindValidation, "invalid_body", err))
		return
	}
	result, err := vh.vaultService.Withdraw(c.Request.Context(), services.WithdrawInput{
		PackID:              c.Param("id"),
		SharesToBurn:        req.SharesToBurn,
		Depositor:           req.Depositor,
		Recipient:           req.Recipient,
		ConvertToSettlement: req.ConvertToSettlement,
		SlippageBps:         req.SlippageBps,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"record":           result.Record,
		"amounts_returned": result.AmountsReturned,
	})
}
