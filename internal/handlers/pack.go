package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/packlabs/packvault-backend/internal/services"
	"github.com/packlabs/packvault-backend/internal/vaulterr"
)

type PackHandler struct {
	packService services.PackService
}

func NewPackHandler(packService services.PackService) *PackHandler {
	return &PackHandler{packService: packService}
}

func (ph *PackHandler) Create(c *gin.Context) {
	var req struct {
		ID          string                    `json:"id"`
		Name        string                    `json:"name"`
		Allocations []services.AllocationSpec `json:"allocations"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, vaulterr.New(vaulterr.KindValidation, "invalid_body", err))
		return
	}
	pack, err := ph.packService.CreatePack(c.Request.Context(), req.ID, req.Name, req.Allocations)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, pack)
}

func (ph *PackHandler) List(c *gin.Context) {
	ids, err := ph.packService.ListPackIDs(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"pack_ids": ids})
}

func (ph *PackHandler) Get(c *gin.Context) {
	pack, err := ph.packService.GetPack(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, pack)
}

func (ph *PackHandler) Value(c *gin.Context) {
	value, err := ph.packService.GetPackValue(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"pack_id": c.Param("id"), "value": value})
}

func (ph *PackHandler) UserValue(c *gin.Context) {
	value, err := ph.packService.GetUserValue(c.Request.Context(), c.Param("id"), c.Param("depositor"))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"pack_id":   c.Param("id"),
		"depositor": c.Param("depositor"),
		"value":     value,
	})
}

func (ph *PackHandler) Deposits(c *gin.Context) {
	records, err := ph.packService.ListDeposits(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"pack_id": c.Param("id"), "deposits": records})
}

func (ph *PackHandler) Composition(c *gin.Context) {
	allocations, err := ph.packService.GetComposition(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"pack_id": c.Param("id"), "allocations": allocations})
}
