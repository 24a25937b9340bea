package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/layer-3/karat/core"
	"github.com/layer-3/karat/service"
)

// MintHandlers contains HTTP handlers for mint and reward endpoints.
type MintHandlers struct {
	mintService   *service.MintService
	rewardService *service.RewardService
}

// NewMintHandlers creates new mint handlers.
func NewMintHandlers(mintService *service.MintService, rewardService *service.RewardService) *MintHandlers {
	return &MintHandlers{
		mintService:   mintService,
		rewardService: rewardService,
	}
}

type utxoRefRequest struct {
	TxHash string `json:"tx_hash" binding:"required"`
	Index  uint32 `json:"index"`
}

type issuanceResponse struct {
	PolicyID  string    `json:"policy_id,omitempty"`
	AssetName string    `json:"asset_name,omitempty"`
	TxHash    string    `json:"tx_hash"`
	Creator   string    `json:"creator"`
	Recipient string    `json:"recipient"`
	CreatedAt time.Time `json:"created_at"`
}

// Mint handles an asset issuance request for the authenticated wallet.
func (h *MintHandlers) Mint(c *gin.Context) {
	var req struct {
		AssetName string         `json:"asset_name" binding:"required"`
		Metadata  struct {
			Name        string `json:"name" binding:"required"`
			Image       string `json:"image"`
			Description string `json:"description"`
		} `json:"metadata" binding:"required"`
		UTxO utxoRefRequest `json:"utxo" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	requester := c.GetString(userAddressKey)

	result, err := h.mintService.Mint(c.Request.Context(), core.MintRequest{
		AssetName: req.AssetName,
		Metadata: core.AssetMetadata{
			Name:        req.Metadata.Name,
			Image:       req.Metadata.Image,
			Description: req.Metadata.Description,
		},
		UTxO: core.UTxORef{
			TxHash: req.UTxO.TxHash,
			Index:  req.UTxO.Index,
		},
		Requester: requester,
	})
	if err != nil {
		status, msg := mintErrorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tx_hash":    result.TxHash,
		"policy_id":  result.PolicyID,
		"asset_unit": result.AssetUnit,
	})
}

// ClaimReward pays the requested amount from the reward pool to the
// authenticated wallet.
func (h *MintHandlers) ClaimReward(c *gin.Context) {
	var req struct {
		Amount decimal.Decimal `json:"amount" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	recipient := c.GetString(userAddressKey)

	txHash, err := h.rewardService.PayReward(c.Request.Context(), recipient, req.Amount)
	if err != nil {
		status, msg := mintErrorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tx_hash": txHash})
}

// ListIssuances returns the authenticated wallet's recorded issuances.
func (h *MintHandlers) ListIssuances(c *gin.Context) {
	creator := c.GetString(userAddressKey)

	recs, err := h.mintService.History(c.Request.Context(), creator)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list issuances"})
		return
	}

	out := make([]issuanceResponse, len(recs))
	for i, rec := range recs {
		out[i] = issuanceResponse{
			PolicyID:  rec.PolicyID,
			AssetName: rec.AssetName,
			TxHash:    rec.TxHash,
			Creator:   rec.Creator,
			Recipient: rec.Recipient,
			CreatedAt: rec.CreatedAt,
		}
	}

	c.JSON(http.StatusOK, gin.H{"issuances": out})
}

// mintErrorStatus maps pipeline errors onto HTTP statuses following the
// retry semantics each error carries.
func mintErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrUTxONotFound):
		return http.StatusNotFound, "Referenced output not found; refresh and retry"
	case errors.Is(err, core.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity, "Insufficient funds"
	case errors.Is(err, core.ErrDatumInvalid):
		return http.StatusUnprocessableEntity, "Invalid metadata"
	case errors.Is(err, core.ErrScriptInvalid):
		return http.StatusUnprocessableEntity, "Invalid script invocation"
	case errors.Is(err, core.ErrSubmissionRejected):
		return http.StatusConflict, "Transaction rejected by chain; re-select input and retry"
	case errors.Is(err, core.ErrIssuanceConflict):
		return http.StatusConflict, "Asset already issued"
	case errors.Is(err, core.ErrProviderTimeout):
		return http.StatusGatewayTimeout, "Chain provider timed out; safe to retry"
	default:
		return http.StatusInternalServerError, "Mint failed"
	}
}
