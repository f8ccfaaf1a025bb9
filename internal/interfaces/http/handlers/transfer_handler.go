package handlers

import (
	"net/http"

	"eqic-a2a.backend/internal/domain/entities"
	"eqic-a2a.backend/internal/interfaces/http/middleware"
	"eqic-a2a.backend/internal/interfaces/http/response"
	"eqic-a2a.backend/internal/usecases"
	"eqic-a2a.backend/pkg/utils"
	"github.com/gin-gonic/gin"
)

// TransferHandler handles transfer lifecycle endpoints
type TransferHandler struct {
	engine     *usecases.TransferEngine
	appUsecase *usecases.TransferAppUsecase
}

// NewTransferHandler creates a new transfer handler
func NewTransferHandler(engine *usecases.TransferEngine, appUsecase *usecases.TransferAppUsecase) *TransferHandler {
	return &TransferHandler{engine: engine, appUsecase: appUsecase}
}

// CreateTransfer queues a new transfer request for the authenticated wallet
// POST /api/v1/transfers
func (h *TransferHandler) CreateTransfer(c *gin.Context) {
	wallet, ok := middleware.GetWalletAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Wallet principal not found"})
		return
	}

	var input entities.CreateTransferInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input.WalletAddress = wallet

	transfer, err := h.engine.CreateTransfer(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.CountTransferCreated()
	c.JSON(http.StatusCreated, gin.H{"transfer": transfer})
}

// QuoteTransfer previews route cost and engine fee without queuing anything
// POST /api/v1/transfers/quote
func (h *TransferHandler) QuoteTransfer(c *gin.Context) {
	var input struct {
		SourcePlatform string           `json:"sourcePlatform" binding:"required"`
		TargetPlatform string           `json:"targetPlatform" binding:"required"`
		Assets         []entities.Asset `json:"assets" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quote, err := h.appUsecase.QuoteTransfer(input.SourcePlatform, input.TargetPlatform, input.Assets)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quote": quote})
}

// ProcessTransfer advances a queued transfer to a terminal state
// POST /api/v1/transfers/:id/process
func (h *TransferHandler) ProcessTransfer(c *gin.Context) {
	id := c.Param("id")

	transfer, err := h.engine.ProcessTransfer(c.Request.Context(), id)
	if transfer != nil {
		middleware.CountTransferProcessed(string(transfer.State))
	}
	if err != nil {
		// A settlement failure still carries the failed request so the
		// caller can inspect the reason.
		if transfer != nil {
			c.JSON(http.StatusBadGateway, gin.H{
				"transfer": transfer,
				"error":    err.Error(),
			})
			return
		}
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transfer": transfer})
}

// GetHistory returns terminal transfers for the authenticated wallet
// GET /api/v1/transfers/history
func (h *TransferHandler) GetHistory(c *gin.Context) {
	wallet, ok := middleware.GetWalletAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Wallet principal not found"})
		return
	}

	transfers := h.engine.GetTransferHistory(wallet)
	if transfers == nil {
		transfers = []*entities.TransferRequest{}
	}
	c.JSON(http.StatusOK, gin.H{"transfers": transfers})
}

// GetPending returns queued transfers for the authenticated wallet
// GET /api/v1/transfers/pending
func (h *TransferHandler) GetPending(c *gin.Context) {
	wallet, ok := middleware.GetWalletAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Wallet principal not found"})
		return
	}

	transfers := h.engine.GetPendingTransfers(wallet)
	if transfers == nil {
		transfers = []*entities.TransferRequest{}
	}
	c.JSON(http.StatusOK, gin.H{"transfers": transfers})
}

// GetArchivedHistory returns the durable, paginated archive for the wallet
// GET /api/v1/transfers/archive?page=1&limit=20
func (h *TransferHandler) GetArchivedHistory(c *gin.Context) {
	wallet, ok := middleware.GetWalletAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Wallet principal not found"})
		return
	}

	var params utils.PaginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pagination := utils.GetPaginationParams(params.Page, params.Limit)

	transfers, totalCount, err := h.appUsecase.GetArchivedHistory(c.Request.Context(), wallet, pagination)
	if err != nil {
		response.Error(c, err)
		return
	}
	if transfers == nil {
		transfers = []*entities.TransferRequest{}
	}

	c.JSON(http.StatusOK, gin.H{
		"transfers":  transfers,
		"pagination": utils.CalculateMeta(totalCount, pagination.Page, pagination.Limit),
	})
}
