package handler

import (
	"net/http"

	"taskmind/internal/middleware"
	"taskmind/internal/service"
	"taskmind/pkg/pagination"
	"taskmind/pkg/response"

	"github.com/gin-gonic/gin"
)

type WalletHandler struct {
	walletService service.WalletService
}

func NewWalletHandler(walletService service.WalletService) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

func (h *WalletHandler) RegisterRoutes(router *gin.RouterGroup, auth *middleware.Authenticator) {
	wallet := router.Group("/api/wallet")
	wallet.Use(auth.RequireAuth())
	{
		wallet.GET("", h.GetWallet)
		wallet.GET("/transactions", h.ListTransactions)
	}
}

// @Summary      Wallet summary
// @Description  Balance, totals and the full transaction history of the caller
// @Tags         Wallet
// @Produce      json
// @Success      200  {object}  response.Response
// @Security     BearerAuth
// @Router       /api/wallet [get]
func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	info, txs, err := h.walletService.GetWallet(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to retrieve wallet")
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"wallet":       info,
		"transactions": txs,
	}))
}

// @Summary      Paginated transaction history
// @Tags         Wallet
// @Produce      json
// @Param        page   query  int  false  "Page number (default 1)"
// @Param        limit  query  int  false  "Items per page (default 20)"
// @Success      200  {object}  response.Response
// @Security     BearerAuth
// @Router       /api/wallet/transactions [get]
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	p := pagination.Parse(c)
	userID, _ := middleware.UserID(c)

	txs, total, err := h.walletService.ListTransactions(c.Request.Context(), userID, p.Page, p.Limit)
	if err != nil {
		respondError(c, err, "Failed to retrieve transactions")
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.NewPage(txs, total, p)))
}
