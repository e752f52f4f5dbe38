package rest

import (
	"context"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/holiman/uint256"

	"github.com/jessedh/t3-ledger/internal/api/rest/dto"
	"github.com/jessedh/t3-ledger/internal/domain"
	"github.com/jessedh/t3-ledger/internal/liability"
	"github.com/jessedh/t3-ledger/internal/transfer"
)

// walletHeader carries the caller's wallet identity. Reversals require it to
// match the holder in the request body.
const walletHeader = "X-Wallet-Address"

// Handler defines the interface for REST API handlers
// This interface allows for easy mocking and testing
//
//go:generate mockgen -source=handler.go -destination=../../mocks/api_handler.go -package=mocks -mock_names=Handler=MockAPIHandler
type Handler interface {
	// Transfer moves value through the fee pipeline
	// POST /api/v1/transfers
	Transfer(c *gin.Context)

	// Reverse returns funds to the originator of the caller's live window
	// POST /api/v1/reversals
	Reverse(c *gin.Context)

	// FinalizeExpiry processes an elapsed reversal window
	// POST /api/v1/expiries/:wallet
	FinalizeExpiry(c *gin.Context)

	// GetCredits returns a wallet's incentive-credit balance
	// GET /api/v1/wallets/:wallet/credits
	GetCredits(c *gin.Context)

	// GetRiskFactor returns a wallet's current risk factor
	// GET /api/v1/wallets/:wallet/risk
	GetRiskFactor(c *gin.Context)

	// GetBalance returns a wallet's spendable balance
	// GET /api/v1/wallets/:wallet/balance
	GetBalance(c *gin.Context)

	// GetTieredFee returns the base tiered fee for an amount
	// GET /api/v1/fees?amount=<amount>
	GetTieredFee(c *gin.Context)

	// FlagAbnormal increments a wallet's abnormal-transaction counter (admin)
	// POST /api/v1/admin/wallets/:wallet/flag
	FlagAbnormal(c *gin.Context)

	// RecordLiability records an interbank liability (admin)
	// POST /api/v1/admin/liabilities
	RecordLiability(c *gin.Context)

	// ClearLiability clears part of an interbank liability (admin)
	// POST /api/v1/admin/liabilities/clear
	ClearLiability(c *gin.Context)

	// GetLiability returns the outstanding debtor→creditor liability (admin)
	// GET /api/v1/admin/liabilities/:debtor/:creditor
	GetLiability(c *gin.Context)

	// Pause stops the ledger from accepting transfers (admin)
	// POST /api/v1/admin/pause
	Pause(c *gin.Context)

	// Unpause re-enables transfers (admin)
	// POST /api/v1/admin/unpause
	Unpause(c *gin.Context)

	// Mint seeds a wallet's balance with new supply (admin)
	// POST /api/v1/admin/mint
	Mint(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	service     *transfer.Service
	liabilities *liability.Ledger
}

// NewHandler creates a new REST API handler
func NewHandler(service *transfer.Service, liabilities *liability.Ledger) Handler {
	return &handler{
		service:     service,
		liabilities: liabilities,
	}
}

// Transfer moves value from sender to recipient through the fee pipeline
func (h *handler) Transfer(c *gin.Context) {
	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	from, ok := parseAddress(c, "from", req.From)
	if !ok {
		return
	}
	to, ok := parseAddress(c, "to", req.To)
	if !ok {
		return
	}
	amount, ok := parseAmount(c, req.Amount)
	if !ok {
		return
	}

	receipt, err := h.service.Transfer(c.Request.Context(), from, to, amount)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TransferResponse{
		From:           receipt.From.Hex(),
		To:             receipt.To.Hex(),
		GrossAmount:    domain.FormatAmount(receipt.GrossAmount),
		NetAmount:      domain.FormatAmount(receipt.NetAmount),
		Fee:            domain.FormatAmount(receipt.Fee),
		WindowDuration: receipt.WindowDuration.String(),
		WindowEnd:      receipt.WindowEnd,
	})
}

// Reverse returns funds to the originator. Only the wallet holding the funds
// may call this, as itself: the X-Wallet-Address header must match `from`.
func (h *handler) Reverse(c *gin.Context) {
	var req dto.ReversalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	from, ok := parseAddress(c, "from", req.From)
	if !ok {
		return
	}
	to, ok := parseAddress(c, "to", req.To)
	if !ok {
		return
	}
	amount, ok := parseAmount(c, req.Amount)
	if !ok {
		return
	}

	caller := c.GetHeader(walletHeader)
	if !common.IsHexAddress(caller) || common.HexToAddress(caller) != from {
		respondDomainError(c, domain.ErrNotHolder)
		return
	}

	if err := h.service.Reverse(c.Request.Context(), from, to, amount); err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"from":   from.Hex(),
		"to":     to.Hex(),
		"amount": domain.FormatAmount(amount),
	})
}

// FinalizeExpiry processes an elapsed reversal window for a wallet
func (h *handler) FinalizeExpiry(c *gin.Context) {
	wallet, ok := parseAddress(c, "wallet", c.Param("wallet"))
	if !ok {
		return
	}

	if err := h.service.FinalizeExpiry(c.Request.Context(), wallet); err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"wallet": wallet.Hex()})
}

// GetCredits returns a wallet's incentive-credit balance
func (h *handler) GetCredits(c *gin.Context) {
	wallet, ok := parseAddress(c, "wallet", c.Param("wallet"))
	if !ok {
		return
	}

	credits, err := h.service.AvailableCredits(c.Request.Context(), wallet)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.CreditsResponse{
		Wallet:  wallet.Hex(),
		Credits: domain.FormatAmount(credits),
	})
}

// GetRiskFactor returns a wallet's current risk factor in basis points
func (h *handler) GetRiskFactor(c *gin.Context) {
	wallet, ok := parseAddress(c, "wallet", c.Param("wallet"))
	if !ok {
		return
	}

	factor, err := h.service.RiskFactor(c.Request.Context(), wallet)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.RiskResponse{
		Wallet:     wallet.Hex(),
		RiskFactor: factor,
	})
}

// GetBalance returns a wallet's spendable balance
func (h *handler) GetBalance(c *gin.Context) {
	wallet, ok := parseAddress(c, "wallet", c.Param("wallet"))
	if !ok {
		return
	}

	balance, err := h.service.BalanceOf(c.Request.Context(), wallet)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.BalanceResponse{
		Wallet:  wallet.Hex(),
		Balance: domain.FormatAmount(balance),
	})
}

// GetTieredFee returns the base tiered fee for an amount
func (h *handler) GetTieredFee(c *gin.Context) {
	amount, ok := parseAmount(c, c.Query("amount"))
	if !ok {
		return
	}

	fee, err := h.service.TieredFee(amount)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FeeResponse{
		Amount: domain.FormatAmount(amount),
		Fee:    domain.FormatAmount(fee),
	})
}

// FlagAbnormal increments a wallet's abnormal-transaction counter
func (h *handler) FlagAbnormal(c *gin.Context) {
	wallet, ok := parseAddress(c, "wallet", c.Param("wallet"))
	if !ok {
		return
	}

	factor, err := h.service.FlagAbnormal(c.Request.Context(), wallet)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.RiskResponse{
		Wallet:     wallet.Hex(),
		RiskFactor: factor,
	})
}

// RecordLiability records an interbank liability
func (h *handler) RecordLiability(c *gin.Context) {
	h.mutateLiability(c, h.liabilities.Record)
}

// ClearLiability clears part of an interbank liability
func (h *handler) ClearLiability(c *gin.Context) {
	h.mutateLiability(c, h.liabilities.Clear)
}

func (h *handler) mutateLiability(c *gin.Context, op func(ctx context.Context, debtor, creditor common.Address, amount *uint256.Int) (*uint256.Int, error)) {
	var req dto.LiabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	debtor, ok := parseAddress(c, "debtor", req.Debtor)
	if !ok {
		return
	}
	creditor, ok := parseAddress(c, "creditor", req.Creditor)
	if !ok {
		return
	}
	amount, ok := parseAmount(c, req.Amount)
	if !ok {
		return
	}

	outstanding, err := op(c.Request.Context(), debtor, creditor, amount)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.LiabilityResponse{
		Debtor:      debtor.Hex(),
		Creditor:    creditor.Hex(),
		Outstanding: domain.FormatAmount(outstanding),
	})
}

// GetLiability returns the outstanding debtor→creditor liability
func (h *handler) GetLiability(c *gin.Context) {
	debtor, ok := parseAddress(c, "debtor", c.Param("debtor"))
	if !ok {
		return
	}
	creditor, ok := parseAddress(c, "creditor", c.Param("creditor"))
	if !ok {
		return
	}

	outstanding, err := h.liabilities.Outstanding(c.Request.Context(), debtor, creditor)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.LiabilityResponse{
		Debtor:      debtor.Hex(),
		Creditor:    creditor.Hex(),
		Outstanding: domain.FormatAmount(outstanding),
	})
}

// Pause stops the ledger from accepting transfers
func (h *handler) Pause(c *gin.Context) {
	if err := h.service.Pause(c.Request.Context()); err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"paused": true})
}

// Unpause re-enables transfers
func (h *handler) Unpause(c *gin.Context) {
	if err := h.service.Unpause(c.Request.Context()); err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"paused": false})
}

// Mint seeds a wallet's balance with newly issued supply
func (h *handler) Mint(c *gin.Context) {
	var req dto.MintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	to, ok := parseAddress(c, "to", req.To)
	if !ok {
		return
	}
	amount, ok := parseAmount(c, req.Amount)
	if !ok {
		return
	}

	if err := h.service.Mint(c.Request.Context(), to, amount); err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.BalanceResponse{
		Wallet:  to.Hex(),
		Balance: domain.FormatAmount(amount),
	})
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parseAddress validates and parses a hex wallet address, responding with a
// bad request on failure.
func parseAddress(c *gin.Context, field, value string) (common.Address, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		respondBadRequest(c, field+" is required")
		return common.Address{}, false
	}
	if !common.IsHexAddress(value) {
		respondBadRequest(c, "Invalid address for "+field, value)
		return common.Address{}, false
	}
	return common.HexToAddress(value), true
}

// parseAmount parses a base-10 amount in smallest units, responding with a
// bad request on failure.
func parseAmount(c *gin.Context, value string) (*uint256.Int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		respondBadRequest(c, "amount is required")
		return nil, false
	}
	amount, err := domain.ParseAmount(value)
	if err != nil {
		respondBadRequest(c, "Invalid amount", value)
		return nil, false
	}
	return amount, true
}
