package dto

import "time"

// TransferRequest moves value from one wallet to another through the fee
// pipeline. Amounts are base-10 strings in the ledger's smallest unit.
type TransferRequest struct {
	From   string `json:"from" binding:"required"`
	To     string `json:"to" binding:"required"`
	Amount string `json:"amount" binding:"required"`
}

// TransferResponse summarizes a committed transfer.
type TransferResponse struct {
	From           string    `json:"from"`
	To             string    `json:"to"`
	GrossAmount    string    `json:"gross_amount"`
	NetAmount      string    `json:"net_amount"`
	Fee            string    `json:"fee"`
	WindowDuration string    `json:"window_duration"`
	WindowEnd      time.Time `json:"window_end"`
}

// ReversalRequest returns funds to the originator of the holder's live
// reversal window.
type ReversalRequest struct {
	From   string `json:"from" binding:"required"`
	To     string `json:"to" binding:"required"`
	Amount string `json:"amount" binding:"required"`
}

// LiabilityRequest records or clears an interbank liability.
type LiabilityRequest struct {
	Debtor   string `json:"debtor" binding:"required"`
	Creditor string `json:"creditor" binding:"required"`
	Amount   string `json:"amount" binding:"required"`
}

// LiabilityResponse reports the outstanding balance after a mutation or on
// a read.
type LiabilityResponse struct {
	Debtor      string `json:"debtor"`
	Creditor    string `json:"creditor"`
	Outstanding string `json:"outstanding"`
}

// MintRequest seeds a wallet's balance with newly issued supply.
type MintRequest struct {
	To     string `json:"to" binding:"required"`
	Amount string `json:"amount" binding:"required"`
}

// BalanceResponse reports a wallet's spendable balance.
type BalanceResponse struct {
	Wallet  string `json:"wallet"`
	Balance string `json:"balance"`
}

// CreditsResponse reports a wallet's incentive-credit balance.
type CreditsResponse struct {
	Wallet  string `json:"wallet"`
	Credits string `json:"credits"`
}

// RiskResponse reports a wallet's current risk factor in basis points.
type RiskResponse struct {
	Wallet     string `json:"wallet"`
	RiskFactor uint64 `json:"risk_factor"`
}

// FeeResponse reports the base tiered fee for an amount, before risk
// scaling, credit offset and clamping.
type FeeResponse struct {
	Amount string `json:"amount"`
	Fee    string `json:"fee"`
}
