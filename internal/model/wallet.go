package model

import "github.com/shopspring/decimal"

// WalletInfo is derived from a user's transactions on every read.
type WalletInfo struct {
	Balance          decimal.Decimal `json:"balance"` // completed earnings - completed payouts
	TotalEarned      decimal.Decimal `json:"total_earned"`
	TotalPayouts     decimal.Decimal `json:"total_payouts"`
	PendingPayouts   decimal.Decimal `json:"pending_payouts"`
	Available        decimal.Decimal `json:"available"` // balance minus payouts still in flight
	PendingApprovals int64           `json:"pending_approvals"`
}

// SummarizeWallet folds a transaction history into a WalletInfo.
// Failed rows and pending earnings do not count.
func SummarizeWallet(txs []Transaction) WalletInfo {
	info := WalletInfo{
		TotalEarned:    decimal.Zero,
		TotalPayouts:   decimal.Zero,
		PendingPayouts: decimal.Zero,
	}
	for _, t := range txs {
		switch {
		case t.Type == TxTypeEarning && t.Status == TxStatusCompleted:
			info.TotalEarned = info.TotalEarned.Add(t.Amount)
		case t.Type == TxTypePayout && t.Status == TxStatusCompleted:
			info.TotalPayouts = info.TotalPayouts.Add(t.Amount)
		case t.Type == TxTypePayout && t.Status == TxStatusPending:
			info.PendingPayouts = info.PendingPayouts.Add(t.Amount)
		}
	}
	info.Balance = info.TotalEarned.Sub(info.TotalPayouts)
	info.Available = info.Balance.Sub(info.PendingPayouts)
	return info
}
