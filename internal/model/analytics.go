package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RevenueAnalytics aggregates platform-wide money and review totals.
type RevenueAnalytics struct {
	TotalRevenue        decimal.Decimal `json:"total_revenue"`
	TotalPayouts        decimal.Decimal `json:"total_payouts"`
	AdminProfit         decimal.Decimal `json:"admin_profit"`
	PendingSubmissions  int64           `json:"pending_submissions"`
	ApprovedSubmissions int64           `json:"approved_submissions"`
	RejectedSubmissions int64           `json:"rejected_submissions"`
	ActiveTasks         int64           `json:"active_tasks"`
	TotalUsers          int64           `json:"total_users"`
	TimeRangeStartDate  *time.Time      `json:"time_range_start_date,omitempty"`
	TimeRangeEndDate    *time.Time      `json:"time_range_end_date,omitempty"`
}

// Commission is the split of a client fee between worker and platform.
type Commission struct {
	ClientFee            decimal.Decimal `json:"client_fee"`
	WorkerReward         decimal.Decimal `json:"worker_reward"`
	PlatformShare        decimal.Decimal `json:"platform_share"`
	CommissionPercentage decimal.Decimal `json:"commission_percentage"`
}

// SplitFee applies a commission percentage to a client fee. The worker
// reward is rounded down to cents so the platform never pays out more
// than the fee.
func SplitFee(fee, percentage decimal.Decimal) Commission {
	hundred := decimal.NewFromInt(100)
	platform := fee.Mul(percentage).Div(hundred)
	reward := fee.Sub(platform).RoundFloor(2)
	return Commission{
		ClientFee:            fee,
		WorkerReward:         reward,
		PlatformShare:        fee.Sub(reward),
		CommissionPercentage: percentage,
	}
}
