package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSummarizeWallet(t *testing.T) {
	info := SummarizeWallet([]Transaction{
		{Type: TxTypeEarning, Status: TxStatusCompleted, Amount: dec("30")},
		{Type: TxTypeEarning, Status: TxStatusPending, Amount: dec("5")},
		{Type: TxTypePayout, Status: TxStatusCompleted, Amount: dec("10")},
		{Type: TxTypePayout, Status: TxStatusPending, Amount: dec("12")},
		{Type: TxTypePayout, Status: TxStatusFailed, Amount: dec("99")},
	})
	require.True(t, info.TotalEarned.Equal(dec("30")))
	require.True(t, info.TotalPayouts.Equal(dec("10")))
	require.True(t, info.Balance.Equal(dec("20")))
	require.True(t, info.PendingPayouts.Equal(dec("12")))
	require.True(t, info.Available.Equal(dec("8")))

	empty := SummarizeWallet(nil)
	require.True(t, empty.Balance.IsZero())
	require.True(t, empty.Available.IsZero())
}

func TestFilterTasks(t *testing.T) {
	tasks := []Task{
		{Title: "Photograph a Storefront", Category: CategoryPhotoVerification},
		{Title: "Review", Description: "Check the STOREFRONT text", Category: CategoryTextReview},
		{Title: "Type receipts", Category: CategoryDataEntry},
	}

	require.Len(t, FilterTasks(tasks, "", ""), 3)
	require.Len(t, FilterTasks(tasks, "  storefront ", CategoryAll), 2)
	require.Len(t, FilterTasks(tasks, "storefront", CategoryTextReview), 1)
	require.Empty(t, FilterTasks(tasks, "nothing", ""))
	require.NotNil(t, FilterTasks(nil, "", ""))
}

func TestSplitFee(t *testing.T) {
	c := SplitFee(dec("3"), dec("50"))
	require.True(t, c.WorkerReward.Equal(dec("1.5")))
	require.True(t, c.PlatformShare.Equal(dec("1.5")))

	c = SplitFee(dec("1"), dec("33.33"))
	require.True(t, c.WorkerReward.Equal(dec("0.66")))
	require.True(t, c.WorkerReward.Add(c.PlatformShare).Equal(dec("1")))
}

func TestSubmissionValidate(t *testing.T) {
	url, text, blank := "https://cdn/x.jpg", "done", ""

	require.NoError(t, (&Submission{SubmissionType: SubmissionTypeImage, SubmissionURL: &url}).Validate())
	require.NoError(t, (&Submission{SubmissionType: SubmissionTypeText, SubmissionText: &text}).Validate())
	require.Error(t, (&Submission{SubmissionType: SubmissionTypeImage, SubmissionURL: &url, SubmissionText: &text}).Validate())
	require.Error(t, (&Submission{SubmissionType: SubmissionTypeText, SubmissionText: &blank}).Validate())
	require.Error(t, (&Submission{SubmissionType: "video", SubmissionText: &text}).Validate())

	require.True(t, (&Submission{Status: SubmissionRejected}).IsTerminal())
	require.False(t, (&Submission{Status: SubmissionPending}).IsTerminal())
}
