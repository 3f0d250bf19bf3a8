package repository

import (
	"context"
	"errors"
	"testing"

	"taskmind/internal/model"
	"taskmind/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRunInTxNestedCallsShareOneTransaction(t *testing.T) {
	db := testutil.NewTestDB(t)
	audits := NewAuditRepository(db)
	tm := NewTransactionManager(db)
	ctx := context.Background()
	require.False(t, InTx(ctx))

	boom := errors.New("boom")
	err := tm.RunInTx(ctx, func(txCtx context.Context) error {
		require.True(t, InTx(txCtx))
		require.NoError(t, audits.Log(txCtx, &model.AuditLog{Action: model.ActionRequestPayout}))
		require.NoError(t, tm.RunInTx(txCtx, func(inner context.Context) error {
			return audits.Log(inner, &model.AuditLog{Action: model.ActionSettlePayout})
		}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, total, err := audits.List(ctx, AuditFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Zero(t, total)
}

func TestAuditListFilters(t *testing.T) {
	db := testutil.NewTestDB(t)
	audits := NewAuditRepository(db)
	ctx := context.Background()
	admin := uuid.New()

	require.NoError(t, audits.Log(ctx, &model.AuditLog{UserID: &admin, Action: model.ActionApproveSubmission, EntityID: "s1"}))
	require.NoError(t, audits.Log(ctx, &model.AuditLog{UserID: &admin, Action: model.ActionApproveSubmission, EntityID: "s2"}))
	require.NoError(t, audits.Log(ctx, &model.AuditLog{Action: model.ActionSettlePayout, EntityID: "p1"}))

	logs, total, err := audits.List(ctx, AuditFilter{Page: 1, Limit: 1})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, logs, 1)

	_, total, err = audits.List(ctx, AuditFilter{Action: model.ActionApproveSubmission, Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)

	logs, total, err = audits.List(ctx, AuditFilter{EntityID: "p1", Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Nil(t, logs[0].UserID)

	_, total, err = audits.List(ctx, AuditFilter{ActorID: admin, Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
}

func TestLockingReadsWorkInAndOutOfTx(t *testing.T) {
	db := testutil.NewTestDB(t)
	txs := NewTransactionRepository(db)
	tm := NewTransactionManager(db)
	ctx := context.Background()
	row := testutil.CreateTransaction(t, db, uuid.New(), model.TxTypePayout, model.TxStatusPending, "10")

	got, err := txs.FindByIDForUpdate(ctx, row.ID)
	require.NoError(t, err)
	require.Equal(t, row.ID, got.ID)

	require.NoError(t, tm.RunInTx(ctx, func(txCtx context.Context) error {
		locked, err := txs.FindByIDForUpdate(txCtx, row.ID)
		if err != nil {
			return err
		}
		locked.Reference = "pout_1"
		return txs.Update(txCtx, locked)
	}))

	found, err := txs.FindByReferenceForUpdate(ctx, model.TxTypePayout, "pout_1")
	require.NoError(t, err)
	require.Equal(t, row.ID, found.ID)
}
