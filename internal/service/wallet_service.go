package service

import (
	"context"
	"fmt"

	"taskmind/internal/model"
	"taskmind/internal/repository"

	"github.com/google/uuid"
)

// WalletService reads balances straight from the ledger; nothing is cached.
type WalletService interface {
	GetWallet(ctx context.Context, userID uuid.UUID) (model.WalletInfo, []model.Transaction, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Transaction, int64, error)
}

type walletService struct {
	transactionRepo repository.TransactionRepository
	submissionRepo  repository.SubmissionRepository
}

func NewWalletService(transactionRepo repository.TransactionRepository, submissionRepo repository.SubmissionRepository) WalletService {
	return &walletService{transactionRepo: transactionRepo, submissionRepo: submissionRepo}
}

// GetWallet returns the summary and the full history, newest first. A user
// with no rows gets a zero summary and an empty list.
func (s *walletService) GetWallet(ctx context.Context, userID uuid.UUID) (model.WalletInfo, []model.Transaction, error) {
	txs, err := s.transactionRepo.ListByUser(ctx, userID)
	if err != nil {
		return model.WalletInfo{}, nil, fmt.Errorf("failed to fetch transactions: %w", err)
	}
	if txs == nil {
		txs = []model.Transaction{}
	}

	info := model.SummarizeWallet(txs)
	pending, err := s.submissionRepo.CountPendingByUser(ctx, userID)
	if err != nil {
		return model.WalletInfo{}, nil, fmt.Errorf("failed to count pending submissions: %w", err)
	}
	info.PendingApprovals = pending

	return info, txs, nil
}

func (s *walletService) ListTransactions(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Transaction, int64, error) {
	txs, total, err := s.transactionRepo.ListByUserPaged(ctx, userID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch transactions: %w", err)
	}
	return txs, total, nil
}
