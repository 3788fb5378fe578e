package wallet

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/qanzmarket/qanz-backend/internal/events"
	"github.com/qanzmarket/qanz-backend/pkg/db/models"
	"github.com/qanzmarket/qanz-backend/pkg/enums"
	pkgerrors "github.com/qanzmarket/qanz-backend/pkg/errors"
)

// Service exposes the QANZ ledger. Balance is always derived by summing
// entries; no operation reads, modifies and rewrites a stored balance.
type Service interface {
	Append(ctx context.Context, input AppendInput) (*models.WalletEntry, error)
	Balance(ctx context.Context, userID uuid.UUID) (int64, error)
	Statement(ctx context.Context, userID uuid.UUID, limit int) (*StatementOutput, error)
}

// AppendInput captures one signed ledger movement.
type AppendInput struct {
	UserID        uuid.UUID
	AmountCents   int64
	Type          enums.WalletEntryType
	Description   *string
	ReferenceType *string
	ReferenceID   *uuid.UUID
}

// StatementOutput pairs the derived balance with recent entries.
type StatementOutput struct {
	BalanceCents int64                `json:"balance_cents"`
	Entries      []models.WalletEntry `json:"entries"`
}

type service struct {
	repo     Repository
	notifier events.Notifier
}

// NewService wires a wallet service with the provided repository.
func NewService(repo Repository, notifier events.Notifier) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if notifier == nil {
		notifier = events.NewNoop()
	}
	return &service{repo: repo, notifier: notifier}, nil
}

func (s *service) Append(ctx context.Context, input AppendInput) (*models.WalletEntry, error) {
	entry, err := buildEntry(input)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append wallet entry")
	}
	s.notifier.Changed(ctx, "wallet", input.UserID, "appended")
	return entry, nil
}

func (s *service) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	total, err := s.repo.SumByUser(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum wallet entries")
	}
	return total, nil
}

func (s *service) Statement(ctx context.Context, userID uuid.UUID, limit int) (*StatementOutput, error) {
	balance, err := s.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wallet entries")
	}
	return &StatementOutput{BalanceCents: balance, Entries: entries}, nil
}

// buildEntry validates an append without touching storage. The ledger
// never checks "sufficient balance": a caller issuing a negative entry is
// responsible for any pre-check it needs.
func buildEntry(input AppendInput) (*models.WalletEntry, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if input.AmountCents == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be non-zero")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid wallet entry type %q", input.Type))
	}
	return &models.WalletEntry{
		UserID:        input.UserID,
		AmountCents:   input.AmountCents,
		Type:          input.Type,
		Description:   input.Description,
		ReferenceType: input.ReferenceType,
		ReferenceID:   input.ReferenceID,
	}, nil
}
