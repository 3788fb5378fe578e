package codes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qanzmarket/qanz-backend/internal/events"
	"github.com/qanzmarket/qanz-backend/internal/wallet"
	"github.com/qanzmarket/qanz-backend/pkg/db/models"
	"github.com/qanzmarket/qanz-backend/pkg/enums"
	pkgerrors "github.com/qanzmarket/qanz-backend/pkg/errors"
	"github.com/qanzmarket/qanz-backend/pkg/logger"
)

// generateAttempts bounds retries per requested code before the slot is
// given up as a collision.
const generateAttempts = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service covers the lifecycle of QANZ topup codes.
type Service interface {
	Generate(ctx context.Context, input GenerateInput) ([]models.TopupCode, error)
	Redeem(ctx context.Context, rawCode string, userID uuid.UUID) (*RedeemOutput, error)
	Void(ctx context.Context, codeID uuid.UUID) (*models.TopupCode, error)
	List(ctx context.Context, limit int) ([]models.TopupCode, error)
}

// GenerateInput describes an admin batch-generation request.
type GenerateInput struct {
	AmountCents int64
	Quantity    int
	CreatorID   uuid.UUID
}

// RedeemOutput reports the redeemed code and the redeemer's new balance.
type RedeemOutput struct {
	Code            models.TopupCode `json:"code"`
	NewBalanceCents int64            `json:"new_balance_cents"`
}

type service struct {
	repo       Repository
	walletRepo wallet.Repository
	tx         txRunner
	notifier   events.Notifier
	logg       *logger.Logger
}

// NewService wires the code redemption engine.
func NewService(repo Repository, walletRepo wallet.Repository, tx txRunner, notifier events.Notifier, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("codes repository required")
	}
	if walletRepo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if notifier == nil {
		notifier = events.NewNoop()
	}
	return &service{repo: repo, walletRepo: walletRepo, tx: tx, notifier: notifier, logg: logg}, nil
}

// Generate creates up to Quantity codes. A collision on the unique code
// column skips that slot rather than failing the whole batch; callers
// receive whichever codes were actually created.
func (s *service) Generate(ctx context.Context, input GenerateInput) ([]models.TopupCode, error) {
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if input.Quantity <= 0 || input.Quantity > 1000 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be between 1 and 1000")
	}
	if input.CreatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "creator identity missing")
	}

	created := make([]models.TopupCode, 0, input.Quantity)
	for i := 0; i < input.Quantity; i++ {
		for attempt := 0; attempt < generateAttempts; attempt++ {
			canonical, err := newCode()
			if err != nil {
				return created, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate code")
			}
			code := models.TopupCode{
				Code:        canonical,
				AmountCents: input.AmountCents,
				Status:      enums.TopupCodeStatusActive,
				CreatedBy:   input.CreatorID,
			}
			if err := s.repo.Create(ctx, &code); err != nil {
				if s.logg != nil {
					s.logg.Warn(s.logg.WithField(ctx, "attempt", attempt), "codes.generate_collision")
				}
				continue
			}
			created = append(created, code)
			break
		}
	}
	if len(created) > 0 {
		s.notifier.Changed(ctx, "topup_codes", input.CreatorID, "generated")
	}
	return created, nil
}

// Redeem converts a code into a wallet topup. The status check, the
// active -> redeemed flip and the ledger append commit together or not at
// all, and the flip is conditional so two simultaneous redemptions of the
// same code cannot both succeed.
func (s *service) Redeem(ctx context.Context, rawCode string, userID uuid.UUID) (*RedeemOutput, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	canonical, err := Normalize(rawCode)
	if err != nil {
		return nil, err
	}

	var out RedeemOutput
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		walletRepo := s.walletRepo.WithTx(tx)

		code, err := repo.FindByCode(ctx, canonical)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "code not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load code")
		}
		switch code.Status {
		case enums.TopupCodeStatusRedeemed:
			return pkgerrors.New(pkgerrors.CodeAlreadyUsed, "code already used")
		case enums.TopupCodeStatusVoided:
			return pkgerrors.New(pkgerrors.CodeVoided, "code has been voided")
		}

		now := time.Now().UTC()
		affected, err := repo.MarkRedeemed(ctx, code.ID, userID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redeem code")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeAlreadyUsed, "code already used")
		}

		description := fmt.Sprintf("topup code %s", code.Code)
		refType := "topup_code"
		entry := &models.WalletEntry{
			UserID:        userID,
			AmountCents:   code.AmountCents,
			Type:          enums.WalletEntryTypeTopup,
			Description:   &description,
			ReferenceType: &refType,
			ReferenceID:   &code.ID,
		}
		if err := walletRepo.Create(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append topup entry")
		}

		balance, err := walletRepo.SumByUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum wallet entries")
		}

		code.Status = enums.TopupCodeStatusRedeemed
		code.RedeemedBy = &userID
		code.RedeemedAt = &now
		out = RedeemOutput{Code: *code, NewBalanceCents: balance}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Changed(ctx, "wallet", userID, "redeemed")
	return &out, nil
}

func (s *service) Void(ctx context.Context, codeID uuid.UUID) (*models.TopupCode, error) {
	if codeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code id required")
	}

	now := time.Now().UTC()
	affected, err := s.repo.MarkVoided(ctx, codeID, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "void code")
	}
	if affected == 0 {
		code, err := s.repo.FindByID(ctx, codeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "code not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load code")
		}
		if code.Status == enums.TopupCodeStatusVoided {
			return nil, pkgerrors.New(pkgerrors.CodeVoided, "code has been voided")
		}
		return nil, pkgerrors.New(pkgerrors.CodeAlreadyUsed, "code already used")
	}

	code, err := s.repo.FindByID(ctx, codeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload code")
	}
	s.notifier.Changed(ctx, "topup_codes", codeID, "voided")
	return code, nil
}

func (s *service) List(ctx context.Context, limit int) ([]models.TopupCode, error) {
	codes, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list codes")
	}
	return codes, nil
}
