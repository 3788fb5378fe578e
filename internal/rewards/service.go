package rewards

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qanzmarket/qanz-backend/internal/events"
	"github.com/qanzmarket/qanz-backend/internal/wallet"
	"github.com/qanzmarket/qanz-backend/pkg/db/models"
	"github.com/qanzmarket/qanz-backend/pkg/enums"
	pkgerrors "github.com/qanzmarket/qanz-backend/pkg/errors"
	"github.com/qanzmarket/qanz-backend/pkg/logger"
)

// Rule keys issued by the delivery pipeline.
const (
	RuleOrderDelivered    = "order_delivered"
	RuleDeliveryCompleted = "delivery_completed"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service grants QANZ rewards for configured rule keys.
type Service interface {
	// IssueIfEligible grants the reward for ruleKey at most once per
	// (user, rule, reference). A missing or inactive rule is a silent
	// no-op, as is a duplicate trigger; the boolean reports whether a
	// grant actually happened.
	IssueIfEligible(ctx context.Context, ruleKey string, userID uuid.UUID, referenceType string, referenceID uuid.UUID) (bool, error)
	UpsertRule(ctx context.Context, input UpsertRuleInput) (*models.RewardRule, error)
	ListRules(ctx context.Context) ([]models.RewardRule, error)
	ListEventsByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.RewardEvent, error)
}

// UpsertRuleInput configures a reward rule keyed by its trigger.
type UpsertRuleInput struct {
	Key         string
	AmountCents int64
	Active      bool
}

type service struct {
	repo       Repository
	walletRepo wallet.Repository
	tx         txRunner
	notifier   events.Notifier
	logg       *logger.Logger
}

// NewService wires the reward issuance engine.
func NewService(repo Repository, walletRepo wallet.Repository, tx txRunner, notifier events.Notifier, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("rewards repository required")
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

func (s *service) IssueIfEligible(ctx context.Context, ruleKey string, userID uuid.UUID, referenceType string, referenceID uuid.UUID) (bool, error) {
	if ruleKey == "" || userID == uuid.Nil || referenceID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "rule key, user and reference are required")
	}

	rule, err := s.repo.FindRuleByKey(ctx, ruleKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reward rule")
	}
	if !rule.Active {
		return false, nil
	}

	issued := false
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		walletRepo := s.walletRepo.WithTx(tx)

		affected, err := repo.CreateEvent(ctx, &models.RewardEvent{
			RuleKey:       ruleKey,
			UserID:        userID,
			AmountCents:   rule.AmountCents,
			ReferenceType: referenceType,
			ReferenceID:   referenceID,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record reward event")
		}
		if affected == 0 {
			return nil
		}

		description := fmt.Sprintf("reward %s", ruleKey)
		refType := referenceType
		refID := referenceID
		entry := &models.WalletEntry{
			UserID:        userID,
			AmountCents:   rule.AmountCents,
			Type:          enums.WalletEntryTypeReward,
			Description:   &description,
			ReferenceType: &refType,
			ReferenceID:   &refID,
		}
		if err := walletRepo.Create(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append reward entry")
		}
		issued = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if issued {
		if s.logg != nil {
			s.logg.Info(s.logg.WithField(ctx, "rule_key", ruleKey), "rewards.issued")
		}
		s.notifier.Changed(ctx, "wallet", userID, "rewarded")
	}
	return issued, nil
}

func (s *service) UpsertRule(ctx context.Context, input UpsertRuleInput) (*models.RewardRule, error) {
	if input.Key == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rule key required")
	}
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	rule := &models.RewardRule{
		Key:         input.Key,
		AmountCents: input.AmountCents,
		Active:      input.Active,
	}
	if err := s.repo.UpsertRule(ctx, rule); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert reward rule")
	}
	s.notifier.Changed(ctx, "reward_rules", rule.ID, "upserted")
	return rule, nil
}

func (s *service) ListRules(ctx context.Context) ([]models.RewardRule, error) {
	rules, err := s.repo.ListRules(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reward rules")
	}
	return rules, nil
}

func (s *service) ListEventsByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.RewardEvent, error) {
	events, err := s.repo.ListEventsByUser(ctx, userID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reward events")
	}
	return events, nil
}
