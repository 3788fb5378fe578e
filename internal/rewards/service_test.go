package rewards

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/qanzmarket/qanz-backend/internal/wallet"
	"github.com/qanzmarket/qanz-backend/pkg/db"
	"github.com/qanzmarket/qanz-backend/pkg/db/dbtest"
	pkgerrors "github.com/qanzmarket/qanz-backend/pkg/errors"
)

func newRewardsService(t *testing.T) (Service, wallet.Repository) {
	t.Helper()
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	walletRepo := wallet.NewRepository(conn)
	svc, err := NewService(repo, walletRepo, db.FromGorm(conn), nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, walletRepo
}

func TestIssueGrantsOncePerReference(t *testing.T) {
	svc, walletRepo := newRewardsService(t)
	ctx := context.Background()
	user := uuid.New()
	order := uuid.New()

	if _, err := svc.UpsertRule(ctx, UpsertRuleInput{Key: RuleOrderDelivered, AmountCents: 200, Active: true}); err != nil {
		t.Fatalf("upsert rule: %v", err)
	}

	issued, err := svc.IssueIfEligible(ctx, RuleOrderDelivered, user, "order", order)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !issued {
		t.Fatal("expected first trigger to issue the reward")
	}

	issued, err = svc.IssueIfEligible(ctx, RuleOrderDelivered, user, "order", order)
	if err != nil {
		t.Fatalf("second issue: %v", err)
	}
	if issued {
		t.Fatal("duplicate trigger must not issue again")
	}

	balance, err := walletRepo.SumByUser(ctx, user)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if balance != 200 {
		t.Fatalf("expected a single 200 grant, got balance %d", balance)
	}
}

func TestIssueDistinctReferencesGrantSeparately(t *testing.T) {
	svc, walletRepo := newRewardsService(t)
	ctx := context.Background()
	user := uuid.New()

	if _, err := svc.UpsertRule(ctx, UpsertRuleInput{Key: RuleDeliveryCompleted, AmountCents: 150, Active: true}); err != nil {
		t.Fatalf("upsert rule: %v", err)
	}

	for i := 0; i < 3; i++ {
		issued, err := svc.IssueIfEligible(ctx, RuleDeliveryCompleted, user, "delivery", uuid.New())
		if err != nil {
			t.Fatalf("issue %d: %v", i, err)
		}
		if !issued {
			t.Fatalf("trigger %d with a fresh reference should issue", i)
		}
	}

	balance, err := walletRepo.SumByUser(ctx, user)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if balance != 450 {
		t.Fatalf("expected three 150 grants, got balance %d", balance)
	}
}

func TestIssueSilentlySkipsMissingOrInactiveRules(t *testing.T) {
	svc, walletRepo := newRewardsService(t)
	ctx := context.Background()
	user := uuid.New()

	issued, err := svc.IssueIfEligible(ctx, "no_such_rule", user, "order", uuid.New())
	if err != nil {
		t.Fatalf("missing rule should not error: %v", err)
	}
	if issued {
		t.Fatal("missing rule must not issue")
	}

	if _, err := svc.UpsertRule(ctx, UpsertRuleInput{Key: RuleOrderDelivered, AmountCents: 100, Active: false}); err != nil {
		t.Fatalf("upsert rule: %v", err)
	}
	issued, err = svc.IssueIfEligible(ctx, RuleOrderDelivered, user, "order", uuid.New())
	if err != nil {
		t.Fatalf("inactive rule should not error: %v", err)
	}
	if issued {
		t.Fatal("inactive rule must not issue")
	}

	balance, err := walletRepo.SumByUser(ctx, user)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if balance != 0 {
		t.Fatalf("expected zero balance, got %d", balance)
	}
}

func TestUpsertRuleUpdatesAmount(t *testing.T) {
	svc, _ := newRewardsService(t)
	ctx := context.Background()

	if _, err := svc.UpsertRule(ctx, UpsertRuleInput{Key: RuleOrderDelivered, AmountCents: 100, Active: true}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if _, err := svc.UpsertRule(ctx, UpsertRuleInput{Key: RuleOrderDelivered, AmountCents: 250, Active: true}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	rules, err := svc.ListRules(ctx)
	if err != nil {
		t.Fatalf("list rules: %v", err)
	}
	if len(rules) != 1 {
		t.Fatalf("expected one rule, got %d", len(rules))
	}
	if rules[0].AmountCents != 250 {
		t.Fatalf("expected updated amount 250, got %d", rules[0].AmountCents)
	}
}

func TestUpsertRuleValidation(t *testing.T) {
	svc, _ := newRewardsService(t)
	ctx := context.Background()

	if _, err := svc.UpsertRule(ctx, UpsertRuleInput{Key: "", AmountCents: 100}); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for empty key, got %v", err)
	}
	if _, err := svc.UpsertRule(ctx, UpsertRuleInput{Key: "x", AmountCents: 0}); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for zero amount, got %v", err)
	}
}
