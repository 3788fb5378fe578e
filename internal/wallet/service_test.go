package wallet

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/qanzmarket/qanz-backend/pkg/db/dbtest"
	"github.com/qanzmarket/qanz-backend/pkg/db/models"
	"github.com/qanzmarket/qanz-backend/pkg/enums"
	pkgerrors "github.com/qanzmarket/qanz-backend/pkg/errors"
)

func newWalletService(t *testing.T) (Service, Repository) {
	t.Helper()
	repo := NewRepository(dbtest.Open(t))
	svc, err := NewService(repo, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo
}

func TestBalanceIsSumOfEntries(t *testing.T) {
	svc, _ := newWalletService(t)
	ctx := context.Background()
	user := uuid.New()

	amounts := []int64{1000, -250, 500, -50}
	for _, amount := range amounts {
		typ := enums.WalletEntryTypeTopup
		if amount < 0 {
			typ = enums.WalletEntryTypeSpend
		}
		if _, err := svc.Append(ctx, AppendInput{UserID: user, AmountCents: amount, Type: typ}); err != nil {
			t.Fatalf("append %d: %v", amount, err)
		}
	}

	balance, err := svc.Balance(ctx, user)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 1200 {
		t.Fatalf("expected balance 1200, got %d", balance)
	}

	other, err := svc.Balance(ctx, uuid.New())
	if err != nil {
		t.Fatalf("balance for unknown user: %v", err)
	}
	if other != 0 {
		t.Fatalf("unknown user should have zero balance, got %d", other)
	}
}

func TestBalanceHoldsUnderConcurrentAppends(t *testing.T) {
	svc, _ := newWalletService(t)
	ctx := context.Background()
	user := uuid.New()

	const workers = 8
	const perWorker = 5

	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				_, err := svc.Append(ctx, AppendInput{UserID: user, AmountCents: 10, Type: enums.WalletEntryTypeReward})
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	appended := int64(0)
	for err := range errs {
		if err == nil {
			appended++
		}
	}
	if appended == 0 {
		t.Fatal("expected at least one append to succeed")
	}

	balance, err := svc.Balance(ctx, user)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != appended*10 {
		t.Fatalf("balance drifted: %d successes but balance %d", appended, balance)
	}
}

func TestAppendValidation(t *testing.T) {
	svc, _ := newWalletService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input AppendInput
	}{
		{"missing user", AppendInput{AmountCents: 10, Type: enums.WalletEntryTypeTopup}},
		{"zero amount", AppendInput{UserID: uuid.New(), AmountCents: 0, Type: enums.WalletEntryTypeTopup}},
		{"bad type", AppendInput{UserID: uuid.New(), AmountCents: 10, Type: "lottery"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Append(ctx, tc.input)
			if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestNegativeEntriesAreAcceptedWithoutBalanceCheck(t *testing.T) {
	svc, _ := newWalletService(t)
	ctx := context.Background()
	user := uuid.New()

	if _, err := svc.Append(ctx, AppendInput{UserID: user, AmountCents: -500, Type: enums.WalletEntryTypeSpend}); err != nil {
		t.Fatalf("append negative: %v", err)
	}
	balance, err := svc.Balance(ctx, user)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != -500 {
		t.Fatalf("expected balance -500, got %d", balance)
	}
}

func TestStatementOrdersNewestFirst(t *testing.T) {
	svc, repo := newWalletService(t)
	ctx := context.Background()
	user := uuid.New()

	for _, amount := range []int64{100, 200, 300} {
		if err := repo.Create(ctx, &models.WalletEntry{UserID: user, AmountCents: amount, Type: enums.WalletEntryTypeTopup}); err != nil {
			t.Fatalf("seed entry: %v", err)
		}
	}

	out, err := svc.Statement(ctx, user, 2)
	if err != nil {
		t.Fatalf("statement: %v", err)
	}
	if out.BalanceCents != 600 {
		t.Fatalf("expected balance 600, got %d", out.BalanceCents)
	}
	if len(out.Entries) != 2 {
		t.Fatalf("expected limit of 2 entries, got %d", len(out.Entries))
	}
}
