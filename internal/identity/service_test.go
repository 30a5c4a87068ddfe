package identity

import (
	"context"
	"strings"
	"testing"

	"github.com/congo-pay/wallet_orders/internal/ledger"
	"github.com/congo-pay/wallet_orders/internal/logging"
	"github.com/congo-pay/wallet_orders/internal/wallet"
)

func newTestService() (*Service, ledger.Ledger) {
	l := ledger.NewInMemory()
	return NewService(NewMemoryRepository(), wallet.NewService(l, logging.Discard()), logging.Discard()), l
}

func TestCreateOpensWalletAndAuthenticates(t *testing.T) {
	svc, l := newTestService()
	ctx := context.Background()

	user, err := svc.Create(ctx, NewUser{ClientID: "C1", Name: "Ada", Email: "Ada@Example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if user.Email != "ada@example.com" {
		t.Fatalf("expected normalised email, got %s", user.Email)
	}

	acc, err := l.Account(ctx, "C1")
	if err != nil {
		t.Fatalf("wallet account missing: %v", err)
	}
	if !acc.Balance.IsZero() {
		t.Fatalf("expected empty wallet, got %s", acc.Balance)
	}

	if _, err := svc.Authenticate(ctx, "ada@example.com", "secret1"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "ada@example.com", "wrong-pass"); err != ErrInvalidCredentials {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody@example.com", "secret1"); err != ErrInvalidCredentials {
		t.Fatalf("expected invalid credentials for unknown email, got %v", err)
	}
}

func TestCreateGeneratesDefaults(t *testing.T) {
	svc, _ := newTestService()

	user, err := svc.Create(context.Background(), NewUser{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasPrefix(user.ClientID, "client_") {
		t.Fatalf("unexpected client id %q", user.ClientID)
	}
	if user.Name != "User "+user.ClientID || user.Email != user.ClientID+"@example.com" {
		t.Fatalf("unexpected defaults: %+v", user)
	}
	if _, err := svc.Authenticate(context.Background(), user.Email, ""); err != ErrInvalidCredentials {
		t.Fatalf("passwordless users cannot log in, got %v", err)
	}
}

func TestCreateRejectsDuplicates(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, NewUser{ClientID: "C1", Email: "a@example.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, NewUser{ClientID: "C1", Email: "b@example.com"}); err != ErrClientIDTaken {
		t.Fatalf("expected client id conflict, got %v", err)
	}
	if _, err := svc.Create(ctx, NewUser{ClientID: "C2", Email: "a@example.com"}); err != ErrEmailTaken {
		t.Fatalf("expected email conflict, got %v", err)
	}
	if _, err := svc.Create(ctx, NewUser{ClientID: "C3", Password: "123"}); err != ErrPasswordTooShort {
		t.Fatalf("expected short password error, got %v", err)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	svc, l := newTestService()
	ctx := context.Background()
	for _, id := range []string{"C1", "C2"} {
		if _, err := svc.Create(ctx, NewUser{ClientID: id}); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	name := "Renamed"
	user, err := svc.Update(ctx, "C1", Changes{Name: &name})
	if err != nil || user.Name != "Renamed" || user.Email != "c1@example.com" {
		t.Fatalf("update name: %+v %v", user, err)
	}

	taken := "C2@example.com"
	if _, err := svc.Update(ctx, "C1", Changes{Email: &taken}); err != ErrEmailTaken {
		t.Fatalf("expected email conflict, got %v", err)
	}

	if err := svc.Delete(ctx, "C1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, "C1"); err != ErrUserNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := svc.Delete(ctx, "C1"); err != ErrUserNotFound {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	if _, err := l.Account(ctx, "C1"); err != nil {
		t.Fatalf("ledger account must survive user deletion: %v", err)
	}
}

func TestListPaginates(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	for _, id := range []string{"A", "B", "C"} {
		if _, err := svc.Create(ctx, NewUser{ClientID: id}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	page, err := svc.List(ctx, 2, 0)
	if err != nil || len(page) != 2 {
		t.Fatalf("first page: %d %v", len(page), err)
	}
	rest, err := svc.List(ctx, 2, 2)
	if err != nil || len(rest) != 1 {
		t.Fatalf("second page: %d %v", len(rest), err)
	}
	empty, err := svc.List(ctx, 2, 10)
	if err != nil || len(empty) != 0 {
		t.Fatalf("past the end: %d %v", len(empty), err)
	}
}
