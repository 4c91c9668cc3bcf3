package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/moba-pay/moba_wallet/internal/account"
	"github.com/moba-pay/moba_wallet/internal/pincrypto"
	"github.com/moba-pay/moba_wallet/internal/token"
)

func authFixture(t *testing.T, withRedis bool) (*Service, account.Repository, func()) {
	t.Helper()

	accounts := account.NewMemoryRepository()
	tokens := token.NewService([]byte("auth-service-test-secret-value!!"))

	var otps *redis.Client
	cleanup := func() {}
	if withRedis {
		mr, err := miniredis.Run()
		if err != nil {
			t.Fatalf("start miniredis: %v", err)
		}
		otps = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		cleanup = func() {
			otps.Close()
			mr.Close()
		}
	}

	return NewService(accounts, tokens, 10*time.Minute, otps), accounts, cleanup
}

func seedLoginAccount(t *testing.T, accounts account.Repository, blocked bool) account.Account {
	t.Helper()
	acc := account.Account{
		ID:           "9d0c1132-0000-4000-8000-000000000003",
		Mobile:       "+243998880001",
		WalletNumber: "W-5001",
		BankCode:     "001",
		ClientCode:   "MOBA",
		Role:         "customer",
		Blocked:      blocked,
		PinDigest:    pincrypto.HashPin("4477", "W-5001"),
		CreatedAt:    time.Now().UTC(),
	}
	if err := accounts.Create(context.Background(), acc); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return acc
}

func TestLogin(t *testing.T) {
	svc, accounts, cleanup := authFixture(t, false)
	defer cleanup()
	acc := seedLoginAccount(t, accounts, false)

	sess, err := svc.Login(context.Background(), acc.Mobile, "4477", "device-1", "10.1.1.1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sess.AccessToken == "" || sess.WalletNumber != acc.WalletNumber {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if sess.ExpiresIn != int64((10 * time.Minute).Seconds()) {
		t.Fatalf("expires_in %d", sess.ExpiresIn)
	}
}

func TestLoginWrongPin(t *testing.T) {
	svc, accounts, cleanup := authFixture(t, false)
	defer cleanup()
	acc := seedLoginAccount(t, accounts, false)

	if _, err := svc.Login(context.Background(), acc.Mobile, "0000", "", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginUnknownMobileIndistinguishable(t *testing.T) {
	svc, _, cleanup := authFixture(t, false)
	defer cleanup()

	if _, err := svc.Login(context.Background(), "+000", "4477", "", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginBlocked(t *testing.T) {
	svc, accounts, cleanup := authFixture(t, false)
	defer cleanup()
	acc := seedLoginAccount(t, accounts, true)

	if _, err := svc.Login(context.Background(), acc.Mobile, "4477", "", ""); !errors.Is(err, ErrAccountBlocked) {
		t.Fatalf("expected ErrAccountBlocked, got %v", err)
	}
}

func TestOTPRoundTrip(t *testing.T) {
	svc, accounts, cleanup := authFixture(t, true)
	defer cleanup()
	acc := seedLoginAccount(t, accounts, false)
	ctx := context.Background()

	code, err := svc.RequestOTP(ctx, acc.Mobile)
	if err != nil {
		t.Fatalf("request otp: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("otp %q should be 6 digits", code)
	}

	verification, err := svc.VerifyOTP(ctx, acc.Mobile, code)
	if err != nil {
		t.Fatalf("verify otp: %v", err)
	}
	if verification == "" {
		t.Fatal("expected a verification token")
	}

	// Single use: the same code must not verify twice.
	if _, err := svc.VerifyOTP(ctx, acc.Mobile, code); err == nil {
		t.Fatal("otp should be consumed after verification")
	}
}

func TestVerifyOTPMismatch(t *testing.T) {
	svc, accounts, cleanup := authFixture(t, true)
	defer cleanup()
	acc := seedLoginAccount(t, accounts, false)
	ctx := context.Background()

	if _, err := svc.RequestOTP(ctx, acc.Mobile); err != nil {
		t.Fatalf("request otp: %v", err)
	}
	if _, err := svc.VerifyOTP(ctx, acc.Mobile, "000000"); err == nil {
		t.Fatal("wrong code should fail")
	}
}

func TestOTPWithoutRedis(t *testing.T) {
	svc, accounts, cleanup := authFixture(t, false)
	defer cleanup()
	acc := seedLoginAccount(t, accounts, false)

	if _, err := svc.RequestOTP(context.Background(), acc.Mobile); !errors.Is(err, ErrOTPUnavailable) {
		t.Fatalf("expected ErrOTPUnavailable, got %v", err)
	}
}
