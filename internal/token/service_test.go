package token

import (
	"testing"
	"time"

	"github.com/moba-pay/moba_wallet/internal/account"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func testPrincipal() account.Principal {
	return account.Principal{
		Mobile:       "+243990000001",
		WalletNumber: "W-1001",
		BankCode:     "001",
		ClientCode:   "MOBA",
		Role:         "customer",
	}
}

func TestIssueThenValid(t *testing.T) {
	svc := NewService(testSecret)
	tok, err := svc.Issue(testPrincipal(), "device-1", "10.0.0.9", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !svc.Valid(tok) {
		t.Fatal("freshly issued token should be valid")
	}
}

func TestExpiredTokenInvalid(t *testing.T) {
	svc := NewService(testSecret)
	tok, err := svc.Issue(testPrincipal(), "", "", -time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	// Signature is fine; expiry alone must reject it.
	if svc.Valid(tok) {
		t.Fatal("expired token reported valid")
	}
	if svc.MatchesPrincipal(tok, testPrincipal()) {
		t.Fatal("expired token matched principal")
	}
}

func TestValidFailsClosed(t *testing.T) {
	svc := NewService(testSecret)
	for _, tok := range []string{"", "garbage", "a.b.c", "eyJhbGciOiJIUzI1NiJ9..x"} {
		if svc.Valid(tok) {
			t.Errorf("token %q reported valid", tok)
		}
	}

	good, err := svc.Issue(testPrincipal(), "", "", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	other := NewService([]byte("another-secret-another-secret-xx"))
	if other.Valid(good) {
		t.Fatal("token signed with a different secret reported valid")
	}
}

func TestMatchesPrincipal(t *testing.T) {
	svc := NewService(testSecret)
	p := testPrincipal()
	tok, err := svc.Issue(p, "", "", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !svc.MatchesPrincipal(tok, p) {
		t.Fatal("token should match its own principal")
	}
	imposter := p
	imposter.Mobile = "+243990009999"
	if svc.MatchesPrincipal(tok, imposter) {
		t.Fatal("token matched a different mobile number")
	}
}

func TestExtractClaim(t *testing.T) {
	svc := NewService(testSecret)
	tok, err := svc.Issue(testPrincipal(), "device-7", "172.16.0.4", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	cases := map[string]string{
		"sub":          "+243990000001",
		"deviceId":     "device-7",
		"ipAddress":    "172.16.0.4",
		"walletNumber": "W-1001",
		"bankCode":     "001",
		"clientCode":   "MOBA",
		"unknown":      "",
	}
	for name, want := range cases {
		if got := svc.ExtractClaim(tok, name); got != want {
			t.Errorf("ExtractClaim(%q) = %q, want %q", name, got, want)
		}
	}

	if svc.ExtractClaim("not-a-token", "sub") != "" {
		t.Fatal("extract from invalid token should return empty")
	}
}

func TestIssueRequiresSubject(t *testing.T) {
	svc := NewService(testSecret)
	if _, err := svc.Issue(account.Principal{}, "", "", time.Minute); err == nil {
		t.Fatal("issuing without a mobile number should fail")
	}
}
