package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/moba-pay/moba_wallet/internal/account"
	"github.com/moba-pay/moba_wallet/internal/token"
)

var gateSecret = []byte("gate-test-secret-gate-test-secret")

func gateFixture(t *testing.T, bindDevice bool) (*fiber.App, *token.Service, account.Repository) {
	t.Helper()

	accounts := account.NewMemoryRepository()
	tokens := token.NewService(gateSecret)

	app := fiber.New()
	if bindDevice {
		app.Use(AuthGateWithDeviceBinding(tokens, accounts))
	} else {
		app.Use(AuthGate(tokens, accounts))
	}
	app.Get("/api/v1/wallets/me", func(c *fiber.Ctx) error {
		mobile, _ := c.Locals(LocalMobile).(string)
		wallet, _ := c.Locals(LocalWalletNumber).(string)
		return c.JSON(fiber.Map{"mobile": mobile, "wallet_number": wallet})
	})
	app.Post("/api/v1/auth/login", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Post("/api/v1/otp/verify", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	return app, tokens, accounts
}

func seedAccount(t *testing.T, accounts account.Repository, blocked bool) account.Account {
	t.Helper()
	acc := account.Account{
		ID:           "6f1c0c9e-0000-4000-8000-000000000001",
		Mobile:       "+243991112233",
		WalletNumber: "W-2044",
		BankCode:     "044",
		ClientCode:   "MOBA",
		Role:         "customer",
		Blocked:      blocked,
		CreatedAt:    time.Now().UTC(),
	}
	if err := accounts.Create(context.Background(), acc); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return acc
}

func errorBody(t *testing.T, resp io.Reader) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error
}

func TestGateMissingToken(t *testing.T) {
	app, _, _ := gateFixture(t, false)

	req := httptest.NewRequest(fiber.MethodGet, "/api/v1/wallets/me", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get(fiber.HeaderContentType); ct != fiber.MIMEApplicationJSON {
		t.Fatalf("expected JSON content type, got %q", ct)
	}
	if got := errorBody(t, resp.Body); got != "No authentication token found" {
		t.Fatalf("unexpected body %q", got)
	}
}

func TestGateOpenPathsBypass(t *testing.T) {
	app, _, _ := gateFixture(t, false)

	for _, path := range []string{"/api/v1/auth/login", "/api/v1/otp/verify"} {
		req := httptest.NewRequest(fiber.MethodPost, path, nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test %s: %v", path, err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("open path %s should bypass the gate, got %d", path, resp.StatusCode)
		}
	}
}

func TestGateInvalidToken(t *testing.T) {
	app, _, _ := gateFixture(t, false)

	req := httptest.NewRequest(fiber.MethodGet, "/api/v1/wallets/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer not-a-real-token")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if got := errorBody(t, resp.Body); got != "Invalid or expired token" {
		t.Fatalf("unexpected body %q", got)
	}
}

func TestGateAccountNotFound(t *testing.T) {
	app, tokens, _ := gateFixture(t, false)

	tok, err := tokens.Issue(account.Principal{Mobile: "+243990000404"}, "", "", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	req := httptest.NewRequest(fiber.MethodGet, "/api/v1/wallets/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+tok)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if got := errorBody(t, resp.Body); got != "User not found" {
		t.Fatalf("unexpected body %q", got)
	}
}

func TestGateBlockedAccount(t *testing.T) {
	app, tokens, accounts := gateFixture(t, false)
	acc := seedAccount(t, accounts, true)

	tok, err := tokens.Issue(account.NewPrincipal(acc), "", "", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	req := httptest.NewRequest(fiber.MethodGet, "/api/v1/wallets/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+tok)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	if got := errorBody(t, resp.Body); got != "Account is blocked" {
		t.Fatalf("unexpected body %q", got)
	}
}

func TestGateBindsPrincipal(t *testing.T) {
	app, tokens, accounts := gateFixture(t, false)
	acc := seedAccount(t, accounts, false)

	tok, err := tokens.Issue(account.NewPrincipal(acc), "", "", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	req := httptest.NewRequest(fiber.MethodGet, "/api/v1/wallets/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+tok)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Mobile       string `json:"mobile"`
		WalletNumber string `json:"wallet_number"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Mobile != acc.Mobile || body.WalletNumber != acc.WalletNumber {
		t.Fatalf("principal not bound: %+v", body)
	}
}

func TestGateHeaderPrecedence(t *testing.T) {
	app, tokens, accounts := gateFixture(t, false)
	acc := seedAccount(t, accounts, false)

	good, err := tokens.Issue(account.NewPrincipal(acc), "", "", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Authorization carries the valid token, X-Auth-Token carries junk.
	// Authorization must win, so the request succeeds.
	req := httptest.NewRequest(fiber.MethodGet, "/api/v1/wallets/me", nil)
	req.Header.Set("X-Auth-Token", "junk-token")
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+good)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Authorization header should take precedence, got %d", resp.StatusCode)
	}

	// Reversed: junk in Authorization with the Bearer prefix still wins and fails.
	req = httptest.NewRequest(fiber.MethodGet, "/api/v1/wallets/me", nil)
	req.Header.Set("X-Auth-Token", good)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer junk-token")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 when Authorization carries junk, got %d", resp.StatusCode)
	}
}

func TestGateAlternateTransports(t *testing.T) {
	app, tokens, accounts := gateFixture(t, false)
	acc := seedAccount(t, accounts, false)

	good, err := tokens.Issue(account.NewPrincipal(acc), "", "", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	cases := []struct {
		name   string
		header string
		value  string
		query  string
		want   int
	}{
		{name: "x-auth-token raw", header: "X-Auth-Token", value: good, want: fiber.StatusOK},
		{name: "x-bearer-token with prefix", header: "X-Bearer-Token", value: "Bearer " + good, want: fiber.StatusOK},
		{name: "x-bearer-token without prefix ignored", header: "X-Bearer-Token", value: good, want: fiber.StatusUnauthorized},
		{name: "x-jwt raw", header: "X-JWT", value: good, want: fiber.StatusOK},
		{name: "query param", query: "access_token=" + good, want: fiber.StatusOK},
	}

	for _, tc := range cases {
		target := "/api/v1/wallets/me"
		if tc.query != "" {
			target += "?" + tc.query
		}
		req := httptest.NewRequest(fiber.MethodGet, target, nil)
		if tc.header != "" {
			req.Header.Set(tc.header, tc.value)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("%s: app.Test: %v", tc.name, err)
		}
		if resp.StatusCode != tc.want {
			t.Errorf("%s: expected %d, got %d", tc.name, tc.want, resp.StatusCode)
		}
	}
}

func TestGateDeviceBinding(t *testing.T) {
	app, tokens, accounts := gateFixture(t, true)
	acc := seedAccount(t, accounts, false)

	tok, err := tokens.Issue(account.NewPrincipal(acc), "device-a", "", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	cases := []struct {
		name      string
		presented string
		want      int
	}{
		{"matching device", "device-a", fiber.StatusOK},
		{"mismatched device", "device-b", fiber.StatusUnauthorized},
		{"absent header is soft", "", fiber.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(fiber.MethodGet, "/api/v1/wallets/me", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+tok)
		if tc.presented != "" {
			req.Header.Set(DeviceIDHeader, tc.presented)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("%s: app.Test: %v", tc.name, err)
		}
		if resp.StatusCode != tc.want {
			t.Errorf("%s: expected %d, got %d", tc.name, tc.want, resp.StatusCode)
		}
		if tc.want == fiber.StatusUnauthorized {
			if got := errorBody(t, resp.Body); got != "Token validation failed" {
				t.Errorf("%s: unexpected body %q", tc.name, got)
			}
		}
	}
}

type failingRepo struct{ account.Repository }

func (failingRepo) FindByMobile(context.Context, string) (account.Account, error) {
	return account.Account{}, errors.New("lookup backend down")
}

func TestGateUnexpectedErrorNever5xx(t *testing.T) {
	tokens := token.NewService(gateSecret)
	app := fiber.New()
	app.Use(AuthGate(tokens, failingRepo{}))
	app.Get("/api/v1/wallets/me", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	tok, err := tokens.Issue(account.Principal{Mobile: "+243991112233"}, "", "", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	req := httptest.NewRequest(fiber.MethodGet, "/api/v1/wallets/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+tok)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("unexpected errors must map to 401, got %d", resp.StatusCode)
	}
	if got := errorBody(t, resp.Body); got != "Token validation failed: lookup backend down" {
		t.Fatalf("unexpected body %q", got)
	}
}
