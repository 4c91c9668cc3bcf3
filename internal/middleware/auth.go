package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/moba-pay/moba_wallet/internal/account"
	"github.com/moba-pay/moba_wallet/internal/token"
)

// DeviceIDHeader carries the caller's device identifier for soft device binding.
const DeviceIDHeader = "X-Device-ID"

// Context keys populated by the gate for downstream handlers.
const (
	LocalPrincipal    = "principal"
	LocalMobile       = "mobile"
	LocalWalletNumber = "wallet_number"
	LocalBankCode     = "bank_code"
	LocalClientCode   = "client_code"
)

const bearerPrefix = "Bearer "

// Endpoints reachable without a token: the auth prefix plus three exact paths.
var (
	openPathPrefixes = []string{"/api/v1/auth"}
	openPaths        = map[string]struct{}{
		"/api/v1/wallets/secret-question": {},
		"/api/v1/otp/verify":              {},
		"/api/v1/customers/register":      {},
	}
)

type rejection struct {
	status  int
	message string
}

// AuthGate gates every protected request: it extracts a bearer token from one
// of the accepted transport locations, validates it, resolves the account
// principal and binds it to the request context. Every failure is terminal
// and mapped to a JSON error body; the gate itself never returns a 5xx.
func AuthGate(tokens *token.Service, accounts account.Repository) fiber.Handler {
	return authGate(tokens, accounts, false)
}

// AuthGateWithDeviceBinding additionally compares the token's device claim
// against the X-Device-ID header. The binding is soft: a mismatch only counts
// when both sides are present.
func AuthGateWithDeviceBinding(tokens *token.Service, accounts account.Repository) fiber.Handler {
	return authGate(tokens, accounts, true)
}

func authGate(tokens *token.Service, accounts account.Repository, bindDevice bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if openPath(c.Path()) {
			return c.Next()
		}

		principal, rej := authenticate(c, tokens, accounts, bindDevice)
		if rej != nil {
			return c.Status(rej.status).JSON(fiber.Map{"error": rej.message})
		}

		c.Locals(LocalPrincipal, principal)
		c.Locals(LocalMobile, principal.Mobile)
		c.Locals(LocalWalletNumber, principal.WalletNumber)
		c.Locals(LocalBankCode, principal.BankCode)
		c.Locals(LocalClientCode, principal.ClientCode)

		return c.Next()
	}
}

// authenticate runs the validation steps in order; the first rejection wins
// and no further steps run. Panics inside the pipeline are converted to a
// terminal 401 rather than bubbling up as a server error.
func authenticate(c *fiber.Ctx, tokens *token.Service, accounts account.Repository, bindDevice bool) (p account.Principal, rej *rejection) {
	defer func() {
		if r := recover(); r != nil {
			rej = &rejection{http.StatusUnauthorized, fmt.Sprintf("Token validation failed: %v", r)}
		}
	}()

	tok := extractToken(c)
	if tok == "" {
		return p, &rejection{http.StatusUnauthorized, "No authentication token found"}
	}

	if !tokens.Valid(tok) {
		return p, &rejection{http.StatusUnauthorized, "Invalid or expired token"}
	}

	mobile := tokens.ExtractClaim(tok, "sub")
	acc, err := accounts.FindByMobile(c.UserContext(), mobile)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return p, &rejection{http.StatusUnauthorized, "User not found"}
		}
		return p, &rejection{http.StatusUnauthorized, "Token validation failed: " + err.Error()}
	}

	if acc.Blocked {
		return p, &rejection{http.StatusForbidden, "Account is blocked"}
	}

	principal := account.NewPrincipal(acc)
	if !tokens.MatchesPrincipal(tok, principal) {
		return p, &rejection{http.StatusUnauthorized, "Token validation failed"}
	}

	if bindDevice {
		claimed := tokens.ExtractClaim(tok, "deviceId")
		presented := c.Get(DeviceIDHeader)
		if claimed != "" && presented != "" && claimed != presented {
			return p, &rejection{http.StatusUnauthorized, "Token validation failed"}
		}
	}

	return principal, nil
}

// extractToken tries each transport location in strict priority order and
// returns the first non-empty candidate. X-Bearer-Token is only honored when
// it actually carries the Bearer prefix.
func extractToken(c *fiber.Ctx) string {
	if v := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(v, bearerPrefix) {
		if tok := strings.TrimSpace(v[len(bearerPrefix):]); tok != "" {
			return tok
		}
	}
	if v := c.Get("X-Auth-Token"); v != "" {
		return v
	}
	if v := c.Get("X-Bearer-Token"); strings.HasPrefix(v, bearerPrefix) {
		if tok := strings.TrimSpace(v[len(bearerPrefix):]); tok != "" {
			return tok
		}
	}
	if v := c.Get("X-JWT"); v != "" {
		return v
	}
	if v := c.Query("access_token"); v != "" {
		return v
	}
	return ""
}

func openPath(path string) bool {
	if _, ok := openPaths[path]; ok {
		return true
	}
	for _, prefix := range openPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
