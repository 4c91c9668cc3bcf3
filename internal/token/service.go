package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/moba-pay/moba_wallet/internal/account"
)

// Claims carries the wallet session attributes embedded in an access token.
// The subject is the customer's mobile number. Tokens are self-contained,
// stateless capabilities; there is no server-side revocation list.
type Claims struct {
	DeviceID     string `json:"deviceId,omitempty"`
	IPAddress    string `json:"ipAddress,omitempty"`
	WalletNumber string `json:"walletNumber,omitempty"`
	BankCode     string `json:"bankCode,omitempty"`
	ClientCode   string `json:"clientCode,omitempty"`
	jwt.RegisteredClaims
}

// Service issues and validates HS256 bearer tokens. The signing key is
// derived once from the configured base64 secret and never regenerated.
type Service struct {
	secret []byte
}

// NewService builds a token service around the decoded signing secret.
func NewService(secret []byte) *Service {
	return &Service{secret: secret}
}

// Issue signs a token for the principal. Wallet, bank and client codes plus
// the optional device id and caller IP are copied into the claims at issuance
// time; the subject is immutable afterwards.
func (s *Service) Issue(p account.Principal, deviceID, ipAddress string, ttl time.Duration) (string, error) {
	if p.Mobile == "" {
		return "", errors.New("principal mobile number is required")
	}
	now := time.Now()
	claims := Claims{
		DeviceID:     deviceID,
		IPAddress:    ipAddress,
		WalletNumber: p.WalletNumber,
		BankCode:     p.BankCode,
		ClientCode:   p.ClientCode,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Mobile,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Valid reports whether the token parses, carries a valid signature, has not
// expired and names a non-empty subject. It fails closed: any parse or
// signature error yields false, never an error to the caller.
func (s *Service) Valid(tokenStr string) bool {
	claims, err := s.parse(tokenStr)
	if err != nil {
		return false
	}
	if claims.ExpiresAt == nil || !time.Now().Before(claims.ExpiresAt.Time) {
		return false
	}
	return claims.Subject != ""
}

// MatchesPrincipal re-parses the token and reports whether its subject names
// the given principal and the token is still live.
func (s *Service) MatchesPrincipal(tokenStr string, p account.Principal) bool {
	claims, err := s.parse(tokenStr)
	if err != nil {
		return false
	}
	if claims.ExpiresAt == nil || !time.Now().Before(claims.ExpiresAt.Time) {
		return false
	}
	return claims.Subject != "" && claims.Subject == p.Mobile
}

// ExtractClaim returns a single named claim value, or "" when the token does
// not verify or the claim is absent. Recognized names: sub, deviceId,
// ipAddress, walletNumber, bankCode, clientCode.
func (s *Service) ExtractClaim(tokenStr, name string) string {
	claims, err := s.parse(tokenStr)
	if err != nil {
		return ""
	}
	switch name {
	case "sub":
		return claims.Subject
	case "deviceId":
		return claims.DeviceID
	case "ipAddress":
		return claims.IPAddress
	case "walletNumber":
		return claims.WalletNumber
	case "bankCode":
		return claims.BankCode
	case "clientCode":
		return claims.ClientCode
	default:
		return ""
	}
}

func (s *Service) parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	return claims, nil
}
