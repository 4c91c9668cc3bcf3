package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/moba-pay/moba_wallet/internal/account"
	"github.com/moba-pay/moba_wallet/internal/pincrypto"
	"github.com/moba-pay/moba_wallet/internal/security"
	"github.com/moba-pay/moba_wallet/internal/token"
)

const otpTTL = 5 * time.Minute

var (
	// ErrInvalidCredentials covers unknown mobile numbers and wrong PINs;
	// callers must not distinguish the two.
	ErrInvalidCredentials = errors.New("invalid mobile number or PIN")
	// ErrAccountBlocked rejects login for blocked accounts.
	ErrAccountBlocked = errors.New("account is blocked")
	// ErrOTPUnavailable is returned when no OTP backend is configured.
	ErrOTPUnavailable = errors.New("otp verification unavailable")
)

// Service authenticates customers and issues access tokens. PIN verification
// uses the legacy digest convention so existing stored values keep working.
type Service struct {
	accounts account.Repository
	tokens   *token.Service
	tokenTTL time.Duration
	otps     *redis.Client
}

// NewService builds the auth service. The Redis client may be nil, which
// disables OTP flows.
func NewService(accounts account.Repository, tokens *token.Service, tokenTTL time.Duration, otps *redis.Client) *Service {
	return &Service{accounts: accounts, tokens: tokens, tokenTTL: tokenTTL, otps: otps}
}

// Session is the result of a successful login.
type Session struct {
	AccessToken  string
	ExpiresIn    int64
	Mobile       string
	WalletNumber string
}

// Login verifies the legacy PIN digest for the account and issues a token
// carrying the caller's device id and IP.
func (s *Service) Login(ctx context.Context, mobile, pin, deviceID, ipAddress string) (Session, error) {
	acc, err := s.accounts.FindByMobile(ctx, mobile)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}

	if pincrypto.HashPin(pin, acc.WalletNumber) != acc.PinDigest {
		return Session{}, ErrInvalidCredentials
	}

	if acc.Blocked {
		return Session{}, ErrAccountBlocked
	}

	tok, err := s.tokens.Issue(account.NewPrincipal(acc), deviceID, ipAddress, s.tokenTTL)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}

	return Session{
		AccessToken:  tok,
		ExpiresIn:    int64(s.tokenTTL.Seconds()),
		Mobile:       acc.Mobile,
		WalletNumber: acc.WalletNumber,
	}, nil
}

// RequestOTP generates a short-lived one-time code for the mobile number and
// stores it in Redis. Delivery (SMS) is an external collaborator; the code is
// returned so the caller can hand it to the gateway.
func (s *Service) RequestOTP(ctx context.Context, mobile string) (string, error) {
	if s.otps == nil {
		return "", ErrOTPUnavailable
	}
	if _, err := s.accounts.FindByMobile(ctx, mobile); err != nil {
		return "", err
	}

	code, err := randomDigits(6)
	if err != nil {
		return "", err
	}
	if err := s.otps.Set(ctx, otpKey(mobile), code, otpTTL).Err(); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}
	return code, nil
}

// VerifyOTP checks the submitted code and, on success, consumes it and
// returns an opaque verification token for the follow-up step.
func (s *Service) VerifyOTP(ctx context.Context, mobile, code string) (string, error) {
	if s.otps == nil {
		return "", ErrOTPUnavailable
	}

	stored, err := s.otps.Get(ctx, otpKey(mobile)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", errors.New("otp expired or not requested")
		}
		return "", fmt.Errorf("load otp: %w", err)
	}
	if stored != code {
		return "", errors.New("otp mismatch")
	}

	s.otps.Del(ctx, otpKey(mobile)) // single use
	return security.GenerateSecureToken(), nil
}

func otpKey(mobile string) string {
	return "otp:v1:" + mobile
}

func randomDigits(n int) (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
	v, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", n, v), nil
}
