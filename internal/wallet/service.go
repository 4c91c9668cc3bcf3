package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/moba-pay/moba_wallet/internal/account"
	"github.com/moba-pay/moba_wallet/internal/legacyswitch"
	"github.com/moba-pay/moba_wallet/internal/pincrypto"
	"github.com/moba-pay/moba_wallet/internal/security"
)

var (
	// ErrWrongPin rejects a PIN change whose current PIN does not match.
	ErrWrongPin = errors.New("current PIN is incorrect")
	// ErrWeakPin rejects trivially guessable replacement PINs.
	ErrWeakPin = errors.New("PIN must be 4-6 digits and not a trivial sequence")
	// ErrWrongAnswer rejects a secret-question listing with a bad answer.
	ErrWrongAnswer = errors.New("security answer does not match")
)

// Service manages wallet metadata and the PIN-change flow, which is the one
// place PIN material crosses into the legacy switch.
type Service struct {
	repo      Repository
	accounts  account.Repository
	pins      *pincrypto.Service
	forwarder legacyswitch.PinForwarder
}

// NewService builds the wallet service.
func NewService(repo Repository, accounts account.Repository, pins *pincrypto.Service, forwarder legacyswitch.PinForwarder) *Service {
	return &Service{repo: repo, accounts: accounts, pins: pins, forwarder: forwarder}
}

// Open creates the active wallet for a freshly registered account.
func (s *Service) Open(ctx context.Context, acc account.Account) error {
	return s.repo.Create(ctx, Wallet{
		ID:           uuid.New().String(),
		OwnerMobile:  acc.Mobile,
		WalletNumber: acc.WalletNumber,
		BankCode:     acc.BankCode,
		Status:       StatusActive,
		CreatedAt:    time.Now().UTC(),
	})
}

// ListByMobile returns the wallets owned by a mobile number.
func (s *Service) ListByMobile(ctx context.Context, mobile string) ([]Wallet, error) {
	return s.repo.FindByOwner(ctx, mobile)
}

// ListBySecretAnswer lists wallets for an unauthenticated caller who proves
// ownership with the account's security answer.
func (s *Service) ListBySecretAnswer(ctx context.Context, mobile, answer string) ([]Wallet, error) {
	acc, err := s.accounts.FindByMobile(ctx, mobile)
	if err != nil {
		return nil, err
	}
	if !security.VerifySecurityAnswer(answer, acc.AnswerHash, acc.AnswerSalt) {
		return nil, ErrWrongAnswer
	}
	return s.repo.FindByOwner(ctx, mobile)
}

// ChangePin verifies the current PIN against the stored legacy digest, stores
// the new digest, and hands the encrypted new PIN to the legacy switch. The
// crypto stage failing aborts the change; it signals a configuration problem
// and is never retried here.
func (s *Service) ChangePin(ctx context.Context, mobile, currentPin, newPin string) error {
	acc, err := s.accounts.FindByMobile(ctx, mobile)
	if err != nil {
		return err
	}

	if pincrypto.HashPin(currentPin, acc.WalletNumber) != acc.PinDigest {
		return ErrWrongPin
	}
	if !security.ValidPin(newPin) {
		return ErrWeakPin
	}

	payload, err := s.pins.EncryptPin(ctx, newPin, acc.BankCode)
	if err != nil {
		return fmt.Errorf("encrypt pin for bank %s: %w", acc.BankCode, err)
	}

	if err := s.accounts.UpdatePinDigest(ctx, mobile, pincrypto.HashPin(newPin, acc.WalletNumber)); err != nil {
		return fmt.Errorf("store pin digest: %w", err)
	}

	if err := s.forwarder.ForwardPin(ctx, acc.BankCode, payload); err != nil {
		return fmt.Errorf("forward pin payload: %w", err)
	}
	return nil
}
