package account

import "time"

// Account represents a registered wallet customer as stored by the account
// system of record.
type Account struct {
	ID           string
	Mobile       string
	WalletNumber string
	BankCode     string
	ClientCode   string
	Role         string
	Blocked      bool
	PinDigest    string
	AnswerHash   string
	AnswerSalt   string
	CreatedAt    time.Time
}

// Principal is the authenticated identity bound to a single request. It is
// built fresh from the account record on every authentication pass and never
// persisted.
type Principal struct {
	Mobile       string
	WalletNumber string
	BankCode     string
	ClientCode   string
	Role         string
	Blocked      bool
}

// NewPrincipal derives the request principal from an account record.
func NewPrincipal(a Account) Principal {
	return Principal{
		Mobile:       a.Mobile,
		WalletNumber: a.WalletNumber,
		BankCode:     a.BankCode,
		ClientCode:   a.ClientCode,
		Role:         a.Role,
		Blocked:      a.Blocked,
	}
}

// Enabled reports whether the principal may act. An account is enabled
// exactly when it is not blocked.
func (p Principal) Enabled() bool {
	return !p.Blocked
}
