package wallet

import "time"

// Wallet represents a stored-value account held by a customer at an issuing bank.
type Wallet struct {
	ID           string
	OwnerMobile  string
	WalletNumber string
	BankCode     string
	Status       string
	CreatedAt    time.Time
}

// Wallet status values.
const (
	StatusActive = "active"
	StatusClosed = "closed"
)
