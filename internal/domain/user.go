package domain

import "time"

// User is a wallet owner. Users are issued by the identity subsystem; this
// service only reads them and attaches wallets.
type User struct {
	ID        string
	Username  string
	CreatedAt time.Time
	Wallets   []Wallet
}

// WalletFor returns the user's wallet in the given currency, if any.
func (u User) WalletFor(currency string) (Wallet, bool) {
	for _, w := range u.Wallets {
		if w.Currency == currency {
			return w, true
		}
	}
	return Wallet{}, false
}
