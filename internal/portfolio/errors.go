package portfolio

import "errors"

var (
	// ErrInvalidName is returned when a wallet name is not 2-20 characters.
	ErrInvalidName = errors.New("portfolio: wallet name must be 2-20 characters")

	// ErrWalletExists is returned when the user already has a wallet of
	// that name (names are case-insensitive per user).
	ErrWalletExists = errors.New("portfolio: wallet already exists")

	// ErrWalletNotFound is returned when the named wallet does not exist
	// for the user.
	ErrWalletNotFound = errors.New("portfolio: wallet not found")

	// ErrCoinNotFound is returned when the coin query resolves to nothing,
	// or the wallet holds no position for it.
	ErrCoinNotFound = errors.New("portfolio: coin not found")

	// ErrInvalidAmount is returned when an amount is zero or negative.
	ErrInvalidAmount = errors.New("portfolio: amount must be positive")

	// ErrInvalidPrice is returned when a price is zero or negative.
	ErrInvalidPrice = errors.New("portfolio: price must be positive")

	// ErrInsufficientHoldings is returned when a sell exceeds the current
	// holding. The position is left untouched.
	ErrInsufficientHoldings = errors.New("portfolio: insufficient holdings")
)
