package testing

import "github.com/LeJamon/cpamm/internal/core/ledger"

// Well-known test accounts.
const (
	Alice    ledger.AccountID = "alice"
	Bob      ledger.AccountID = "bob"
	Carol    ledger.AccountID = "carol"
	Admin    ledger.AccountID = "admin"
	Treasury ledger.AccountID = "treasury"
	Referrer ledger.AccountID = "referrer"
	Payout   ledger.AccountID = "payout"
)

// Well-known test assets.
const (
	X   ledger.AssetID = "X"
	Y   ledger.AssetID = "Y"
	USD ledger.AssetID = "USD"
	EUR ledger.AssetID = "EUR"
)
