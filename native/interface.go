package native

import "context"

// Txn is the mutating surface of the token service, valid inside one
// Update call. Methods return the service's result code; they never mutate
// anything when the surrounding Update returns an error.
type Txn interface {
	CreateCollection(cfg *CollectionConfig) (Code, Address)

	Mint(token Address, metadata [][]byte) (Code, []int64)
	Burn(token Address, serials []int64) Code
	TransferFrom(token Address, from, to Address, serial int64) Code

	GrantKYC(token, account Address) Code
	RevokeKYC(token, account Address) Code
	Freeze(token, account Address) Code
	Unfreeze(token, account Address) Code
	Pause(token Address) Code
	Unpause(token Address) Code
	Wipe(token, account Address, serials []int64) Code
	UpdateKeys(token Address, keys []Key) Code
	UpdateRoyalties(token Address, fees []RoyaltyFee) Code
	Delete(token Address) Code

	OwnerOf(token Address, serial int64) (Address, error)
}

// Service is the host ledger's token issuance facility. Update runs fn as the
// given caller inside one host transaction: if fn returns an error, every
// effect of the transaction is discarded. The read methods query the standard
// token surface of an already created collection.
type Service interface {
	Update(ctx context.Context, caller Address, fn func(Txn) error) error

	OwnerOf(ctx context.Context, token Address, serial int64) (Address, error)
	BalanceOf(ctx context.Context, token, account Address) (int64, error)
	GetApproved(ctx context.Context, token Address, serial int64) (Address, error)
	IsApprovedForAll(ctx context.Context, token Address, owner, operator Address) (bool, error)
}

// Randomness is the host's randomness facility. There is no fallback source;
// callers abort when Seed fails.
type Randomness interface {
	Seed(ctx context.Context) ([32]byte, error)
}
