package types

// Asset symbols tracked by the ledger. Every balance, price and pool is keyed
// by one of these identifiers.
const (
	// AssetSTK is the underlying stakeable asset.
	AssetSTK = "STK"
	// AssetLST is the liquid-staking receipt minted 1:1 against staked STK.
	AssetLST = "LST"
	// AssetSVUSD is the stable debt unit minted against LST collateral.
	AssetSVUSD = "SVUSD"
)

// Account tracks the spendable token balances for a single address. All
// amounts are fixed-point integers scaled by 1e9.
type Account struct {
	BalanceSTK   uint64
	BalanceLST   uint64
	BalanceSVUSD uint64
	Nonce        uint64
}

// Clone returns a copy of the account safe for independent mutation.
func (a *Account) Clone() *Account {
	if a == nil {
		return &Account{}
	}
	cloned := *a
	return &cloned
}
