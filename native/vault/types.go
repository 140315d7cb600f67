package vault

import "stakevault/crypto"

// Vault maintains the collateralized-debt position for one owner. One vault
// exists per owner; its identifier is the owner's bech32 address. Amounts
// are fixed-point integers scaled by 1e9.
type Vault struct {
	// Owner is the raw 20-byte address of the vault owner.
	Owner []byte
	// Collateral is the LST balance pledged against debt.
	Collateral uint64
	// Debt is the outstanding SVUSD amount.
	Debt uint64
	// RewardReserve is the separate LST balance earmarked for automated
	// top-ups. Only the rebalance authority moves it into collateral.
	RewardReserve uint64
}

// ID renders the vault identifier derived from the owner address.
func (v *Vault) ID() string {
	if v == nil || len(v.Owner) == 0 {
		return ""
	}
	return crypto.MustNewAddress(crypto.AccountPrefix, v.Owner).String()
}

// Clone returns a deep copy of the vault.
func (v *Vault) Clone() *Vault {
	if v == nil {
		return nil
	}
	cloned := *v
	cloned.Owner = append([]byte(nil), v.Owner...)
	return &cloned
}

// Bank tracks the global SVUSD issuance. Borrowing mints against it, repay
// and liquidation burn.
type Bank struct {
	TotalIssued uint64
}

// Clone returns a copy of the bank state.
func (b *Bank) Clone() *Bank {
	if b == nil {
		return &Bank{}
	}
	cloned := *b
	return &cloned
}
