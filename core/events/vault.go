package events

import "stakevault/core/types"

const (
	// TypeVaultCreated is emitted when a fresh zero-balance vault is registered.
	TypeVaultCreated = "vault.created"
	// TypeCollateralDeposited captures a join into the collateral balance.
	TypeCollateralDeposited = "vault.collateralDeposited"
	// TypeReserveDeposited captures a join into the reward reserve balance.
	TypeReserveDeposited = "vault.reserveDeposited"
	// TypeBorrowed is emitted when debt tokens are minted against collateral.
	TypeBorrowed = "vault.borrowed"
	// TypeRepaid is emitted when debt tokens are burned against outstanding debt.
	TypeRepaid = "vault.repaid"
	// TypeCollateralWithdrawn captures a release of collateral to the owner.
	TypeCollateralWithdrawn = "vault.collateralWithdrawn"
	// TypeRebalanced records a reserve-to-collateral transfer.
	TypeRebalanced = "vault.rebalanced"
	// TypeLiquidated records a health-checked seizure with bonus.
	TypeLiquidated = "vault.liquidated"
)

// VaultCreated records registration of a new vault for an owner.
type VaultCreated struct {
	Owner   [20]byte
	VaultID string
}

// EventType satisfies the Event interface.
func (VaultCreated) EventType() string { return TypeVaultCreated }

// Event converts the structured payload into a broadcastable event.
func (e VaultCreated) Event() *types.Event {
	return &types.Event{Type: TypeVaultCreated, Attributes: map[string]string{
		"owner":   formatAddress(e.Owner),
		"vaultId": e.VaultID,
	}}
}

// CollateralChanged captures deposits to and withdrawals from a vault balance.
type CollateralChanged struct {
	Type       string
	Caller     [20]byte
	VaultID    string
	Amount     uint64
	Collateral uint64
	Reserve    uint64
}

// EventType satisfies the Event interface.
func (e CollateralChanged) EventType() string { return e.Type }

// Event converts the structured payload into a broadcastable event.
func (e CollateralChanged) Event() *types.Event {
	return &types.Event{Type: e.Type, Attributes: map[string]string{
		"caller":     formatAddress(e.Caller),
		"vaultId":    e.VaultID,
		"amount":     formatAmount(e.Amount),
		"collateral": formatAmount(e.Collateral),
		"reserve":    formatAmount(e.Reserve),
	}}
}

// DebtChanged captures borrow and repay movements against a vault.
type DebtChanged struct {
	Type    string
	Caller  [20]byte
	VaultID string
	Amount  uint64
	Debt    uint64
}

// EventType satisfies the Event interface.
func (e DebtChanged) EventType() string { return e.Type }

// Event converts the structured payload into a broadcastable event.
func (e DebtChanged) Event() *types.Event {
	return &types.Event{Type: e.Type, Attributes: map[string]string{
		"caller":  formatAddress(e.Caller),
		"vaultId": e.VaultID,
		"amount":  formatAmount(e.Amount),
		"debt":    formatAmount(e.Debt),
	}}
}

// Rebalanced records a reserve-to-collateral transfer inside one vault.
type Rebalanced struct {
	VaultID    string
	Requested  uint64
	Moved      uint64
	Collateral uint64
	Reserve    uint64
}

// EventType satisfies the Event interface.
func (Rebalanced) EventType() string { return TypeRebalanced }

// Event converts the structured payload into a broadcastable event.
func (e Rebalanced) Event() *types.Event {
	return &types.Event{Type: TypeRebalanced, Attributes: map[string]string{
		"vaultId":    e.VaultID,
		"requested":  formatAmount(e.Requested),
		"moved":      formatAmount(e.Moved),
		"collateral": formatAmount(e.Collateral),
		"reserve":    formatAmount(e.Reserve),
	}}
}

// Liquidated records a liquidation: the repaid debt, the collateral seized
// with bonus, and the opaque external proof reference forwarded verbatim.
type Liquidated struct {
	VaultID          string
	Liquidator       [20]byte
	DebtBefore       uint64
	Repaid           uint64
	CollateralSeized uint64
	ProofRef         string
}

// EventType satisfies the Event interface.
func (Liquidated) EventType() string { return TypeLiquidated }

// Event converts the structured payload into a broadcastable event.
func (e Liquidated) Event() *types.Event {
	attrs := map[string]string{
		"vaultId":          e.VaultID,
		"liquidator":       formatAddress(e.Liquidator),
		"debtBefore":       formatAmount(e.DebtBefore),
		"repaid":           formatAmount(e.Repaid),
		"collateralSeized": formatAmount(e.CollateralSeized),
	}
	if e.ProofRef != "" {
		attrs["proofRef"] = e.ProofRef
	}
	return &types.Event{Type: TypeLiquidated, Attributes: attrs}
}
