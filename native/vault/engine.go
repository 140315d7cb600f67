// Package vault implements the collateral/debt ledger: per-owner vaults
// holding LST collateral, a reward reserve for automated top-ups, and SVUSD
// debt minted against the 70% borrow ceiling. Liquidation lives alongside in
// liquidation.go.
package vault

import (
	"bytes"
	"errors"
	"strings"

	"stakevault/core/events"
	"stakevault/core/types"
	"stakevault/crypto"
	nativecommon "stakevault/native/common"
	"stakevault/native/fixedmath"
)

var (
	// ErrNilState is returned before the engine is wired to persistence.
	ErrNilState = errors.New("vault engine: state not configured")
	// ErrVaultExists rejects a second vault creation for the same owner.
	ErrVaultExists = errors.New("vault engine: vault already exists for owner")
	// ErrVaultNotFound is returned when no vault is registered under the id.
	ErrVaultNotFound = errors.New("vault engine: vault not found")
	// ErrUnauthorized is returned when the caller is not the vault owner.
	ErrUnauthorized = errors.New("vault engine: caller is not the vault owner")
	// ErrInvalidAmount rejects zero amounts.
	ErrInvalidAmount = errors.New("vault engine: amount must be positive")
	// ErrBorrowTooHigh is returned when debt would exceed the LTV-derived
	// maximum after a borrow or collateral withdrawal.
	ErrBorrowTooHigh = errors.New("vault engine: debt would exceed borrow limit")
	// ErrInsufficientBalance is returned when the caller lacks the tokens an
	// operation consumes.
	ErrInsufficientBalance = errors.New("vault engine: insufficient balance")
	// ErrRepayExceedsDebt rejects repayments larger than the outstanding debt.
	ErrRepayExceedsDebt = errors.New("vault engine: repayment exceeds outstanding debt")
	// ErrInsufficientCollateral is returned when a seizure exceeds the vault's
	// holdings or the collateral value cannot be computed at a zero price.
	ErrInsufficientCollateral = errors.New("vault engine: insufficient collateral")
	// ErrNotLiquidatable is returned when liquidation targets a healthy vault.
	ErrNotLiquidatable = errors.New("vault engine: position not eligible for liquidation")
)

// Risk limits, in basis points. The borrow ceiling is deliberately below the
// liquidation threshold so healthy positions have headroom before seizure.
const (
	MaxBorrowLTVBps         uint64 = 7_000
	LiquidationThresholdBps uint64 = 8_000
	LiquidationBonusBps     uint64 = 500
)

const moduleName = "vault"

// CollateralAsset is the asset symbol vault collateral is denominated in.
const CollateralAsset = types.AssetLST

type engineState interface {
	GetVault(vaultID string) (*Vault, error)
	PutVault(vaultID string, v *Vault) error
	GetBank() (*Bank, error)
	PutBank(bank *Bank) error
	GetAccount(addr crypto.Address) (*types.Account, error)
	PutAccount(addr crypto.Address, account *types.Account) error
}

// PriceSource exposes the price lookup the risk checks consume. A zero price
// is a valid answer and must be handled by the caller.
type PriceSource interface {
	Price(asset string) uint64
}

// Engine orchestrates vault state transitions and debt issuance.
type Engine struct {
	state   engineState
	prices  PriceSource
	emitter events.Emitter
	pauses  nativecommon.PauseView
}

// NewEngine constructs a vault engine with a no-op emitter.
func NewEngine(prices PriceSource) *Engine {
	return &Engine{prices: prices, emitter: events.NoopEmitter{}}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetPauses wires the pause view consulted before mutations.
func (e *Engine) SetPauses(p nativecommon.PauseView) { e.pauses = p }

// CreateVault registers a fresh zero-balance vault for the owner. The vault
// identifier is the owner's bech32 address; a second creation is rejected.
func (e *Engine) CreateVault(owner crypto.Address) (*Vault, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	vaultID := owner.String()
	existing, err := e.state.GetVault(vaultID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrVaultExists
	}
	v := &Vault{Owner: append([]byte(nil), owner.Bytes()...)}
	if err := e.state.PutVault(vaultID, v); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.VaultCreated{Owner: addressBytes(owner), VaultID: vaultID})
	return v.Clone(), nil
}

// DepositCollateral joins LST into the vault's collateral balance. Callable
// by anyone holding the tokens, consistent with third parties topping up on
// an owner's behalf.
func (e *Engine) DepositCollateral(caller crypto.Address, vaultID string, amount uint64) error {
	return e.deposit(caller, vaultID, amount, false)
}

// DepositToReserve joins LST into the separate reward reserve used
// exclusively by the rebalance authority.
func (e *Engine) DepositToReserve(caller crypto.Address, vaultID string, amount uint64) error {
	return e.deposit(caller, vaultID, amount, true)
}

func (e *Engine) deposit(caller crypto.Address, vaultID string, amount uint64, toReserve bool) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if amount == 0 {
		return ErrInvalidAmount
	}
	v, err := e.requireVault(vaultID)
	if err != nil {
		return err
	}
	account, err := e.state.GetAccount(caller)
	if err != nil {
		return err
	}
	if account.BalanceLST < amount {
		return ErrInsufficientBalance
	}
	account.BalanceLST -= amount
	eventType := events.TypeCollateralDeposited
	if toReserve {
		v.RewardReserve = fixedmath.SatAdd(v.RewardReserve, amount)
		eventType = events.TypeReserveDeposited
	} else {
		v.Collateral = fixedmath.SatAdd(v.Collateral, amount)
	}
	if err := e.state.PutAccount(caller, account); err != nil {
		return err
	}
	if err := e.state.PutVault(vaultID, v); err != nil {
		return err
	}
	e.emitter.Emit(events.CollateralChanged{
		Type:       eventType,
		Caller:     addressBytes(caller),
		VaultID:    vaultID,
		Amount:     amount,
		Collateral: v.Collateral,
		Reserve:    v.RewardReserve,
	})
	return nil
}

// PauseGuard reports whether vault mutations are currently allowed.
// Composite operations consult it before committing changes in other modules.
func (e *Engine) PauseGuard() error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	return nativecommon.Guard(e.pauses, moduleName)
}

// CreditReserve joins freshly minted LST directly into the vault reserve
// without debiting any account. Invoked by the rebalance authority after a
// capability-scoped reward claim.
func (e *Engine) CreditReserve(vaultID string, amount uint64) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if amount == 0 {
		return ErrInvalidAmount
	}
	v, err := e.requireVault(vaultID)
	if err != nil {
		return err
	}
	v.RewardReserve = fixedmath.SatAdd(v.RewardReserve, amount)
	if err := e.state.PutVault(vaultID, v); err != nil {
		return err
	}
	e.emitter.Emit(events.CollateralChanged{
		Type:       events.TypeReserveDeposited,
		Caller:     ownerBytes(v),
		VaultID:    vaultID,
		Amount:     amount,
		Collateral: v.Collateral,
		Reserve:    v.RewardReserve,
	})
	return nil
}

// Borrow mints SVUSD to the vault owner after checking the resulting debt
// stays at or below the 70% loan-to-value ceiling. The whole operation is
// rejected on violation, no partial mint occurs.
func (e *Engine) Borrow(caller crypto.Address, vaultID string, amount uint64) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if amount == 0 {
		return ErrInvalidAmount
	}
	v, err := e.requireVault(vaultID)
	if err != nil {
		return err
	}
	if !isOwner(v, caller) {
		return ErrUnauthorized
	}

	newDebt := fixedmath.SatAdd(v.Debt, amount)
	value := e.collateralValue(v.Collateral)
	if newDebt > fixedmath.MaxBorrow(value, MaxBorrowLTVBps) {
		return ErrBorrowTooHigh
	}

	bank, err := e.state.GetBank()
	if err != nil {
		return err
	}
	account, err := e.state.GetAccount(caller)
	if err != nil {
		return err
	}

	v.Debt = newDebt
	bank.TotalIssued = fixedmath.SatAdd(bank.TotalIssued, amount)
	account.BalanceSVUSD = fixedmath.SatAdd(account.BalanceSVUSD, amount)

	if err := e.state.PutAccount(caller, account); err != nil {
		return err
	}
	if err := e.state.PutBank(bank); err != nil {
		return err
	}
	if err := e.state.PutVault(vaultID, v); err != nil {
		return err
	}
	e.emitter.Emit(events.DebtChanged{
		Type:    events.TypeBorrowed,
		Caller:  addressBytes(caller),
		VaultID: vaultID,
		Amount:  amount,
		Debt:    v.Debt,
	})
	return nil
}

// Repay burns SVUSD from the caller against the vault's outstanding debt.
// Anyone may repay; payments above the outstanding debt are rejected.
func (e *Engine) Repay(caller crypto.Address, vaultID string, amount uint64) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if amount == 0 {
		return ErrInvalidAmount
	}
	v, err := e.requireVault(vaultID)
	if err != nil {
		return err
	}
	if amount > v.Debt {
		return ErrRepayExceedsDebt
	}
	account, err := e.state.GetAccount(caller)
	if err != nil {
		return err
	}
	if account.BalanceSVUSD < amount {
		return ErrInsufficientBalance
	}
	bank, err := e.state.GetBank()
	if err != nil {
		return err
	}

	account.BalanceSVUSD -= amount
	v.Debt -= amount
	if bank.TotalIssued >= amount {
		bank.TotalIssued -= amount
	} else {
		bank.TotalIssued = 0
	}

	if err := e.state.PutAccount(caller, account); err != nil {
		return err
	}
	if err := e.state.PutBank(bank); err != nil {
		return err
	}
	if err := e.state.PutVault(vaultID, v); err != nil {
		return err
	}
	e.emitter.Emit(events.DebtChanged{
		Type:    events.TypeRepaid,
		Caller:  addressBytes(caller),
		VaultID: vaultID,
		Amount:  amount,
		Debt:    v.Debt,
	})
	return nil
}

// WithdrawCollateral releases LST back to the owner provided the remaining
// collateral still supports the outstanding debt at the borrow ceiling.
func (e *Engine) WithdrawCollateral(caller crypto.Address, vaultID string, amount uint64) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if amount == 0 {
		return ErrInvalidAmount
	}
	v, err := e.requireVault(vaultID)
	if err != nil {
		return err
	}
	if !isOwner(v, caller) {
		return ErrUnauthorized
	}
	if v.Collateral < amount {
		return ErrInsufficientBalance
	}

	remaining := v.Collateral - amount
	if v.Debt > fixedmath.MaxBorrow(e.collateralValue(remaining), MaxBorrowLTVBps) {
		return ErrBorrowTooHigh
	}

	account, err := e.state.GetAccount(caller)
	if err != nil {
		return err
	}
	v.Collateral = remaining
	account.BalanceLST = fixedmath.SatAdd(account.BalanceLST, amount)

	if err := e.state.PutAccount(caller, account); err != nil {
		return err
	}
	if err := e.state.PutVault(vaultID, v); err != nil {
		return err
	}
	e.emitter.Emit(events.CollateralChanged{
		Type:       events.TypeCollateralWithdrawn,
		Caller:     addressBytes(caller),
		VaultID:    vaultID,
		Amount:     amount,
		Collateral: v.Collateral,
		Reserve:    v.RewardReserve,
	})
	return nil
}

// AddCollateralFromReserve moves min(requested, reserve) from the reward
// reserve into collateral and returns the amount actually moved. It never
// moves more than is available, which caps every automated rebalance.
func (e *Engine) AddCollateralFromReserve(vaultID string, requested uint64) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return 0, err
	}
	v, err := e.requireVault(vaultID)
	if err != nil {
		return 0, err
	}
	moved := requested
	if moved > v.RewardReserve {
		moved = v.RewardReserve
	}
	if moved == 0 {
		return 0, nil
	}
	v.RewardReserve -= moved
	v.Collateral = fixedmath.SatAdd(v.Collateral, moved)
	if err := e.state.PutVault(vaultID, v); err != nil {
		return 0, err
	}
	e.emitter.Emit(events.Rebalanced{
		VaultID:    vaultID,
		Requested:  requested,
		Moved:      moved,
		Collateral: v.Collateral,
		Reserve:    v.RewardReserve,
	})
	return moved, nil
}

// Vault returns a copy of the vault registered under the identifier.
func (e *Engine) Vault(vaultID string) (*Vault, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	v, err := e.requireVault(vaultID)
	if err != nil {
		return nil, err
	}
	return v.Clone(), nil
}

// BankState returns a copy of the global issuance tally.
func (e *Engine) BankState() (*Bank, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	bank, err := e.state.GetBank()
	if err != nil {
		return nil, err
	}
	return bank.Clone(), nil
}

// CollateralPrice exposes the current collateral price for callers computing
// risk outside the engine (e.g. the rebalance authority).
func (e *Engine) CollateralPrice() uint64 {
	if e == nil || e.prices == nil {
		return 0
	}
	return e.prices.Price(CollateralAsset)
}

func (e *Engine) collateralValue(collateral uint64) uint64 {
	if e.prices == nil {
		return 0
	}
	return fixedmath.CollateralValue(collateral, e.prices.Price(CollateralAsset))
}

func (e *Engine) requireVault(vaultID string) (*Vault, error) {
	id := strings.TrimSpace(vaultID)
	if id == "" {
		return nil, ErrVaultNotFound
	}
	v, err := e.state.GetVault(id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, ErrVaultNotFound
	}
	return v, nil
}

func isOwner(v *Vault, caller crypto.Address) bool {
	return v != nil && bytes.Equal(v.Owner, caller.Bytes())
}

func addressBytes(addr crypto.Address) [20]byte {
	var out [20]byte
	copy(out[:], addr.Bytes())
	return out
}

func ownerBytes(v *Vault) [20]byte {
	var out [20]byte
	copy(out[:], v.Owner)
	return out
}
