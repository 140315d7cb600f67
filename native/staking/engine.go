// Package staking implements the reward accrual ledger: share-based staking
// pools, per-owner positions, interval-quantized reward accrual and the
// auto-rebalance opt-in flag consumed by the rebalance authority.
package staking

import (
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
	ErrNilState = errors.New("staking engine: state not configured")
	// ErrPoolExists rejects a second initialisation for the same asset.
	ErrPoolExists = errors.New("staking engine: pool already initialised")
	// ErrPoolNotFound is returned when no pool exists for the asset.
	ErrPoolNotFound = errors.New("staking engine: pool not initialised")
	// ErrPositionNotFound is returned when the caller holds no position.
	ErrPositionNotFound = errors.New("staking engine: position not found")
	// ErrInvalidAmount rejects zero amounts.
	ErrInvalidAmount = errors.New("staking engine: amount must be positive")
	// ErrInvalidInterval rejects pools with a zero accrual interval.
	ErrInvalidInterval = errors.New("staking engine: reward interval must be positive")
	// ErrInsufficientShares is returned when a redemption exceeds the tracked
	// share balance.
	ErrInsufficientShares = errors.New("staking engine: insufficient shares")
	// ErrInsufficientBalance is returned when the caller lacks the tokens an
	// operation consumes.
	ErrInsufficientBalance = errors.New("staking engine: insufficient balance")
	// ErrVaultIDRequired rejects auto-rebalance opt-in without a vault link.
	ErrVaultIDRequired = errors.New("staking engine: vault id required")
)

const moduleName = "staking"

type engineState interface {
	GetPool(asset string) (*Pool, error)
	PutPool(pool *Pool) error
	GetPosition(asset string, owner crypto.Address) (*Position, error)
	PutPosition(asset string, position *Position) error
	GetAccount(addr crypto.Address) (*types.Account, error)
	PutAccount(addr crypto.Address, account *types.Account) error
}

// Engine orchestrates the staking state transitions. Shares are issued 1:1
// against the staked amount; the liquid receipt (LST) is minted alongside and
// burned on redemption.
type Engine struct {
	state   engineState
	emitter events.Emitter
	pauses  nativecommon.PauseView
}

// NewEngine constructs a staking engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
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

// InitPool creates the staking pool for an asset. One pool exists per asset;
// a second initialisation is rejected.
func (e *Engine) InitPool(asset string, ratePerInterval, intervalMs, now uint64) (*Pool, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	symbol := strings.ToUpper(strings.TrimSpace(asset))
	if symbol == "" {
		return nil, ErrPoolNotFound
	}
	if intervalMs == 0 {
		return nil, ErrInvalidInterval
	}
	existing, err := e.state.GetPool(symbol)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrPoolExists
	}
	pool := &Pool{
		Asset:                 symbol,
		RewardRatePerInterval: ratePerInterval,
		RewardIntervalMs:      intervalMs,
		LastRewardTimeMs:      now,
	}
	if err := e.state.PutPool(pool); err != nil {
		return nil, err
	}
	return pool.Clone(), nil
}

// accruePool advances pool-level reward accrual by whole elapsed intervals.
// Timestamps at or before the last accrual are a no-op, guarding against
// clock regression. Partial intervals carry forward: LastRewardTimeMs only
// ever advances by whole interval multiples.
func accruePool(pool *Pool, now uint64) {
	if pool == nil || pool.RewardIntervalMs == 0 || now <= pool.LastRewardTimeMs {
		return
	}
	intervals := (now - pool.LastRewardTimeMs) / pool.RewardIntervalMs
	if intervals == 0 {
		return
	}
	reward := fixedmath.IntervalReward(pool.TotalShares, pool.RewardRatePerInterval, intervals)
	pool.TotalRewards = fixedmath.SatAdd(pool.TotalRewards, reward)
	pool.LastRewardTimeMs += intervals * pool.RewardIntervalMs
}

// settlePosition folds the position's whole-interval accrual into its pending
// balance so share changes never lose accrued-but-unclaimed rewards.
func settlePosition(pool *Pool, position *Position, now uint64) {
	if pool == nil || position == nil || pool.RewardIntervalMs == 0 {
		return
	}
	if now <= position.LastClaimTimeMs {
		return
	}
	intervals := (now - position.LastClaimTimeMs) / pool.RewardIntervalMs
	if intervals == 0 {
		return
	}
	reward := fixedmath.IntervalReward(position.Shares, pool.RewardRatePerInterval, intervals)
	position.PendingRewards = fixedmath.SatAdd(position.PendingRewards, reward)
	position.LastClaimTimeMs += intervals * pool.RewardIntervalMs
}

// Stake joins the caller's underlying balance into the pool, issues shares
// 1:1 and mints the liquid receipt to the caller.
func (e *Engine) Stake(caller crypto.Address, asset string, amount, now uint64) (*Position, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if amount == 0 {
		return nil, ErrInvalidAmount
	}
	pool, err := e.requirePool(asset)
	if err != nil {
		return nil, err
	}
	accruePool(pool, now)

	account, err := e.state.GetAccount(caller)
	if err != nil {
		return nil, err
	}
	if account.BalanceSTK < amount {
		return nil, ErrInsufficientBalance
	}

	position, err := e.state.GetPosition(pool.Asset, caller)
	if err != nil {
		return nil, err
	}
	if position == nil {
		position = &Position{
			Owner:           append([]byte(nil), caller.Bytes()...),
			Asset:           pool.Asset,
			LastClaimTimeMs: now,
		}
	} else {
		settlePosition(pool, position, now)
	}
	position.Shares = fixedmath.SatAdd(position.Shares, amount)

	pool.TotalStaked = fixedmath.SatAdd(pool.TotalStaked, amount)
	pool.TotalShares = fixedmath.SatAdd(pool.TotalShares, amount)

	account.BalanceSTK -= amount
	account.BalanceLST = fixedmath.SatAdd(account.BalanceLST, amount)

	if err := e.state.PutAccount(caller, account); err != nil {
		return nil, err
	}
	if err := e.state.PutPosition(pool.Asset, position); err != nil {
		return nil, err
	}
	if err := e.state.PutPool(pool); err != nil {
		return nil, err
	}

	e.emitter.Emit(events.Staked{
		Owner:       addressBytes(caller),
		Asset:       pool.Asset,
		Amount:      amount,
		SharesAdded: amount,
		NewShares:   position.Shares,
		TotalShares: pool.TotalShares,
	})
	return position.Clone(), nil
}

// Unstake settles pending rewards, burns the caller's receipt tokens and
// releases the corresponding underlying amount back to them.
func (e *Engine) Unstake(caller crypto.Address, asset string, receiptAmount, now uint64) (*Position, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if receiptAmount == 0 {
		return nil, ErrInvalidAmount
	}
	pool, err := e.requirePool(asset)
	if err != nil {
		return nil, err
	}
	accruePool(pool, now)

	position, err := e.state.GetPosition(pool.Asset, caller)
	if err != nil {
		return nil, err
	}
	if position == nil {
		return nil, ErrPositionNotFound
	}
	settlePosition(pool, position, now)

	if position.Shares < receiptAmount || pool.TotalShares < receiptAmount {
		return nil, ErrInsufficientShares
	}

	account, err := e.state.GetAccount(caller)
	if err != nil {
		return nil, err
	}
	if account.BalanceLST < receiptAmount {
		return nil, ErrInsufficientBalance
	}
	if pool.TotalStaked < receiptAmount {
		return nil, ErrInsufficientBalance
	}

	position.Shares -= receiptAmount
	pool.TotalShares -= receiptAmount
	pool.TotalStaked -= receiptAmount
	account.BalanceLST -= receiptAmount
	account.BalanceSTK = fixedmath.SatAdd(account.BalanceSTK, receiptAmount)

	if err := e.state.PutAccount(caller, account); err != nil {
		return nil, err
	}
	if err := e.state.PutPosition(pool.Asset, position); err != nil {
		return nil, err
	}
	if err := e.state.PutPool(pool); err != nil {
		return nil, err
	}

	e.emitter.Emit(events.Unstaked{
		Owner:         addressBytes(caller),
		Asset:         pool.Asset,
		Amount:        receiptAmount,
		SharesRemoved: receiptAmount,
		NewShares:     position.Shares,
		TotalShares:   pool.TotalShares,
	})
	return position.Clone(), nil
}

// ClaimRewards settles and pays out the position's accrued rewards as freshly
// minted receipt tokens credited to the owner. Claiming zero is a no-op.
func (e *Engine) ClaimRewards(caller crypto.Address, asset string, now uint64) (uint64, error) {
	return e.claim(caller, asset, now, false)
}

// ClaimRewardsTo settles the position like ClaimRewards but returns the
// claimed amount to the invoking automation instead of crediting the owner's
// account. The rebalance authority deposits it into the vault reserve.
func (e *Engine) ClaimRewardsTo(owner crypto.Address, asset string, now uint64) (uint64, error) {
	return e.claim(owner, asset, now, true)
}

func (e *Engine) claim(owner crypto.Address, asset string, now uint64, toReserve bool) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return 0, err
	}
	pool, err := e.requirePool(asset)
	if err != nil {
		return 0, err
	}
	accruePool(pool, now)

	position, err := e.state.GetPosition(pool.Asset, owner)
	if err != nil {
		return 0, err
	}
	if position == nil {
		return 0, ErrPositionNotFound
	}
	settlePosition(pool, position, now)

	claimed := position.PendingRewards
	if claimed == 0 {
		// Nothing owed: persist pool accrual but mint no zero-value unit and
		// leave the partial-interval progress intact.
		if err := e.state.PutPool(pool); err != nil {
			return 0, err
		}
		return 0, nil
	}

	position.PendingRewards = 0
	position.LastClaimTimeMs = now

	if !toReserve {
		account, err := e.state.GetAccount(owner)
		if err != nil {
			return 0, err
		}
		account.BalanceLST = fixedmath.SatAdd(account.BalanceLST, claimed)
		if err := e.state.PutAccount(owner, account); err != nil {
			return 0, err
		}
	}
	if err := e.state.PutPosition(pool.Asset, position); err != nil {
		return 0, err
	}
	if err := e.state.PutPool(pool); err != nil {
		return 0, err
	}

	e.emitter.Emit(events.RewardsClaimed{
		Owner:       addressBytes(owner),
		Asset:       pool.Asset,
		Paid:        claimed,
		ClaimTimeMs: now,
		ToReserve:   toReserve,
	})
	return claimed, nil
}

// EnableAutoRebalance links the caller's position to a vault and opts it in
// to capability-driven claims. The link and the flag always change together.
func (e *Engine) EnableAutoRebalance(caller crypto.Address, asset, vaultID string) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if strings.TrimSpace(vaultID) == "" {
		return ErrVaultIDRequired
	}
	pool, err := e.requirePool(asset)
	if err != nil {
		return err
	}
	position, err := e.state.GetPosition(pool.Asset, caller)
	if err != nil {
		return err
	}
	if position == nil {
		return ErrPositionNotFound
	}
	position.LinkedVaultID = vaultID
	position.AutoRebalanceEnabled = true
	if err := e.state.PutPosition(pool.Asset, position); err != nil {
		return err
	}
	e.emitter.Emit(events.AutoRebalanceOptIn{
		Owner:   addressBytes(caller),
		Asset:   pool.Asset,
		VaultID: vaultID,
		Enabled: true,
	})
	return nil
}

// DisableAutoRebalance clears the vault link and the opt-in flag together.
func (e *Engine) DisableAutoRebalance(caller crypto.Address, asset string) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	pool, err := e.requirePool(asset)
	if err != nil {
		return err
	}
	position, err := e.state.GetPosition(pool.Asset, caller)
	if err != nil {
		return err
	}
	if position == nil {
		return ErrPositionNotFound
	}
	position.LinkedVaultID = ""
	position.AutoRebalanceEnabled = false
	if err := e.state.PutPosition(pool.Asset, position); err != nil {
		return err
	}
	e.emitter.Emit(events.AutoRebalanceOptIn{
		Owner:   addressBytes(caller),
		Asset:   pool.Asset,
		Enabled: false,
	})
	return nil
}

// Pool returns a copy of the pool state for reads.
func (e *Engine) Pool(asset string) (*Pool, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	pool, err := e.requirePool(asset)
	if err != nil {
		return nil, err
	}
	return pool.Clone(), nil
}

// Position returns a copy of the owner's position for reads.
func (e *Engine) Position(owner crypto.Address, asset string) (*Position, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	pool, err := e.requirePool(asset)
	if err != nil {
		return nil, err
	}
	position, err := e.state.GetPosition(pool.Asset, owner)
	if err != nil {
		return nil, err
	}
	if position == nil {
		return nil, ErrPositionNotFound
	}
	return position.Clone(), nil
}

func (e *Engine) requirePool(asset string) (*Pool, error) {
	symbol := strings.ToUpper(strings.TrimSpace(asset))
	if symbol == "" {
		return nil, ErrPoolNotFound
	}
	pool, err := e.state.GetPool(symbol)
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, ErrPoolNotFound
	}
	return pool, nil
}

func addressBytes(addr crypto.Address) [20]byte {
	var out [20]byte
	copy(out[:], addr.Bytes())
	return out
}
