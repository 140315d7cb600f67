// Package rebalance implements the automated rebalance authority: a
// capability object binding one agent identity to one vault, plus the scoped
// operations that top up collateral from the vault's reward reserve without
// the owner's per-action authorization.
package rebalance

import (
	"bytes"
	"errors"
	"strings"

	"github.com/google/uuid"

	"stakevault/core/events"
	"stakevault/crypto"
	nativecommon "stakevault/native/common"
	"stakevault/native/fixedmath"
	"stakevault/native/staking"
	"stakevault/native/vault"
)

var (
	// ErrNilState is returned before the engine is wired to persistence.
	ErrNilState = errors.New("rebalance engine: state not configured")
	// ErrCapabilityNotFound is returned for unknown capability identifiers.
	ErrCapabilityNotFound = errors.New("rebalance engine: capability not found")
	// ErrUnauthorized is returned when the caller does not hold the
	// capability or does not own the vault being delegated.
	ErrUnauthorized = errors.New("rebalance engine: caller not authorized")
	// ErrScopeMismatch is returned when a capability's bound vault identifier
	// does not match the target vault.
	ErrScopeMismatch = errors.New("rebalance engine: capability vault mismatch")
	// ErrOperationNotAllowed is returned when the capability does not carry
	// the requested operation tag.
	ErrOperationNotAllowed = errors.New("rebalance engine: operation not allowed by capability")
	// ErrAutoRebalanceDisabled is returned when the staking position has not
	// opted in or links a different vault.
	ErrAutoRebalanceDisabled = errors.New("rebalance engine: position not enabled for auto rebalance")
	// ErrPriceUnavailable is returned when an indebted vault cannot be
	// rebalanced because the collateral price reads as zero.
	ErrPriceUnavailable = errors.New("rebalance engine: collateral price unavailable")
)

// SafeLTVBps is the warning threshold the authority acts on. It sits below
// both the 70% borrow ceiling and the 80% liquidation threshold so automated
// top-ups run before either limit binds.
const SafeLTVBps uint64 = 6_000

const moduleName = "rebalance"

type engineState interface {
	GetCapability(id string) (*Capability, error)
	PutCapability(capability *Capability) error
}

// Result reports the outcome of one automated rebalance invocation.
type Result struct {
	CapabilityID string
	VaultID      string
	Outcome      string
	Claimed      uint64
	Moved        uint64
	Shortfall    uint64
	Debt         uint64
}

// Engine evaluates and executes capability-scoped rebalances against the
// staking and vault engines.
type Engine struct {
	state   engineState
	staking *staking.Engine
	vaults  *vault.Engine
	emitter events.Emitter
	pauses  nativecommon.PauseView
}

// NewEngine constructs a rebalance engine over the staking and vault engines.
func NewEngine(stakingEngine *staking.Engine, vaultEngine *vault.Engine) *Engine {
	return &Engine{staking: stakingEngine, vaults: vaultEngine, emitter: events.NoopEmitter{}}
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

// Authorize issues a capability binding the agent to the owner's vault. Only
// the vault owner may issue it, and once issued it cannot be revoked.
func (e *Engine) Authorize(owner crypto.Address, vaultID string, agent crypto.Address) (*Capability, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	v, err := e.vaults.Vault(vaultID)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(v.Owner, owner.Bytes()) {
		return nil, ErrUnauthorized
	}
	capability := &Capability{
		ID:         uuid.NewString(),
		VaultID:    vaultID,
		Agent:      append([]byte(nil), agent.Bytes()...),
		AllowedOps: []string{OpRebalance, OpClaimAndRebalance},
	}
	if err := e.state.PutCapability(capability); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.AIAuthorized{
		CapabilityID: capability.ID,
		VaultID:      vaultID,
		Owner:        addressBytes(owner),
		Agent:        addressBytes(agent),
	})
	return capability.Clone(), nil
}

// Capability returns a copy of the stored capability for reads.
func (e *Engine) Capability(id string) (*Capability, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	capability, err := e.state.GetCapability(strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if capability == nil {
		return nil, ErrCapabilityNotFound
	}
	return capability.Clone(), nil
}

// Rebalance evaluates the vault against the warning threshold and, when
// needed, moves reserve funds into collateral toward a 2x-debt buffer. The
// transfer is automatically capped by the available reserve.
func (e *Engine) Rebalance(caller crypto.Address, capabilityID, vaultID string) (*Result, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	capability, err := e.checkScope(caller, capabilityID, vaultID, OpRebalance)
	if err != nil {
		return nil, err
	}
	return e.execute(capability, caller, vaultID, 0)
}

// ClaimAndRebalance is the composite operation: claim the linked staking
// position's pending rewards into the vault reserve, then run the same
// rebalance decision. Both steps execute as one unit; a claim with no
// subsequent transfer is a valid outcome when the vault is already healthy.
func (e *Engine) ClaimAndRebalance(caller crypto.Address, capabilityID, poolAsset, vaultID string, now uint64) (*Result, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	capability, err := e.checkScope(caller, capabilityID, vaultID, OpClaimAndRebalance)
	if err != nil {
		return nil, err
	}

	v, err := e.vaults.Vault(vaultID)
	if err != nil {
		return nil, err
	}
	// An indebted vault with no readable price cannot be rebalanced; fail
	// before the claim so the composite stays all-or-nothing.
	if v.Debt > 0 && e.vaults.CollateralPrice() == 0 {
		return nil, ErrPriceUnavailable
	}

	owner := crypto.MustNewAddress(crypto.AccountPrefix, v.Owner)
	position, err := e.staking.Position(owner, poolAsset)
	if err != nil {
		return nil, err
	}
	if !position.AutoRebalanceEnabled || position.LinkedVaultID != vaultID {
		return nil, ErrAutoRebalanceDisabled
	}

	// The claim commits on the staking side as soon as it runs; the vault
	// module must be writable first or the claimed rewards could never
	// reach the reserve.
	if err := e.vaults.PauseGuard(); err != nil {
		return nil, err
	}

	claimed, err := e.staking.ClaimRewardsTo(owner, poolAsset, now)
	if err != nil {
		return nil, err
	}
	if claimed > 0 {
		if err := e.vaults.CreditReserve(vaultID, claimed); err != nil {
			return nil, err
		}
	}
	return e.execute(capability, caller, vaultID, claimed)
}

func (e *Engine) checkScope(caller crypto.Address, capabilityID, vaultID, op string) (*Capability, error) {
	capability, err := e.state.GetCapability(strings.TrimSpace(capabilityID))
	if err != nil {
		return nil, err
	}
	if capability == nil {
		return nil, ErrCapabilityNotFound
	}
	if !bytes.Equal(capability.Agent, caller.Bytes()) {
		return nil, ErrUnauthorized
	}
	if capability.VaultID != vaultID {
		return nil, ErrScopeMismatch
	}
	if !capability.Allows(op) {
		return nil, ErrOperationNotAllowed
	}
	return capability, nil
}

func (e *Engine) execute(capability *Capability, caller crypto.Address, vaultID string, claimed uint64) (*Result, error) {
	v, err := e.vaults.Vault(vaultID)
	if err != nil {
		return nil, err
	}
	price := e.vaults.CollateralPrice()
	value := fixedmath.CollateralValue(v.Collateral, price)
	maxSafeDebt := fixedmath.MaxBorrow(value, SafeLTVBps)

	result := &Result{
		CapabilityID: capability.ID,
		VaultID:      vaultID,
		Claimed:      claimed,
		Debt:         v.Debt,
	}

	if v.Debt <= maxSafeDebt {
		result.Outcome = events.AIOutcomeHealthy
		e.emit(capability, caller, result)
		return result, nil
	}
	if price == 0 {
		return nil, ErrPriceUnavailable
	}

	// Top collateral value up toward 2x debt (a 50% LTV buffer), converting
	// the value shortfall into collateral tokens at the current price.
	targetValue := fixedmath.SatAdd(v.Debt, v.Debt)
	shortfallValue := uint64(0)
	if targetValue > value {
		shortfallValue = targetValue - value
	}
	shortfallTokens := fixedmath.MulDiv(shortfallValue, fixedmath.Scale, price)

	moved, err := e.vaults.AddCollateralFromReserve(vaultID, shortfallTokens)
	if err != nil {
		return nil, err
	}
	result.Moved = moved
	if moved < shortfallTokens {
		result.Shortfall = shortfallTokens - moved
		result.Outcome = events.AIOutcomeInsufficientReserve
	} else {
		result.Outcome = events.AIOutcomeRebalanced
	}
	e.emit(capability, caller, result)
	return result, nil
}

func (e *Engine) emit(capability *Capability, caller crypto.Address, result *Result) {
	e.emitter.Emit(events.AIAction{
		CapabilityID: capability.ID,
		VaultID:      result.VaultID,
		Agent:        addressBytes(caller),
		Outcome:      result.Outcome,
		Claimed:      result.Claimed,
		Moved:        result.Moved,
		Shortfall:    result.Shortfall,
		Debt:         result.Debt,
	})
}

func addressBytes(addr crypto.Address) [20]byte {
	var out [20]byte
	copy(out[:], addr.Bytes())
	return out
}
