package vault

import (
	"stakevault/core/events"
	"stakevault/crypto"
	nativecommon "stakevault/native/common"
	"stakevault/native/fixedmath"
)

// LiquidationReceipt summarises an executed liquidation. The proof reference
// is an opaque external string forwarded verbatim; the engine never
// interprets it.
type LiquidationReceipt struct {
	VaultID          string
	Liquidator       crypto.Address
	DebtBefore       uint64
	Repaid           uint64
	CollateralSeized uint64
	ProofRef         string
}

// Liquidatable reports whether a vault may be liquidated at the given
// collateral price: nonzero debt and either worthless collateral or a
// loan-to-value strictly above the 80% threshold. Exactly 8000 bps is still
// healthy.
func Liquidatable(v *Vault, price uint64) bool {
	if v == nil || v.Debt == 0 {
		return false
	}
	value := fixedmath.CollateralValue(v.Collateral, price)
	if value == 0 {
		return true
	}
	return fixedmath.LTVBps(v.Debt, value) > LiquidationThresholdBps
}

// HealthFactor computes the scaled health factor of a vault at the given
// price using the liquidation threshold. Below 1.0 (scaled) means the vault
// is eligible for liquidation.
func HealthFactor(v *Vault, price uint64) uint64 {
	if v == nil {
		return fixedmath.MaxHealthFactor
	}
	value := fixedmath.CollateralValue(v.Collateral, price)
	return fixedmath.HealthFactor(value, v.Debt, LiquidationThresholdBps)
}

// Liquidatable reports liquidation eligibility at the engine's current price.
func (e *Engine) Liquidatable(vaultID string) (bool, error) {
	if e == nil || e.state == nil {
		return false, ErrNilState
	}
	v, err := e.requireVault(vaultID)
	if err != nil {
		return false, err
	}
	return Liquidatable(v, e.CollateralPrice()), nil
}

// Liquidate lets any caller repay part or all of an unhealthy vault's debt in
// exchange for collateral worth the repayment plus a 5% bonus at the current
// price. The repayment is burned, the seized collateral is forwarded to the
// liquidator, and a liquidation record is emitted carrying the opaque proof
// reference.
func (e *Engine) Liquidate(liquidator crypto.Address, vaultID string, repayment uint64, proofRef string) (*LiquidationReceipt, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if repayment == 0 {
		return nil, ErrInvalidAmount
	}
	v, err := e.requireVault(vaultID)
	if err != nil {
		return nil, err
	}

	price := e.CollateralPrice()
	if !Liquidatable(v, price) {
		return nil, ErrNotLiquidatable
	}
	if repayment > v.Debt {
		return nil, ErrRepayExceedsDebt
	}
	if price == 0 {
		// Collateral value cannot be computed, so no seize amount exists.
		return nil, ErrInsufficientCollateral
	}

	// Seize = repaid value plus the bonus, converted to collateral tokens at
	// the current price.
	bonusValue := fixedmath.MulDiv(repayment, fixedmath.BpsDenominator+LiquidationBonusBps, fixedmath.BpsDenominator)
	seize := fixedmath.MulDiv(bonusValue, fixedmath.Scale, price)
	if seize > v.Collateral {
		return nil, ErrInsufficientCollateral
	}

	account, err := e.state.GetAccount(liquidator)
	if err != nil {
		return nil, err
	}
	if account.BalanceSVUSD < repayment {
		return nil, ErrInsufficientBalance
	}
	bank, err := e.state.GetBank()
	if err != nil {
		return nil, err
	}

	debtBefore := v.Debt

	account.BalanceSVUSD -= repayment
	if bank.TotalIssued >= repayment {
		bank.TotalIssued -= repayment
	} else {
		bank.TotalIssued = 0
	}
	v.Debt -= repayment
	v.Collateral -= seize
	account.BalanceLST = fixedmath.SatAdd(account.BalanceLST, seize)

	if err := e.state.PutAccount(liquidator, account); err != nil {
		return nil, err
	}
	if err := e.state.PutBank(bank); err != nil {
		return nil, err
	}
	if err := e.state.PutVault(vaultID, v); err != nil {
		return nil, err
	}

	e.emitter.Emit(events.Liquidated{
		VaultID:          vaultID,
		Liquidator:       addressBytes(liquidator),
		DebtBefore:       debtBefore,
		Repaid:           repayment,
		CollateralSeized: seize,
		ProofRef:         proofRef,
	})
	return &LiquidationReceipt{
		VaultID:          vaultID,
		Liquidator:       liquidator,
		DebtBefore:       debtBefore,
		Repaid:           repayment,
		CollateralSeized: seize,
		ProofRef:         proofRef,
	}, nil
}
