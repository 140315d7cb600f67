package vault

import (
	"errors"
	"testing"

	"stakevault/native/fixedmath"
)

// seedVault installs vault state directly, bypassing the borrow ceiling, so
// tests can construct positions already past the liquidation threshold.
func seedVault(state *mockState, owner, collateral, debt uint64) string {
	addr := testAddr(byte(owner))
	v := &Vault{
		Owner:      addr.Bytes(),
		Collateral: collateral,
		Debt:       debt,
	}
	state.vaults[v.ID()] = v
	state.bank = &Bank{TotalIssued: debt}
	return v.ID()
}

func TestLiquidatableAfterPriceDrop(t *testing.T) {
	engine, state, quote := newTestEngine(t, 3*unit)
	owner := testAddr(0x01)
	vaultID := openVault(t, engine, state, owner, 100*unit)
	if err := engine.Borrow(owner, vaultID, 200*unit); err != nil {
		t.Fatalf("borrow at 66.7%% LTV: %v", err)
	}

	eligible, err := engine.Liquidatable(vaultID)
	if err != nil {
		t.Fatalf("liquidatable: %v", err)
	}
	if eligible {
		t.Fatal("healthy vault reported liquidatable")
	}

	quote.price = 2 * unit
	eligible, err = engine.Liquidatable(vaultID)
	if err != nil {
		t.Fatalf("liquidatable: %v", err)
	}
	if !eligible {
		t.Fatal("vault at 100%% LTV must be liquidatable")
	}

	v, _ := engine.Vault(vaultID)
	if hf := HealthFactor(v, quote.price); hf >= fixedmath.Scale {
		t.Fatalf("health factor must drop below 1.0 scaled, got %d", hf)
	}
}

func TestLiquidationBoundaryIsHealthy(t *testing.T) {
	// Collateral 100 at price 2.50 is value 250; debt 200 is exactly 8000 bps.
	engine, state, _ := newTestEngine(t, 2*unit+unit/2)
	vaultID := seedVault(state, 0x01, 100*unit, 200*unit)

	eligible, err := engine.Liquidatable(vaultID)
	if err != nil {
		t.Fatalf("liquidatable: %v", err)
	}
	if eligible {
		t.Fatal("exactly the threshold must still be healthy")
	}
}

func TestLiquidatableWithWorthlessCollateral(t *testing.T) {
	engine, state, _ := newTestEngine(t, 0)
	vaultID := seedVault(state, 0x01, 100*unit, 10*unit)

	eligible, err := engine.Liquidatable(vaultID)
	if err != nil {
		t.Fatalf("liquidatable: %v", err)
	}
	if !eligible {
		t.Fatal("nonzero debt on worthless collateral must be liquidatable")
	}
}

func TestZeroDebtNeverLiquidatable(t *testing.T) {
	engine, state, _ := newTestEngine(t, 0)
	vaultID := seedVault(state, 0x01, 100*unit, 0)

	eligible, err := engine.Liquidatable(vaultID)
	if err != nil {
		t.Fatalf("liquidatable: %v", err)
	}
	if eligible {
		t.Fatal("debt-free vault must never be liquidatable")
	}
}

func TestLiquidateSeizesWithBonus(t *testing.T) {
	// Collateral 100, debt 200, price 2.00: repaying 100 seizes
	// 100 * 1.05 / 2.00 = 52.5 collateral tokens.
	engine, state, _ := newTestEngine(t, 2*unit)
	vaultID := seedVault(state, 0x01, 100*unit, 200*unit)
	liquidator := testAddr(0x09)
	fundSVUSD(state, liquidator, 100*unit)

	receipt, err := engine.Liquidate(liquidator, vaultID, 100*unit, "proof-abc")
	if err != nil {
		t.Fatalf("liquidate: %v", err)
	}
	wantSeize := 52*unit + unit/2
	if receipt.CollateralSeized != wantSeize {
		t.Fatalf("expected seize %d, got %d", wantSeize, receipt.CollateralSeized)
	}
	if receipt.DebtBefore != 200*unit || receipt.Repaid != 100*unit {
		t.Fatalf("receipt amounts wrong: %+v", receipt)
	}
	if receipt.ProofRef != "proof-abc" {
		t.Fatalf("proof reference must pass through verbatim, got %q", receipt.ProofRef)
	}

	v, _ := engine.Vault(vaultID)
	if v.Debt != 100*unit {
		t.Fatalf("expected debt 100, got %d", v.Debt)
	}
	if v.Collateral != 100*unit-wantSeize {
		t.Fatalf("expected collateral %d, got %d", 100*unit-wantSeize, v.Collateral)
	}

	account, _ := state.GetAccount(liquidator)
	if account.BalanceSVUSD != 0 {
		t.Fatalf("repayment must burn the liquidator's SVUSD, got %d", account.BalanceSVUSD)
	}
	if account.BalanceLST != wantSeize {
		t.Fatalf("seized collateral must reach the liquidator, got %d", account.BalanceLST)
	}
	bank, _ := engine.BankState()
	if bank.TotalIssued != 100*unit {
		t.Fatalf("issuance must shrink by the repayment, got %d", bank.TotalIssued)
	}
}

func TestLiquidateRejectsHealthyVault(t *testing.T) {
	engine, state, _ := newTestEngine(t, 3*unit)
	vaultID := seedVault(state, 0x01, 100*unit, 200*unit)
	liquidator := testAddr(0x09)
	fundSVUSD(state, liquidator, 100*unit)

	if _, err := engine.Liquidate(liquidator, vaultID, 100*unit, ""); !errors.Is(err, ErrNotLiquidatable) {
		t.Fatalf("expected ErrNotLiquidatable, got %v", err)
	}
}

func TestLiquidateRejectsOverRepayment(t *testing.T) {
	engine, state, _ := newTestEngine(t, 2*unit)
	vaultID := seedVault(state, 0x01, 100*unit, 200*unit)
	liquidator := testAddr(0x09)
	fundSVUSD(state, liquidator, 300*unit)

	if _, err := engine.Liquidate(liquidator, vaultID, 201*unit, ""); !errors.Is(err, ErrRepayExceedsDebt) {
		t.Fatalf("expected ErrRepayExceedsDebt, got %v", err)
	}
}

func TestLiquidateAtZeroPrice(t *testing.T) {
	engine, state, _ := newTestEngine(t, 0)
	vaultID := seedVault(state, 0x01, 100*unit, 200*unit)
	liquidator := testAddr(0x09)
	fundSVUSD(state, liquidator, 100*unit)

	if _, err := engine.Liquidate(liquidator, vaultID, 100*unit, ""); !errors.Is(err, ErrInsufficientCollateral) {
		t.Fatalf("expected ErrInsufficientCollateral, got %v", err)
	}
}

func TestLiquidateRejectsSeizeBeyondCollateral(t *testing.T) {
	engine, state, _ := newTestEngine(t, 2*unit)
	vaultID := seedVault(state, 0x01, 10*unit, 200*unit)
	liquidator := testAddr(0x09)
	fundSVUSD(state, liquidator, 100*unit)

	if _, err := engine.Liquidate(liquidator, vaultID, 100*unit, ""); !errors.Is(err, ErrInsufficientCollateral) {
		t.Fatalf("expected ErrInsufficientCollateral, got %v", err)
	}
}

func TestLiquidateRequiresFunds(t *testing.T) {
	engine, state, _ := newTestEngine(t, 2*unit)
	vaultID := seedVault(state, 0x01, 100*unit, 200*unit)
	liquidator := testAddr(0x09)

	if _, err := engine.Liquidate(liquidator, vaultID, 100*unit, ""); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}
