package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"stakevault/core/events"
	"stakevault/core/state"
	"stakevault/crypto"
	"stakevault/native/fixedmath"
	"stakevault/native/pricefeed"
	"stakevault/native/rebalance"
	"stakevault/native/staking"
	"stakevault/native/vault"
	"stakevault/storage"
)

const unit = fixedmath.Scale

type testEnv struct {
	server *httptest.Server
	clock  *uint64

	admin crypto.Address
	owner crypto.Address
	agent crypto.Address
}

func testAddr(b byte) crypto.Address {
	raw := make([]byte, 20)
	for i := range raw {
		raw[i] = b
	}
	return crypto.MustNewAddress(crypto.AccountPrefix, raw)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	manager := state.NewManager(storage.NewMemDB())
	ring := events.NewRing(128)

	admin := testAddr(0xaa)
	prices := pricefeed.NewEngine(admin)
	prices.SetState(manager)
	prices.SetEmitter(ring)

	stakingEngine := staking.NewEngine()
	stakingEngine.SetState(manager)
	stakingEngine.SetEmitter(ring)

	vaultEngine := vault.NewEngine(prices)
	vaultEngine.SetState(manager)
	vaultEngine.SetEmitter(ring)

	rebalanceEngine := rebalance.NewEngine(stakingEngine, vaultEngine)
	rebalanceEngine.SetState(manager)
	rebalanceEngine.SetEmitter(ring)

	now := uint64(0)
	if _, err := stakingEngine.InitPool("STK", fixedmath.Scale/1000, 60_000, now); err != nil {
		t.Fatalf("init pool: %v", err)
	}

	server := NewServer(Config{
		Staking:   stakingEngine,
		Vaults:    vaultEngine,
		Rebalance: rebalanceEngine,
		Prices:    prices,
		Ring:      ring,
		Accounts:  manager,
		Admin:     admin,
		Now:       func() uint64 { return now },
	})
	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)

	return &testEnv{
		server: ts,
		clock:  &now,
		admin:  admin,
		owner:  testAddr(0x01),
		agent:  testAddr(0x0a),
	}
}

func (env *testEnv) post(t *testing.T, path string, payload map[string]interface{}) (int, map[string]interface{}) {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(env.server.URL+path, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	out := map[string]interface{}{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (env *testEnv) get(t *testing.T, path string) (int, map[string]interface{}) {
	t.Helper()
	resp, err := http.Get(env.server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	out := map[string]interface{}{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (env *testEnv) fund(t *testing.T, owner crypto.Address, amount uint64) {
	t.Helper()
	status, body := env.post(t, "/v1/admin/fund", map[string]interface{}{
		"caller": env.admin.String(),
		"owner":  owner.String(),
		"amount": amount,
	})
	require.Equal(t, http.StatusOK, status, "fund failed: %v", body)
}

func (env *testEnv) setPrice(t *testing.T, asset string, price uint64) {
	t.Helper()
	status, body := env.post(t, "/v1/price", map[string]interface{}{
		"caller": env.admin.String(),
		"asset":  asset,
		"price":  price,
	})
	require.Equal(t, http.StatusOK, status, "set price failed: %v", body)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	resp, err := http.Get(env.server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestFundRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	status, _ := env.post(t, "/v1/admin/fund", map[string]interface{}{
		"caller": env.owner.String(),
		"owner":  env.owner.String(),
		"amount": uint64(10),
	})
	require.Equal(t, http.StatusForbidden, status)
}

func TestFundRejectsZeroAdmin(t *testing.T) {
	manager := state.NewManager(storage.NewMemDB())
	server := NewServer(Config{
		Staking:   staking.NewEngine(),
		Vaults:    vault.NewEngine(pricefeed.NewEngine(crypto.Address{})),
		Rebalance: rebalance.NewEngine(nil, nil),
		Prices:    pricefeed.NewEngine(crypto.Address{}),
		Ring:      events.NewRing(8),
		Accounts:  manager,
		Now:       func() uint64 { return 0 },
	})
	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)

	// With no administrator configured, presenting the zero address must
	// not mint anything.
	zero := crypto.MustNewAddress(crypto.AccountPrefix, make([]byte, 20))
	victim := testAddr(0x01)
	body, err := json.Marshal(map[string]interface{}{
		"caller": zero.String(),
		"owner":  victim.String(),
		"amount": uint64(unit),
	})
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+"/v1/admin/fund", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	account, err := manager.GetAccount(victim)
	require.NoError(t, err)
	require.Zero(t, account.BalanceSTK)
}

func TestStakeBorrowLiquidateFlow(t *testing.T) {
	env := newTestEnv(t)
	owner := env.owner.String()
	env.fund(t, env.owner, 100*unit)
	env.setPrice(t, "LST", 3*unit)

	// Stake 100 STK for 100 LST.
	status, body := env.post(t, "/v1/stake", map[string]interface{}{
		"caller": owner,
		"asset":  "STK",
		"amount": 100 * unit,
	})
	require.Equal(t, http.StatusOK, status, "stake: %v", body)
	require.Equal(t, float64(100*unit), body["shares"])

	// Open a vault and deposit all collateral.
	status, body = env.post(t, "/v1/vaults", map[string]interface{}{"caller": owner})
	require.Equal(t, http.StatusCreated, status, "create vault: %v", body)
	vaultID := body["id"].(string)
	require.Equal(t, owner, vaultID)

	status, body = env.post(t, fmt.Sprintf("/v1/vaults/%s/collateral", vaultID), map[string]interface{}{
		"caller": owner,
		"amount": 100 * unit,
	})
	require.Equal(t, http.StatusOK, status, "deposit: %v", body)
	require.Equal(t, float64(100*unit), body["collateral"])

	// Borrow 200 at 66.7% LTV of the 300 collateral value.
	status, body = env.post(t, fmt.Sprintf("/v1/vaults/%s/borrow", vaultID), map[string]interface{}{
		"caller": owner,
		"amount": 200 * unit,
	})
	require.Equal(t, http.StatusOK, status, "borrow: %v", body)
	require.Equal(t, float64(200*unit), body["debt"])
	require.Equal(t, false, body["liquidatable"])

	// Over the ceiling is rejected with no partial mint.
	status, _ = env.post(t, fmt.Sprintf("/v1/vaults/%s/borrow", vaultID), map[string]interface{}{
		"caller": owner,
		"amount": 20 * unit,
	})
	require.Equal(t, http.StatusUnprocessableEntity, status)

	// Price collapse makes the vault liquidatable.
	env.setPrice(t, "LST", 2*unit)
	status, body = env.get(t, "/v1/vaults/"+vaultID)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, true, body["liquidatable"])

	// The owner self-liquidates with the SVUSD minted by the borrow,
	// repaying 100 and seizing 52.5 collateral.
	status, body = env.post(t, fmt.Sprintf("/v1/vaults/%s/liquidate", vaultID), map[string]interface{}{
		"caller":    owner,
		"repayment": 100 * unit,
		"proofRef":  "audit-789",
	})
	require.Equal(t, http.StatusOK, status, "liquidate: %v", body)
	require.Equal(t, float64(52*unit+unit/2), body["collateralSeized"])
	require.Equal(t, "audit-789", body["proofRef"])

	status, body = env.get(t, "/v1/vaults/"+vaultID)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, float64(100*unit), body["debt"])
}

func TestAIRebalanceFlow(t *testing.T) {
	env := newTestEnv(t)
	owner := env.owner.String()
	env.fund(t, env.owner, 200*unit)
	env.setPrice(t, "LST", 2*unit+unit/2)

	status, body := env.post(t, "/v1/stake", map[string]interface{}{
		"caller": owner,
		"asset":  "STK",
		"amount": 200 * unit,
	})
	require.Equal(t, http.StatusOK, status, "stake: %v", body)

	status, body = env.post(t, "/v1/vaults", map[string]interface{}{"caller": owner})
	require.Equal(t, http.StatusCreated, status)
	vaultID := body["id"].(string)

	status, _ = env.post(t, fmt.Sprintf("/v1/vaults/%s/collateral", vaultID), map[string]interface{}{
		"caller": owner,
		"amount": 100 * unit,
	})
	require.Equal(t, http.StatusOK, status)
	status, _ = env.post(t, fmt.Sprintf("/v1/vaults/%s/reserve", vaultID), map[string]interface{}{
		"caller": owner,
		"amount": 100 * unit,
	})
	require.Equal(t, http.StatusOK, status)

	// Borrow to 72% LTV of the 250 value, past the 60% warning threshold.
	status, _ = env.post(t, fmt.Sprintf("/v1/vaults/%s/borrow", vaultID), map[string]interface{}{
		"caller": owner,
		"amount": 175 * unit,
	})
	require.Equal(t, http.StatusOK, status)

	status, body = env.post(t, "/v1/ai/authorize", map[string]interface{}{
		"caller":  owner,
		"vaultId": vaultID,
		"agent":   env.agent.String(),
	})
	require.Equal(t, http.StatusCreated, status, "authorize: %v", body)
	capabilityID := body["id"].(string)

	// A foreign agent holding the right id is still rejected.
	status, _ = env.post(t, "/v1/ai/rebalance", map[string]interface{}{
		"caller":       testAddr(0x0b).String(),
		"capabilityId": capabilityID,
		"vaultId":      vaultID,
	})
	require.Equal(t, http.StatusForbidden, status)

	status, body = env.post(t, "/v1/ai/rebalance", map[string]interface{}{
		"caller":       env.agent.String(),
		"capabilityId": capabilityID,
		"vaultId":      vaultID,
	})
	require.Equal(t, http.StatusOK, status, "rebalance: %v", body)
	require.Equal(t, "rebalanced", body["outcome"])
	// Target value 350 needs 100 more value, 40 tokens at 2.50.
	require.Equal(t, float64(40*unit), body["moved"])

	status, body = env.get(t, "/v1/vaults/"+vaultID)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, float64(140*unit), body["collateral"])
	require.Equal(t, float64(60*unit), body["rewardReserve"])
}

func TestUnknownVaultIs404(t *testing.T) {
	env := newTestEnv(t)
	status, _ := env.get(t, "/v1/vaults/"+testAddr(0x55).String())
	require.Equal(t, http.StatusNotFound, status)
}
