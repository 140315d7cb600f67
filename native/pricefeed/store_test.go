package pricefeed

import (
	"errors"
	"testing"

	"stakevault/crypto"
)

type mockState struct {
	prices map[string]uint64
}

func newMockState() *mockState {
	return &mockState{prices: make(map[string]uint64)}
}

func (m *mockState) GetPrice(asset string) (uint64, error) {
	return m.prices[asset], nil
}

func (m *mockState) PutPrice(asset string, price uint64) error {
	m.prices[asset] = price
	return nil
}

func (m *mockState) ListPrices() (map[string]uint64, error) {
	out := make(map[string]uint64, len(m.prices))
	for asset, price := range m.prices {
		out[asset] = price
	}
	return out, nil
}

func testAddr(b byte) crypto.Address {
	raw := make([]byte, 20)
	for i := range raw {
		raw[i] = b
	}
	return crypto.MustNewAddress(crypto.AccountPrefix, raw)
}

func TestSetPriceAdminOnly(t *testing.T) {
	admin := testAddr(0x01)
	engine := NewEngine(admin)
	engine.SetState(newMockState())

	if err := engine.SetPrice(testAddr(0x02), "LST", 42); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := engine.SetPrice(admin, "LST", 42); err != nil {
		t.Fatalf("admin write: %v", err)
	}
}

func TestSetPriceNormalizesAndUpserts(t *testing.T) {
	admin := testAddr(0x01)
	engine := NewEngine(admin)
	engine.SetState(newMockState())

	if err := engine.SetPrice(admin, " lst ", 100); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := engine.Price("LST"); got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
	if err := engine.SetPrice(admin, "LST", 250); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := engine.Price("LST"); got != 250 {
		t.Fatalf("expected 250 after upsert, got %d", got)
	}
}

func TestSetPriceRequiresAsset(t *testing.T) {
	admin := testAddr(0x01)
	engine := NewEngine(admin)
	engine.SetState(newMockState())

	if err := engine.SetPrice(admin, "  ", 10); !errors.Is(err, ErrAssetRequired) {
		t.Fatalf("expected ErrAssetRequired, got %v", err)
	}
}

func TestZeroAdminRejectsAllWrites(t *testing.T) {
	zero := crypto.NewAddress(crypto.AccountPrefix, make([]byte, 20))
	engine := NewEngine(zero)
	engine.SetState(newMockState())

	if err := engine.SetPrice(zero, "LST", 10); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for unconfigured admin, got %v", err)
	}
}

func TestUnsetPriceReadsZero(t *testing.T) {
	engine := NewEngine(testAddr(0x01))
	engine.SetState(newMockState())

	if got := engine.Price("UNKNOWN"); got != 0 {
		t.Fatalf("expected zero for unset asset, got %d", got)
	}
}
