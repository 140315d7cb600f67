package state

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/rlp"

	"stakevault/core/types"
	"stakevault/crypto"
	"stakevault/native/rebalance"
	"stakevault/native/staking"
	"stakevault/native/vault"
	"stakevault/storage"
)

// Manager provides typed accessors over the raw key-value store. It is the
// single persistence layer behind every engine; callers are expected to
// serialize operations that touch the same entities, the manager itself does
// not lock.
type Manager struct {
	db storage.Database
}

// NewManager constructs a manager bound to the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func (m *Manager) get(key []byte, out interface{}) (bool, error) {
	data, err := m.db.Get(key)
	if err != nil {
		if storage.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, fmt.Errorf("state: decode %q: %w", key, err)
	}
	return true, nil
}

func (m *Manager) put(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("state: encode %q: %w", key, err)
	}
	return m.db.Put(key, encoded)
}

func joinKey(prefix []byte, parts ...string) []byte {
	key := append([]byte(nil), prefix...)
	for i, part := range parts {
		if i > 0 {
			key = append(key, '/')
		}
		key = append(key, part...)
	}
	return key
}

// --- Accounts ---

// GetAccount loads the account for an address, returning a zero-balance
// account when none has been persisted yet.
func (m *Manager) GetAccount(addr crypto.Address) (*types.Account, error) {
	account := &types.Account{}
	if _, err := m.get(joinKey(accountPrefix, addr.String()), account); err != nil {
		return nil, err
	}
	return account, nil
}

// PutAccount persists the account for an address.
func (m *Manager) PutAccount(addr crypto.Address, account *types.Account) error {
	if account == nil {
		account = &types.Account{}
	}
	return m.put(joinKey(accountPrefix, addr.String()), account)
}

// --- Staking ---

// GetPool loads the staking pool for an asset, nil when absent.
func (m *Manager) GetPool(asset string) (*staking.Pool, error) {
	pool := &staking.Pool{}
	found, err := m.get(joinKey(stakingPoolPrefix, normalizeSymbol(asset)), pool)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return pool, nil
}

// PutPool persists the staking pool keyed by its asset.
func (m *Manager) PutPool(pool *staking.Pool) error {
	if pool == nil {
		return fmt.Errorf("state: nil pool")
	}
	return m.put(joinKey(stakingPoolPrefix, normalizeSymbol(pool.Asset)), pool)
}

// GetPosition loads the stake position for (asset, owner), nil when absent.
func (m *Manager) GetPosition(asset string, owner crypto.Address) (*staking.Position, error) {
	position := &staking.Position{}
	found, err := m.get(joinKey(stakingPositionPrefix, normalizeSymbol(asset), owner.String()), position)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return position, nil
}

// PutPosition persists a stake position under its pool asset.
func (m *Manager) PutPosition(asset string, position *staking.Position) error {
	if position == nil || len(position.Owner) == 0 {
		return fmt.Errorf("state: position owner required")
	}
	owner := crypto.MustNewAddress(crypto.AccountPrefix, position.Owner)
	return m.put(joinKey(stakingPositionPrefix, normalizeSymbol(asset), owner.String()), position)
}

// --- Vaults ---

// GetVault loads the vault registered under the identifier, nil when absent.
func (m *Manager) GetVault(vaultID string) (*vault.Vault, error) {
	v := &vault.Vault{}
	found, err := m.get(joinKey(vaultPrefix, vaultID), v)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return v, nil
}

// PutVault persists the vault under its identifier.
func (m *Manager) PutVault(vaultID string, v *vault.Vault) error {
	if v == nil {
		return fmt.Errorf("state: nil vault")
	}
	return m.put(joinKey(vaultPrefix, vaultID), v)
}

// GetBank loads the global issuance tally, zero-valued when absent.
func (m *Manager) GetBank() (*vault.Bank, error) {
	bank := &vault.Bank{}
	if _, err := m.get(bankKeyBytes, bank); err != nil {
		return nil, err
	}
	return bank, nil
}

// PutBank persists the global issuance tally.
func (m *Manager) PutBank(bank *vault.Bank) error {
	if bank == nil {
		bank = &vault.Bank{}
	}
	return m.put(bankKeyBytes, bank)
}

// --- Prices ---

// GetPrice returns the stored price for an asset, zero when unset.
func (m *Manager) GetPrice(asset string) (uint64, error) {
	var price uint64
	if _, err := m.get(joinKey(pricePrefix, normalizeSymbol(asset)), &price); err != nil {
		return 0, err
	}
	return price, nil
}

// PutPrice upserts the price entry and maintains the asset index used for
// listings.
func (m *Manager) PutPrice(asset string, price uint64) error {
	symbol := normalizeSymbol(asset)
	if symbol == "" {
		return fmt.Errorf("state: asset symbol required")
	}
	if err := m.put(joinKey(pricePrefix, symbol), price); err != nil {
		return err
	}
	var index []string
	if _, err := m.get(priceIndexKeyBytes, &index); err != nil {
		return err
	}
	for _, existing := range index {
		if existing == symbol {
			return nil
		}
	}
	index = append(index, symbol)
	sort.Strings(index)
	return m.put(priceIndexKeyBytes, index)
}

// ListPrices returns every stored price entry keyed by asset symbol.
func (m *Manager) ListPrices() (map[string]uint64, error) {
	var index []string
	if _, err := m.get(priceIndexKeyBytes, &index); err != nil {
		return nil, err
	}
	out := make(map[string]uint64, len(index))
	for _, symbol := range index {
		price, err := m.GetPrice(symbol)
		if err != nil {
			return nil, err
		}
		out[symbol] = price
	}
	return out, nil
}

// --- Capabilities ---

// GetCapability loads a rebalance capability by identifier, nil when absent.
func (m *Manager) GetCapability(id string) (*rebalance.Capability, error) {
	capability := &rebalance.Capability{}
	found, err := m.get(joinKey(capabilityPrefix, id), capability)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return capability, nil
}

// PutCapability persists a rebalance capability under its identifier.
func (m *Manager) PutCapability(capability *rebalance.Capability) error {
	if capability == nil || strings.TrimSpace(capability.ID) == "" {
		return fmt.Errorf("state: capability id required")
	}
	return m.put(joinKey(capabilityPrefix, capability.ID), capability)
}

func normalizeSymbol(asset string) string {
	return strings.ToUpper(strings.TrimSpace(asset))
}
