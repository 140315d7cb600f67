package rebalance

// Allowed operation tags carried by a capability.
const (
	// OpRebalance permits reserve-to-collateral transfers.
	OpRebalance = "rebalance"
	// OpClaimAndRebalance additionally permits claiming the linked staking
	// position's rewards into the vault reserve.
	OpClaimAndRebalance = "claim_and_rebalance"
)

// Capability is the unforgeable token binding one agent identity to one
// vault. It grants no ownership of funds, only the right to invoke the
// rebalance operations scoped to the vault it names. There is no revocation
// or expiry once issued.
type Capability struct {
	// ID uniquely identifies the capability.
	ID string
	// VaultID is the identifier of the single vault this capability covers.
	VaultID string
	// Agent is the raw 20-byte address of the authorized agent.
	Agent []byte
	// AllowedOps enumerates the operation tags the agent may invoke.
	AllowedOps []string
}

// Allows reports whether the capability carries the operation tag.
func (c *Capability) Allows(op string) bool {
	if c == nil {
		return false
	}
	for _, allowed := range c.AllowedOps {
		if allowed == op {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the capability.
func (c *Capability) Clone() *Capability {
	if c == nil {
		return nil
	}
	cloned := *c
	cloned.Agent = append([]byte(nil), c.Agent...)
	cloned.AllowedOps = append([]string(nil), c.AllowedOps...)
	return &cloned
}
