package events

import "stakevault/core/types"

const (
	// TypeAIAuthorized is emitted when a vault owner issues a rebalance
	// capability to an agent.
	TypeAIAuthorized = "ai.authorized"
	// TypeAIAction records each automated rebalance decision and its outcome.
	TypeAIAction = "ai.action"

	// AIOutcomeHealthy signals that the vault was within the warning
	// threshold and no funds were moved.
	AIOutcomeHealthy = "healthy"
	// AIOutcomeRebalanced signals that reserve funds were moved into
	// collateral.
	AIOutcomeRebalanced = "rebalanced"
	// AIOutcomeInsufficientReserve signals that a shortfall remains after the
	// reserve was exhausted.
	AIOutcomeInsufficientReserve = "warning_insufficient_reserve"
)

// AIAuthorized records issuance of a rebalance capability.
type AIAuthorized struct {
	CapabilityID string
	VaultID      string
	Owner        [20]byte
	Agent        [20]byte
}

// EventType satisfies the Event interface.
func (AIAuthorized) EventType() string { return TypeAIAuthorized }

// Event converts the structured payload into a broadcastable event.
func (e AIAuthorized) Event() *types.Event {
	return &types.Event{Type: TypeAIAuthorized, Attributes: map[string]string{
		"capabilityId": e.CapabilityID,
		"vaultId":      e.VaultID,
		"owner":        formatAddress(e.Owner),
		"agent":        formatAddress(e.Agent),
	}}
}

// AIAction records the outcome of an automated rebalance invocation.
type AIAction struct {
	CapabilityID string
	VaultID      string
	Agent        [20]byte
	Outcome      string
	Claimed      uint64
	Moved        uint64
	Shortfall    uint64
	Debt         uint64
}

// EventType satisfies the Event interface.
func (AIAction) EventType() string { return TypeAIAction }

// Event converts the structured payload into a broadcastable event.
func (e AIAction) Event() *types.Event {
	attrs := map[string]string{
		"capabilityId": e.CapabilityID,
		"vaultId":      e.VaultID,
		"agent":        formatAddress(e.Agent),
		"outcome":      e.Outcome,
		"debt":         formatAmount(e.Debt),
	}
	if e.Claimed > 0 {
		attrs["claimed"] = formatAmount(e.Claimed)
	}
	if e.Moved > 0 {
		attrs["moved"] = formatAmount(e.Moved)
	}
	if e.Shortfall > 0 {
		attrs["shortfall"] = formatAmount(e.Shortfall)
	}
	return &types.Event{Type: TypeAIAction, Attributes: attrs}
}
