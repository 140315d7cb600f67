package events

import (
	"strconv"

	"stakevault/core/types"
)

const (
	// TypeStaked captures share issuance triggered by a stake deposit.
	TypeStaked = "staking.staked"
	// TypeUnstaked captures share redemption back into the underlying asset.
	TypeUnstaked = "staking.unstaked"
	// TypeRewardsClaimed is emitted when accrued rewards are claimed and minted.
	TypeRewardsClaimed = "staking.rewardsClaimed"
	// TypeAutoRebalanceOptIn is emitted when a position links a vault for
	// automated rebalancing.
	TypeAutoRebalanceOptIn = "staking.autoRebalanceOptIn"
	// TypeAutoRebalanceOptOut is emitted when the link is cleared again.
	TypeAutoRebalanceOptOut = "staking.autoRebalanceOptOut"
)

// Staked captures the share delta realised when staking the underlying asset.
type Staked struct {
	Owner       [20]byte
	Asset       string
	Amount      uint64
	SharesAdded uint64
	NewShares   uint64
	TotalShares uint64
}

// EventType satisfies the Event interface.
func (Staked) EventType() string { return TypeStaked }

// Event converts the structured payload into a broadcastable event.
func (e Staked) Event() *types.Event {
	return &types.Event{Type: TypeStaked, Attributes: map[string]string{
		"owner":       formatAddress(e.Owner),
		"asset":       normalizeAsset(e.Asset),
		"amount":      formatAmount(e.Amount),
		"sharesAdded": formatAmount(e.SharesAdded),
		"newShares":   formatAmount(e.NewShares),
		"totalShares": formatAmount(e.TotalShares),
	}}
}

// Unstaked captures the share delta realised when redeeming receipt tokens.
type Unstaked struct {
	Owner         [20]byte
	Asset         string
	Amount        uint64
	SharesRemoved uint64
	NewShares     uint64
	TotalShares   uint64
}

// EventType satisfies the Event interface.
func (Unstaked) EventType() string { return TypeUnstaked }

// Event converts the structured payload into a broadcastable event.
func (e Unstaked) Event() *types.Event {
	return &types.Event{Type: TypeUnstaked, Attributes: map[string]string{
		"owner":         formatAddress(e.Owner),
		"asset":         normalizeAsset(e.Asset),
		"amount":        formatAmount(e.Amount),
		"sharesRemoved": formatAmount(e.SharesRemoved),
		"newShares":     formatAmount(e.NewShares),
		"totalShares":   formatAmount(e.TotalShares),
	}}
}

// RewardsClaimed captures a staking reward payout for a position.
type RewardsClaimed struct {
	Owner       [20]byte
	Asset       string
	Paid        uint64
	ClaimTimeMs uint64
	ToReserve   bool
}

// EventType satisfies the Event interface.
func (RewardsClaimed) EventType() string { return TypeRewardsClaimed }

// Event converts the structured payload into a broadcastable event.
func (e RewardsClaimed) Event() *types.Event {
	return &types.Event{Type: TypeRewardsClaimed, Attributes: map[string]string{
		"owner":       formatAddress(e.Owner),
		"asset":       normalizeAsset(e.Asset),
		"paid":        formatAmount(e.Paid),
		"claimTimeMs": formatAmount(e.ClaimTimeMs),
		"toReserve":   strconv.FormatBool(e.ToReserve),
	}}
}

// AutoRebalanceOptIn records a position opting in to automated rebalancing
// against a linked vault.
type AutoRebalanceOptIn struct {
	Owner   [20]byte
	Asset   string
	VaultID string
	Enabled bool
}

// EventType satisfies the Event interface.
func (e AutoRebalanceOptIn) EventType() string {
	if e.Enabled {
		return TypeAutoRebalanceOptIn
	}
	return TypeAutoRebalanceOptOut
}

// Event converts the structured payload into a broadcastable event.
func (e AutoRebalanceOptIn) Event() *types.Event {
	attrs := map[string]string{
		"owner": formatAddress(e.Owner),
		"asset": normalizeAsset(e.Asset),
	}
	if e.VaultID != "" {
		attrs["vaultId"] = e.VaultID
	}
	return &types.Event{Type: e.EventType(), Attributes: attrs}
}
