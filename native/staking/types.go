package staking

// Pool captures the global accounting state for one staking pool. One pool
// exists per underlying asset and is created exactly once by InitPool.
// Amounts are fixed-point integers scaled by 1e9.
type Pool struct {
	// Asset is the underlying asset symbol the pool accepts.
	Asset string
	// TotalStaked is the aggregate underlying balance deposited by stakers.
	TotalStaked uint64
	// TotalShares tracks issued shares and always equals the sum of every
	// position's shares.
	TotalShares uint64
	// TotalRewards accumulates pool-level reward accrual. Informational.
	TotalRewards uint64
	// RewardRatePerInterval is the per-share reward per interval, scaled by
	// 1e9.
	RewardRatePerInterval uint64
	// RewardIntervalMs is the accrual quantum in milliseconds.
	RewardIntervalMs uint64
	// LastRewardTimeMs records the timestamp the pool last accrued to. It
	// only ever advances by whole intervals so partial intervals carry
	// forward.
	LastRewardTimeMs uint64
}

// Clone returns a deep copy of the pool.
func (p *Pool) Clone() *Pool {
	if p == nil {
		return nil
	}
	cloned := *p
	return &cloned
}

// Position maintains the staking state for an individual owner within one
// pool. Positions are created on first stake and persist at zero shares.
type Position struct {
	// Owner is the raw 20-byte address of the position holder.
	Owner []byte
	// Asset names the pool this position belongs to.
	Asset string
	// Shares is the proportional claim on the pooled balance.
	Shares uint64
	// PendingRewards holds settled-but-unclaimed reward amounts.
	PendingRewards uint64
	// LastClaimTimeMs is the base timestamp for position-level accrual.
	LastClaimTimeMs uint64
	// LinkedVaultID names the vault automated rebalancing feeds. Set and
	// cleared together with AutoRebalanceEnabled, never independently.
	LinkedVaultID string
	// AutoRebalanceEnabled opts the position in to capability-driven claims.
	AutoRebalanceEnabled bool
}

// Clone returns a deep copy of the position.
func (p *Position) Clone() *Position {
	if p == nil {
		return nil
	}
	cloned := *p
	cloned.Owner = append([]byte(nil), p.Owner...)
	return &cloned
}
