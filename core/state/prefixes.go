package state

var (
	accountPrefix         = []byte("account/")
	stakingPoolPrefix     = []byte("staking/pool/")
	stakingPositionPrefix = []byte("staking/position/")
	vaultPrefix           = []byte("vault/")
	bankKeyBytes          = []byte("bank/issuance")
	pricePrefix           = []byte("price/entry/")
	priceIndexKeyBytes    = []byte("price/assets")
	capabilityPrefix      = []byte("ai/capability/")
)
