package events

import "stakevault/core/types"

// TypePriceUpdated is emitted when the administrator upserts a price entry.
const TypePriceUpdated = "price.updated"

// PriceUpdated records an administrator price upsert.
type PriceUpdated struct {
	Asset string
	Price uint64
	Admin [20]byte
}

// EventType satisfies the Event interface.
func (PriceUpdated) EventType() string { return TypePriceUpdated }

// Event converts the structured payload into a broadcastable event.
func (e PriceUpdated) Event() *types.Event {
	return &types.Event{Type: TypePriceUpdated, Attributes: map[string]string{
		"asset": normalizeAsset(e.Asset),
		"price": formatAmount(e.Price),
		"admin": formatAddress(e.Admin),
	}}
}
