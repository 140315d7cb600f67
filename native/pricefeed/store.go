// Package pricefeed implements the administrator-writable price store. Every
// risk decision in the ledger reads prices from here; missing entries read as
// zero and callers must treat a zero price as a first-class risk state.
package pricefeed

import (
	"errors"
	"strings"

	"stakevault/core/events"
	"stakevault/crypto"
	nativecommon "stakevault/native/common"
)

var (
	// ErrNilState is returned before the engine is wired to persistence.
	ErrNilState = errors.New("pricefeed: state not configured")
	// ErrUnauthorized is returned when a non-administrator writes a price.
	ErrUnauthorized = errors.New("pricefeed: caller is not the price administrator")
	// ErrAssetRequired is returned for empty asset symbols.
	ErrAssetRequired = errors.New("pricefeed: asset symbol required")
)

const moduleName = "pricefeed"

type engineState interface {
	GetPrice(asset string) (uint64, error)
	PutPrice(asset string, price uint64) error
	ListPrices() (map[string]uint64, error)
}

// Engine owns price entries. Writes are restricted to the administrator
// address fixed at construction; reads are open to every component.
type Engine struct {
	state   engineState
	admin   crypto.Address
	emitter events.Emitter
	pauses  nativecommon.PauseView
}

// NewEngine constructs a price store engine bound to the administrator
// capability.
func NewEngine(admin crypto.Address) *Engine {
	return &Engine{admin: admin, emitter: events.NoopEmitter{}}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetPauses wires the pause view consulted before mutations.
func (e *Engine) SetPauses(p nativecommon.PauseView) { e.pauses = p }

// SetPrice upserts the price entry for an asset. Administrator-only.
func (e *Engine) SetPrice(caller crypto.Address, asset string, price uint64) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	// A zero admin means no administrator was configured; every write is
	// rejected rather than letting the zero address act as one.
	if zeroAddress(e.admin) || !addressesEqual(caller, e.admin) {
		return ErrUnauthorized
	}
	symbol := strings.ToUpper(strings.TrimSpace(asset))
	if symbol == "" {
		return ErrAssetRequired
	}
	if err := e.state.PutPrice(symbol, price); err != nil {
		return err
	}
	var admin [20]byte
	copy(admin[:], e.admin.Bytes())
	e.emitter.Emit(events.PriceUpdated{Asset: symbol, Price: price, Admin: admin})
	return nil
}

// Price returns the stored price for an asset, zero when unset. The zero
// default is deliberate: downstream risk checks must handle it explicitly.
func (e *Engine) Price(asset string) uint64 {
	if e == nil || e.state == nil {
		return 0
	}
	price, err := e.state.GetPrice(asset)
	if err != nil {
		return 0
	}
	return price
}

// Prices returns a snapshot of every stored entry for the read API.
func (e *Engine) Prices() (map[string]uint64, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	return e.state.ListPrices()
}

func zeroAddress(a crypto.Address) bool {
	for _, b := range a.Bytes() {
		if b != 0 {
			return false
		}
	}
	return true
}

func addressesEqual(a, b crypto.Address) bool {
	ab, bb := a.Bytes(), b.Bytes()
	if len(ab) != len(bb) {
		return false
	}
	for i := range ab {
		if ab[i] != bb[i] {
			return false
		}
	}
	return true
}
