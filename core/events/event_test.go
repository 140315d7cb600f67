package events

import (
	"strconv"
	"testing"
)

func TestRingKeepsMostRecent(t *testing.T) {
	ring := NewRing(3)
	for i := 0; i < 5; i++ {
		ring.Emit(PriceUpdated{Asset: "A" + strconv.Itoa(i), Price: uint64(i)})
	}

	recent := ring.Recent()
	if len(recent) != 3 {
		t.Fatalf("expected 3 retained events, got %d", len(recent))
	}
	for i, evt := range recent {
		want := "A" + strconv.Itoa(i+2)
		if evt.Attributes["asset"] != want {
			t.Fatalf("expected asset %s at index %d, got %s", want, i, evt.Attributes["asset"])
		}
	}
}

func TestRingIgnoresNilEvents(t *testing.T) {
	ring := NewRing(4)
	ring.Emit(nil)
	if got := len(ring.Recent()); got != 0 {
		t.Fatalf("expected empty ring, got %d", got)
	}
}

func TestStakedEventAttributes(t *testing.T) {
	var owner [20]byte
	owner[19] = 0x7f
	evt := Staked{
		Owner:       owner,
		Asset:       " stk ",
		Amount:      100,
		SharesAdded: 100,
		NewShares:   150,
		TotalShares: 400,
	}.Event()

	if evt.Type != TypeStaked {
		t.Fatalf("unexpected type %s", evt.Type)
	}
	if evt.Attributes["asset"] != "STK" {
		t.Fatalf("asset must normalize, got %s", evt.Attributes["asset"])
	}
	if evt.Attributes["amount"] != "100" || evt.Attributes["totalShares"] != "400" {
		t.Fatalf("unexpected attributes: %v", evt.Attributes)
	}
}
