package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestEventJSONFields(t *testing.T) {
	ev := Event{
		Kind:            EventSwap,
		PoolID:          "0xpool",
		Actor:           "0xbob",
		Input:           1000,
		Output:          3984,
		OutputIsB:       true,
		ReserveA:        1_001_000,
		ReserveB:        3_996_016,
		LiquiditySupply: 1_999_000,
		Timestamp:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	b, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	got := string(b)

	for _, want := range []string{
		`"kind":"swap"`,
		`"pool_id":"0xpool"`,
		`"input":1000`,
		`"output":3984`,
		`"output_is_b":true`,
		`"reserve_b":3996016`,
		`"timestamp":"2024-01-01T00:00:00Z"`,
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %s in %s", want, got)
		}
	}
	for _, absent := range []string{`"amount_a"`, `"genesis"`, `"liquidity":`} {
		if strings.Contains(got, absent) {
			t.Fatalf("unexpected %s in %s", absent, got)
		}
	}
}

func TestPoolIsEmpty(t *testing.T) {
	if !(Pool{}).IsEmpty() {
		t.Fatalf("zero pool should be empty")
	}
	if (Pool{ReserveA: 1}).IsEmpty() {
		t.Fatalf("pool with reserve should not be empty")
	}
}
