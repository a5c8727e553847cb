package storage

import (
	"context"
	"errors"
	"testing"

	"ammLedger/internal/model"
)

type countingSink struct {
	n   int
	err error
}

func (c *countingSink) PutEventBatch(_ context.Context, events []model.Event) error {
	c.n += len(events)
	return c.err
}

func TestMultiSinkAttemptsAll(t *testing.T) {
	boom := errors.New("boom")
	first := &countingSink{err: boom}
	second := &countingSink{}

	err := MultiSink{first, second}.PutEventBatch(context.Background(), []model.Event{{Kind: model.EventSwap}})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if first.n != 1 || second.n != 1 {
		t.Fatalf("every sink should receive the batch: %d %d", first.n, second.n)
	}

	if err := (MultiSink{}).PutEventBatch(context.Background(), nil); err != nil {
		t.Fatalf("empty sink: %v", err)
	}
}
