package storage

import (
	"context"

	"go.uber.org/multierr"

	"ammLedger/internal/model"
)

// MultiSink fans a batch out to every sink. All sinks are attempted; the
// errors are combined.
type MultiSink []EventSink

func (m MultiSink) PutEventBatch(ctx context.Context, events []model.Event) error {
	var err error
	for _, sink := range m {
		err = multierr.Append(err, sink.PutEventBatch(ctx, events))
	}
	return err
}
