package audit

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"houseprice/internal/models"
	"houseprice/internal/pipeline"
)

// Worker runs every delivered event through the audit pipeline and commits
// it once all steps succeed. Failed events stay uncommitted and are replayed
// after a restart; both sinks tolerate duplicates.
type Worker struct {
	iterator *Iterator[models.PredictionEvent]
	pipeline *pipeline.Pipeline[models.PredictionEvent]
}

// NewWorker wires the standard pipeline: the Postgres insert and the archive
// upload run in parallel. Either sink may be nil.
func NewWorker(source MessageIterator, sink *PostgresSink, archiver Archiver, bucket string) *Worker {
	var steps []pipeline.Step[models.PredictionEvent]
	if sink != nil {
		steps = append(steps, sink.Insert)
	}
	if archiver != nil {
		steps = append(steps, func(ctx context.Context, e *models.PredictionEvent) error {
			return archiver.StoreEvent(ctx, bucket, *e)
		})
	}
	return &Worker{
		iterator: NewIterator[models.PredictionEvent](source),
		pipeline: pipeline.NewPipeline(pipeline.NewStage("record", steps...)),
	}
}

// Stats counts what a Run processed.
type Stats struct {
	Recorded int
	Failed   int
}

// Run blocks until the source is exhausted or ctx is canceled.
func (w *Worker) Run(ctx context.Context) Stats {
	var stats Stats
	for d := range w.iterator.Deliveries(ctx) {
		if err := w.pipeline.Run(ctx, &d.Data); err != nil {
			stats.Failed++
			log.Error().Err(err).Str("id", d.Data.ID).Msg("failed to record prediction")
			continue
		}
		if err := d.Commit(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Str("id", d.Data.ID).Msg("failed to commit offset")
		}
		stats.Recorded++
		log.Debug().Str("id", d.Data.ID).Str("user", d.Data.User).Msg("prediction recorded")
	}
	log.Info().Int("recorded", stats.Recorded).Int("failed", stats.Failed).Msg("audit worker finished")
	return stats
}
