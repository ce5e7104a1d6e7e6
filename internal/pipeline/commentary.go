package pipeline

import (
	"context"
	"log/slog"

	"github.com/mr1hm/disaster-scout/internal/metrics"
	"github.com/mr1hm/disaster-scout/internal/models"
	"github.com/mr1hm/disaster-scout/internal/outputparser"
	"github.com/mr1hm/disaster-scout/internal/worker"
)

// Enrich fetches structured commentary for every location. A location whose
// agent run or output parsing fails is logged and skipped.
func (p *Pipeline) Enrich(ctx context.Context, locations []models.GeocodedLocation) []models.CommentaryRecord {
	return p.enrich(ctx, p.logger, locations)
}

func (p *Pipeline) enrich(ctx context.Context, logger *slog.Logger, locations []models.GeocodedLocation) []models.CommentaryRecord {
	instructions := outputparser.FormatInstructions(outputparser.CommentarySchemas)
	slots := make([]*models.CommentaryRecord, len(locations))

	err := worker.Run(ctx, p.workers, len(locations), func(ctx context.Context, i int) error {
		loc := locations[i]

		answer, err := p.agent.Run(ctx, CommentaryPrompt(loc.Location, instructions))
		if err != nil {
			metrics.CommentaryResults.WithLabelValues("agent_failed").Inc()
			logger.Warn("commentary agent failed", "location", loc.Location, "error", err)
			return nil
		}

		fields, err := outputparser.Parse(answer, outputparser.CommentarySchemas)
		if err != nil {
			metrics.CommentaryResults.WithLabelValues("parse_failed").Inc()
			logger.Warn("commentary output not parseable", "location", loc.Location, "error", err)
			return nil
		}

		metrics.CommentaryResults.WithLabelValues("ok").Inc()
		rec := models.NewCommentaryRecord(fields["commentary"], fields["date"], fields["source"], loc)
		slots[i] = &rec
		return nil
	})
	if err != nil {
		logger.Warn("commentary stopped early", "error", err)
	}

	records := make([]models.CommentaryRecord, 0, len(locations))
	for _, r := range slots {
		if r != nil {
			records = append(records, *r)
		}
	}
	return records
}
