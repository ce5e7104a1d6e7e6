package pipeline

import (
	"context"
	"log/slog"

	"github.com/mr1hm/disaster-scout/internal/metrics"
	"github.com/mr1hm/disaster-scout/internal/models"
	"github.com/mr1hm/disaster-scout/internal/worker"
)

// Geocode resolves each name independently. Names that fail to resolve are
// logged and dropped; the result keeps input order.
func (p *Pipeline) Geocode(ctx context.Context, names []string) []models.GeocodedLocation {
	return p.geocode(ctx, p.logger, names)
}

func (p *Pipeline) geocode(ctx context.Context, logger *slog.Logger, names []string) []models.GeocodedLocation {
	slots := make([]*models.GeocodedLocation, len(names))

	err := worker.Run(ctx, p.workers, len(names), func(ctx context.Context, i int) error {
		coords, err := p.geocoder.Geocode(ctx, names[i])
		if err != nil {
			metrics.GeocodeResults.WithLabelValues("failed").Inc()
			logger.Info("location not found or geocoding error", "location", names[i], "error", err)
			return nil
		}
		metrics.GeocodeResults.WithLabelValues("ok").Inc()
		slots[i] = &models.GeocodedLocation{
			Location:  names[i],
			Latitude:  coords.Latitude,
			Longitude: coords.Longitude,
		}
		return nil
	})
	if err != nil {
		logger.Warn("geocoding stopped early", "error", err)
	}

	located := make([]models.GeocodedLocation, 0, len(names))
	for _, l := range slots {
		if l != nil {
			located = append(located, *l)
		}
	}
	return located
}
