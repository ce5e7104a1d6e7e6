package pipeline

import (
	"context"
	"log/slog"
)

type DiscoveryError struct {
	Err error
}

func (e *DiscoveryError) Error() string {
	return "location discovery failed: " + e.Err.Error()
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// DiscoverLocations asks the agent which places match idea. An empty result
// is not an error.
func (p *Pipeline) DiscoverLocations(ctx context.Context, idea string) ([]string, error) {
	return p.discover(ctx, p.logger, idea)
}

func (p *Pipeline) discover(ctx context.Context, logger *slog.Logger, idea string) ([]string, error) {
	answer, err := p.agent.Run(ctx, LocationPrompt(idea))
	if err != nil {
		return nil, &DiscoveryError{Err: err}
	}

	names := SplitLocations(answer)
	logger.Info("locations discovered", "count", len(names), "locations", names)
	return names, nil
}
