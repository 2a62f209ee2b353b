package metrics

import "context"

// StatsSource provides aggregate queries over the catalog for the library
// stats endpoints.
type StatsSource interface {
	GetGenreDistribution(ctx context.Context) (map[string]int, error)
	GetFormatDistribution(ctx context.Context) (map[string]int, error)
	GetYearDistribution(ctx context.Context) (map[string]int, error)
	GetTracksCount(ctx context.Context) (int, error)
	GetAlbumsCount(ctx context.Context) (int, error)
	GetArtistsCount(ctx context.Context) (int, error)
	GetTotalPlays(ctx context.Context) (int, error)
}

// Overview is the aggregate library snapshot served by the stats endpoint.
type Overview struct {
	Tracks  int            `json:"tracks"`
	Albums  int            `json:"albums"`
	Artists int            `json:"artists"`
	Plays   int            `json:"plays"`
	Genres  map[string]int `json:"genres"`
	Formats map[string]int `json:"formats"`
	Years   map[string]int `json:"years"`
}

// Service assembles library statistics from the catalog.
type Service struct {
	source StatsSource
}

// NewService creates a new metrics service.
func NewService(source StatsSource) *Service {
	return &Service{source: source}
}

// GetOverview collects the full library snapshot.
func (s *Service) GetOverview(ctx context.Context) (*Overview, error) {
	overview := &Overview{}
	var err error

	if overview.Tracks, err = s.source.GetTracksCount(ctx); err != nil {
		return nil, err
	}
	if overview.Albums, err = s.source.GetAlbumsCount(ctx); err != nil {
		return nil, err
	}
	if overview.Artists, err = s.source.GetArtistsCount(ctx); err != nil {
		return nil, err
	}
	if overview.Plays, err = s.source.GetTotalPlays(ctx); err != nil {
		return nil, err
	}
	if overview.Genres, err = s.source.GetGenreDistribution(ctx); err != nil {
		return nil, err
	}
	if overview.Formats, err = s.source.GetFormatDistribution(ctx); err != nil {
		return nil, err
	}
	if overview.Years, err = s.source.GetYearDistribution(ctx); err != nil {
		return nil, err
	}
	return overview, nil
}
