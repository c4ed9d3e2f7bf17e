package pipeline

import (
	"log/slog"

	"github.com/tallgrasslabs/weathermate-ingest/internal/domain"
)

// StationTransformer implements Transformer using the field catalog's decode
// facade.
type StationTransformer struct {
	catalog *domain.Catalog
	station string
	logger  *slog.Logger
}

// NewTransformer creates a StationTransformer for one station.
func NewTransformer(catalog *domain.Catalog, station string, logger *slog.Logger) *StationTransformer {
	return &StationTransformer{
		catalog: catalog,
		station: station,
		logger:  logger,
	}
}

// Transform decodes one raw block. It returns false for absent or structurally
// unusable input; an empty-but-present block yields a record with no fields,
// which the pipeline counts and drops.
func (t *StationTransformer) Transform(raw []byte) (domain.Record, bool) {
	obs := t.catalog.Decode(raw)
	if obs == nil {
		return domain.Record{}, false
	}
	return domain.NewRecord(t.station, obs), true
}
