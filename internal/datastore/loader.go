package datastore

import (
	"context"
	"fmt"

	"github.com/prelev/prelev/internal/contract"
)

// MetadataWriter stores series descriptors and préleveur points.
type MetadataWriter interface {
	PutPreleveur(ctx context.Context, p PreleveurRecord) error
	PutSeries(ctx context.Context, rec SeriesRecord) error

	// MarkLoaded records that the stored data changed
	MarkLoaded(ctx context.Context) error
}

var _ MetadataWriter = &SQLStore{} // Compile-time check

// LoadStats counts what Load imported.
type LoadStats struct {
	Preleveurs int
	Series     int
	Documents  int
	Aggregated int
}

// Load imports a dataset: préleveurs and series go to meta, documents go to
// values. Sub-daily documents get their daily aggregates computed first.
// Once the dataset is valid, meta is marked as loaded, even when Load fails
// part way.
func Load(ctx context.Context, ds *Dataset, meta MetadataWriter, values contract.ValueWriter) (stats LoadStats, err error) {
	if err := ds.Validate(); err != nil {
		return stats, err
	}

	defer func() {
		if markErr := meta.MarkLoaded(context.WithoutCancel(ctx)); markErr != nil && err == nil {
			err = markErr
		}
	}()

	for _, p := range ds.Preleveurs {
		if err := meta.PutPreleveur(ctx, p); err != nil {
			return stats, fmt.Errorf("failed to load préleveur %s: %w", p.ID, err)
		}
		stats.Preleveurs++
	}

	for _, raw := range ds.Series {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		rec := Prepare(raw)
		if err := meta.PutSeries(ctx, rec); err != nil {
			return stats, fmt.Errorf("failed to load series %s: %w", rec.ID, err)
		}
		if err := values.PutDocuments(ctx, rec.ID, rec.Documents); err != nil {
			return stats, fmt.Errorf("failed to load documents of series %s: %w", rec.ID, err)
		}
		stats.Series++
		stats.Documents += len(rec.Documents)
		for _, doc := range rec.Documents {
			if doc.DailyAggregates != nil {
				stats.Aggregated++
			}
		}
	}
	return stats, nil
}
