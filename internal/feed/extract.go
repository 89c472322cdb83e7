package feed

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"

	"stockfeed/internal/model"
	"stockfeed/internal/observability"
)

type Stats struct {
	RowsRead      int
	RowsKept      int
	RowsMalformed int
}

// Extract runs one pass over a raw feed: it transcodes r from enc, parses the
// rows and keeps the projection of every row the projector accepts. The kept
// variants are held in memory in feed order.
func Extract(ctx context.Context, r io.Reader, enc encoding.Encoding, p *Projector, logger *zap.Logger) ([]model.ProductVariant, Stats, error) {
	logger = observability.OrNop(logger)
	var stats Stats

	reader, err := NewReader(Transcode(r, enc), logger)
	if err != nil {
		return nil, stats, err
	}

	products := make([]model.ProductVariant, 0)
	for {
		if stats.RowsRead%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, stats, err
			}
		}

		row, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("failed to parse feed: %w", err)
		}
		stats.RowsRead++

		if !p.Keep(row) {
			continue
		}
		products = append(products, p.Project(row, reader.Line()))
		stats.RowsKept++
	}
	stats.RowsMalformed = reader.Malformed()

	observability.FeedRowsTotal.WithLabelValues("read").Add(float64(stats.RowsRead))
	observability.FeedRowsTotal.WithLabelValues("kept").Add(float64(stats.RowsKept))
	logger.Info("feed parsed",
		zap.Int("rows_read", stats.RowsRead),
		zap.Int("rows_kept", stats.RowsKept),
		zap.Int("rows_malformed", stats.RowsMalformed),
	)
	return products, stats, nil
}
