package feed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"stockfeed/internal/observability"
)

var ErrEmptyFeed = errors.New("feed: missing header row")

var nonWord = regexp.MustCompile(`[^\w_]`)

// NormalizeKey turns a feed column title into its canonical key:
// "Nom de la catégorie par défaut" becomes "nom_de_la_catgorie_par_dfaut".
func NormalizeKey(key string) string {
	key = strings.TrimSpace(key)
	key = strings.ReplaceAll(key, " ", "_")
	key = nonWord.ReplaceAllString(key, "")
	return strings.ToLower(key)
}

// Row maps canonical keys to the raw values of one feed line.
type Row map[string]string

// Reader yields the data rows of a semicolon separated feed, one at a time.
// Rows whose field count differs from the header are mapped by position:
// missing trailing fields become empty strings and extra fields are dropped.
type Reader struct {
	csv       *csv.Reader
	keys      []string
	line      int
	malformed int
	logger    *zap.Logger
}

// NewReader consumes the header row of r.
func NewReader(r io.Reader, logger *zap.Logger) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFeed
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read feed header: %w", err)
	}

	keys := make([]string, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		keys[i] = NormalizeKey(name)
	}

	return &Reader{
		csv:    cr,
		keys:   keys,
		line:   1,
		logger: observability.OrNop(logger),
	}, nil
}

// Keys returns the canonical header keys in column order.
func (r *Reader) Keys() []string {
	return r.keys
}

// Line is the 1-based line number of the last record returned.
func (r *Reader) Line() int {
	return r.line
}

// Malformed counts rows that were unreadable or had the wrong field count.
func (r *Reader) Malformed() int {
	return r.malformed
}

// Next returns the next data row, or io.EOF once the feed is exhausted.
// Unreadable records are logged and skipped.
func (r *Reader) Next() (Row, error) {
	for {
		record, err := r.csv.Read()
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}

		var perr *csv.ParseError
		if errors.As(err, &perr) {
			r.line = perr.Line
			r.malformed++
			observability.FeedRowsTotal.WithLabelValues("malformed").Inc()
			r.logger.Warn("skipping unreadable feed row", zap.Int("line", perr.Line), zap.Error(err))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read feed row after line %d: %w", r.line, err)
		}
		r.line, _ = r.csv.FieldPos(0)

		if len(record) != len(r.keys) {
			r.malformed++
			observability.FeedRowsTotal.WithLabelValues("malformed").Inc()
			r.logger.Debug("feed row field count mismatch",
				zap.Int("line", r.line),
				zap.Int("fields", len(record)),
				zap.Int("expected", len(r.keys)),
			)
		}

		row := make(Row, len(r.keys))
		for i, key := range r.keys {
			if i < len(record) {
				row[key] = record[i]
			} else {
				row[key] = ""
			}
		}
		return row, nil
	}
}
