package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"wishlist-tracker/models"
)

var (
	snapshotHeader = []string{
		"item_id", "external_id", "name", "by_line", "list_name",
		"captured_at", "price", "price_used_new", "rating", "num_reviews",
	}
	historyHeader = []string{
		"item_id", "captured_at", "list_name",
		"price", "price_used_new", "rating", "num_reviews",
	}
)

// CSVWriter exports snapshots and observation history as CSV.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	closer io.Closer
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at path.
// Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}
	return &CSVWriter{closer: f, writer: csv.NewWriter(f)}, nil
}

// NewCSVWriterTo writes CSV to w, e.g. stdout.
func NewCSVWriterTo(w io.Writer) *CSVWriter {
	return &CSVWriter{writer: csv.NewWriter(w)}
}

// WriteSnapshot writes a header and one row per snapshot entry.
// Unavailable fields are written as N/A.
func (c *CSVWriter) WriteSnapshot(rows []models.SnapshotRow) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.writer.Write(snapshotHeader); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	for _, r := range rows {
		capturedAt := models.NotAvailable
		if r.HasObservation() {
			capturedAt = r.CapturedAt.Format(time.RFC3339)
		}
		row := []string{
			r.ItemID,
			r.ExternalID,
			r.Name,
			r.ByLine,
			r.ListName,
			capturedAt,
			r.Price.String(),
			r.UsedNewPrice.String(),
			r.Rating.String(),
			strconv.Itoa(r.ReviewCount),
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// WriteHistory writes a header and one row per observation.
func (c *CSVWriter) WriteHistory(history []models.Observation) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.writer.Write(historyHeader); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	for _, o := range history {
		row := []string{
			o.ItemID,
			o.CapturedAt.Format(time.RFC3339Nano),
			o.ListName,
			o.Price.String(),
			o.UsedNewPrice.String(),
			o.Rating.String(),
			strconv.Itoa(o.ReviewCount),
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file, if any.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	if c.closer == nil {
		return c.writer.Error()
	}
	return c.closer.Close()
}
