package billing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/codewithayushgupta/voiceBillingAgent/internal/log"
	"github.com/codewithayushgupta/voiceBillingAgent/pkg/ledger"
)

// FileExporter writes text receipts into a directory, one file per bill.
// It stands in for the platform's PDF/share pipeline in headless runs.
type FileExporter struct {
	// Dir is the output directory, created on first export.
	Dir string

	// Now overrides the clock in tests. Nil means time.Now.
	Now func() time.Time
}

// NewFileExporter creates an exporter writing receipts under dir.
func NewFileExporter(dir string) *FileExporter {
	return &FileExporter{Dir: dir}
}

// Export implements Exporter. An empty snapshot returns a nil total and
// writes nothing.
func (e *FileExporter) Export(ctx context.Context, items []ledger.LineItem, customer string) (*float64, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := time.Now()
	if e.Now != nil {
		now = e.Now()
	}

	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating bill directory: %w", err)
	}

	path := filepath.Join(e.Dir, fmt.Sprintf("bill_%d.txt", now.UnixMilli()))
	if err := os.WriteFile(path, []byte(RenderText(items, customer, now)), 0o644); err != nil {
		return nil, fmt.Errorf("writing bill: %w", err)
	}

	total := GrandTotal(items)
	log.Info("bill exported", "path", path, "items", len(items), "total", total)
	return &total, nil
}

// Verify FileExporter implements Exporter at compile time.
var _ Exporter = (*FileExporter)(nil)
