package escalation

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

// CSVSink appends escalation rows to a header-once CSV file. Each append is
// a single write under both an in-process mutex and an exclusive file lock,
// so concurrent first escalations cannot both write the header.
type CSVSink struct {
	path string
	mu   sync.Mutex
}

// NewCSVSink returns a sink writing to path.
func NewCSVSink(path string) *CSVSink {
	return &CSVSink{path: path}
}

// Path returns the file the sink writes to.
func (s *CSVSink) Path() string {
	return s.path
}

// Append implements workflow.EscalationSink.
func (s *CSVSink) Append(ctx context.Context, record domain.EscalationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open escalation file: %w", err)
	}
	defer f.Close()

	if err := lockFile(f); err != nil {
		return fmt.Errorf("lock escalation file: %w", err)
	}
	defer unlockFile(f) //nolint:errcheck

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat escalation file: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if info.Size() == 0 {
		if err := w.Write(Header); err != nil {
			return err
		}
	}
	if err := w.Write(ToRow(record).columns()); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write escalation row: %w", err)
	}
	return nil
}

// List reads back persisted rows in append order, skipping offset rows and
// returning at most limit (all when limit <= 0). A missing file means no
// escalations yet.
func (s *CSVSink) List(ctx context.Context, limit, offset int) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []Row{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open escalation file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(Header)
	rows := []Row{}
	for line := 0; ; line++ {
		cols, err := r.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read escalation file: %w", err)
		}
		if line == 0 || line <= offset {
			continue
		}
		if limit > 0 && len(rows) >= limit {
			return rows, nil
		}
		rows = append(rows, Row{
			Subject:         cols[0],
			Description:     cols[1],
			FinalCategory:   cols[2],
			FailedDrafts:    cols[3],
			ReviewFeedbacks: cols[4],
		})
	}
}
