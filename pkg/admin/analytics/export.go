package analytics

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"commerce-assistant/pkg/rag"
)

// Attachment describes a generated file.
type Attachment struct {
	Name string `json:"name"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

const (
	AttachmentCSV = "csv"
	utf8BOM       = "\ufeff"
)

var ErrInvalidExportName = errors.New("invalid export file name")

// Exporter writes CSV files into one directory and builds their public URLs.
type Exporter struct {
	dir     string
	baseURL string
	now     func() time.Time
}

// NewExporter serves files at baseURL + "/" + name. dir is created on the
// first write.
func NewExporter(dir, baseURL string) *Exporter {
	return &Exporter{dir: dir, baseURL: strings.TrimRight(baseURL, "/"), now: time.Now}
}

func (e *Exporter) WithClock(now func() time.Time) *Exporter {
	e.now = now
	return e
}

// FileName builds "<prefix>_<timestamp>.csv" with ':' and '.' replaced by '-'.
func (e *Exporter) FileName(prefix string) string {
	ts := e.now().UTC().Format("2006-01-02T15:04:05.000Z")
	ts = strings.NewReplacer(":", "-", ".", "-").Replace(ts)
	return prefix + "_" + ts + ".csv"
}

// Write stores header and rows as a UTF-8 CSV with a BOM and returns the
// attachment. Failures wrap rag.ErrExport.
func (e *Exporter) Write(prefix string, header []string, rows [][]string) (*Attachment, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create export dir: %v", rag.ErrExport, err)
	}

	name := e.FileName(prefix)
	f, err := os.Create(filepath.Join(e.dir, name))
	if err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", rag.ErrExport, name, err)
	}

	buf := bufio.NewWriter(f)
	writeErr := writeCSV(buf, header, rows)
	if writeErr == nil {
		writeErr = buf.Flush()
	}
	if closeErr := f.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		_ = os.Remove(filepath.Join(e.dir, name))
		return nil, fmt.Errorf("%w: write %s: %v", rag.ErrExport, name, writeErr)
	}

	return &Attachment{Name: name, Type: AttachmentCSV, URL: e.baseURL + "/" + name}, nil
}

func writeCSV(w *bufio.Writer, header []string, rows [][]string) error {
	if _, err := w.WriteString(utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// Path returns the on-disk path of a previously exported file. Names with
// directory parts or other extensions are rejected.
func (e *Exporter) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".csv" {
		return "", ErrInvalidExportName
	}
	return filepath.Join(e.dir, name), nil
}
