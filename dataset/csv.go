package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/aayushagarwaltech-bot/Transportation/pkg/errors"
	"github.com/aayushagarwaltech-bot/Transportation/pkg/fsutil"
)

const utf8BOM = "\ufeff"

// ReadCSV loads a comma separated file with a header row. Rows shorter than
// the header are padded with empty (missing) cells; longer rows are a
// DataFormatError naming the line.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewDataFormatError(path, 0, "cannot open", err)
	}
	defer f.Close()

	return readCSV(path, f)
}

// ParseCSV is ReadCSV over an in-memory payload; name is used in errors.
func ParseCSV(name string, data []byte) (*Table, error) {
	return readCSV(name, bytes.NewReader(data))
}

func readCSV(path string, r io.Reader) (*Table, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && string(head) == utf8BOM {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.NewDataFormatError(path, 1, "empty file", nil)
	}
	if err != nil {
		return nil, errors.NewDataFormatError(path, csvLine(err, 1), "malformed header", err)
	}
	if !validUTF8(header) {
		return nil, errors.NewDataFormatError(path, 1, "invalid UTF-8", nil)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if err := checkHeader(path, header); err != nil {
		return nil, err
	}

	var rows [][]string
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewDataFormatError(path, csvLine(err, 0), "malformed row", err)
		}
		line, _ := cr.FieldPos(0)
		if !validUTF8(record) {
			return nil, errors.NewDataFormatError(path, line, "invalid UTF-8", nil)
		}
		switch {
		case len(record) > len(header):
			return nil, errors.NewDataFormatError(path, line,
				"row has more fields than the header", nil)
		case len(record) < len(header):
			padded := make([]string, len(header))
			copy(padded, record)
			record = padded
		}
		rows = append(rows, record)
	}
	return &Table{Columns: header, Rows: rows}, nil
}

func validUTF8(record []string) bool {
	for _, field := range record {
		if !utf8.ValidString(field) {
			return false
		}
	}
	return true
}

func csvLine(err error, fallback int) int {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return pe.Line
	}
	return fallback
}

// WriteCSV writes t with a header row and \n line endings. The file is
// replaced atomically.
func WriteCSV(path string, t *Table) error {
	return fsutil.WriteFileAtomic(path, 0o644, func(w io.Writer) error {
		return t.WriteTo(w)
	})
}

// WriteTo encodes t as CSV into w.
func (t *Table) WriteTo(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return errors.WithStack(err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return errors.WithStack(err)
	}
	return nil
}
