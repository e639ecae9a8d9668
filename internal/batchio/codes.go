// Package batchio reads tracking codes from input files and writes the
// aggregated results. The file extension selects the format.
package batchio

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Коды VASP короче DefaultMinCodeLength не бывают.
const DefaultMinCodeLength = 13

// CodeColumn is the preferred column of a .csv input.
const CodeColumn = "codigo"

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyInput        = errors.New("input file is empty or unreadable")
)

// Codes is the result of loading an input file.
type Codes struct {
	Valid   []string
	Skipped int
}

// ReadCodes loads codes from a .txt or .csv file and drops the ones shorter
// than minLen.
func ReadCodes(path string, minLen int) (Codes, error) {
	if minLen <= 0 {
		minLen = DefaultMinCodeLength
	}

	var (
		codes []string
		err   error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		codes, err = readTXT(path)
	case ".csv":
		codes, err = readCSV(path)
	default:
		return Codes{}, errors.Wrapf(ErrUnsupportedFormat, "%q: use .txt or .csv", path)
	}
	if err != nil {
		return Codes{}, err
	}

	return FilterCodes(codes, minLen), nil
}

// FilterCodes keeps the codes with at least minLen characters, in order.
func FilterCodes(codes []string, minLen int) Codes {
	out := Codes{Valid: make([]string, 0, len(codes))}
	for _, c := range codes {
		if utf8.RuneCountInString(c) >= minLen {
			out.Valid = append(out.Valid, c)
			continue
		}
		out.Skipped++
	}
	return out
}

func readTXT(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open input")
	}
	defer f.Close()

	var codes []string
	lines := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines++
		if line := strings.TrimSpace(sc.Text()); line != "" {
			codes = append(codes, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read input")
	}
	if lines == 0 {
		return nil, errors.Wrapf(ErrEmptyInput, "%q", path)
	}
	return codes, nil
}

func readCSV(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open input")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, errors.Wrapf(ErrEmptyInput, "%q", path)
	}
	if err != nil {
		return nil, errors.Wrap(err, "read csv header")
	}

	col := 0
	for i, h := range header {
		if strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) == CodeColumn {
			col = i
			break
		}
	}

	var codes []string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read csv row")
		}
		if col >= len(rec) {
			continue
		}
		if v := strings.TrimSpace(rec[col]); v != "" {
			codes = append(codes, v)
		}
	}
	return codes, nil
}
