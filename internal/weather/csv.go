package weather

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the ISO date format of the snapshot timestamp column.
const DateLayout = "2006-01-02"

// CSVHeader is the column order of a snapshot file.
var CSVHeader = []string{"city", "timestamp", "temperature", "season"}

var (
	errBadHeader      = errors.New("unexpected header")
	errFieldCount     = errors.New("wrong number of fields")
	errSeasonMismatch = errors.New("season does not match timestamp month")
	errNonFinite      = errors.New("temperature is not a finite number")
)

// ParseError reports a malformed snapshot line. Line is 1-based and counts the
// header.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("csv line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// WriteCSV writes the raw columns of records as a snapshot. Temperatures use
// the shortest representation that parses back to the same float64.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(CSVHeader))
	for _, r := range records {
		row[0] = r.City
		row[1] = r.Timestamp.UTC().Format(DateLayout)
		row[2] = strconv.FormatFloat(r.Temperature, 'f', -1, 64)
		row[3] = string(r.Season)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a snapshot written by WriteCSV. Season is re-derived from the
// timestamp and must match the stored column.
func ReadCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &ParseError{Line: 1, Err: errBadHeader}
	}
	if err != nil {
		return nil, &ParseError{Line: 1, Err: err}
	}
	if !equalHeader(header) {
		return nil, &ParseError{Line: 1, Err: fmt.Errorf("%w: %s", errBadHeader, strings.Join(header, ","))}
	}

	var records []Record
	line := 1
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, &ParseError{Line: line, Err: err}
		}

		rec, err := parseRow(fields)
		if err != nil {
			return nil, &ParseError{Line: line, Err: err}
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRow(fields []string) (Record, error) {
	if len(fields) != len(CSVHeader) {
		return Record{}, fmt.Errorf("%w: got %d, want %d", errFieldCount, len(fields), len(CSVHeader))
	}

	city := strings.TrimSpace(fields[0])
	if city == "" {
		return Record{}, errors.New("empty city")
	}

	ts, err := parseTimestamp(strings.TrimSpace(fields[1]))
	if err != nil {
		return Record{}, err
	}

	temp, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
	if err != nil {
		return Record{}, fmt.Errorf("temperature: %w", err)
	}
	if math.IsNaN(temp) || math.IsInf(temp, 0) {
		return Record{}, fmt.Errorf("%w: %s", errNonFinite, fields[2])
	}

	season, err := ParseSeason(strings.TrimSpace(fields[3]))
	if err != nil {
		return Record{}, err
	}

	rec := NewRecord(city, ts, temp)
	if rec.Season != season {
		return Record{}, fmt.Errorf("%w: %s is %s, not %s", errSeasonMismatch, ts.Format(DateLayout), rec.Season, season)
	}
	return rec, nil
}

// parseTimestamp accepts an ISO date or a date with a time part. The calendar
// day is the one written in the field, whatever its offset.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{DateLayout, "2006-01-02 15:04:05", time.RFC3339} {
		if ts, err := time.Parse(layout, s); err == nil {
			return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

func equalHeader(h []string) bool {
	if len(h) != len(CSVHeader) {
		return false
	}
	for i := range h {
		if strings.TrimSpace(strings.TrimPrefix(h[i], "\ufeff")) != CSVHeader[i] {
			return false
		}
	}
	return true
}
