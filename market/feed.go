package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// BarFeed yields Bar rows one at a time. Implementations should be
// deterministic and return (ok=false, err=nil) at EOF.
type BarFeed interface {
	Next() (b Bar, ok bool, err error)
	Close() error
}

// CSVBarFeed reads bar rows of the form:
//
//	date,open,high,low,close,volume[,code]
//
// where date is "2006-01-02", "2006-01-02 15:04:05", or RFC3339.
// A header row is allowed; empty/short rows are skipped.
type CSVBarFeed struct {
	f      *os.File
	r      *csv.Reader
	symbol string // fallback when the code column is absent

	cols     map[string]int
	sawFirst bool
}

// NewCSVBarFeed opens path for reading. symbol is used for rows that
// carry no code/symbol column of their own.
func NewCSVBarFeed(path, symbol string) (*CSVBarFeed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	return &CSVBarFeed{f: f, r: r, symbol: symbol}, nil
}

func (f *CSVBarFeed) Close() error {
	if f.f != nil {
		return f.f.Close()
	}
	return nil
}

func (f *CSVBarFeed) Next() (Bar, bool, error) {
	for {
		row, err := f.r.Read()
		if err == io.EOF {
			return Bar{}, false, nil
		}
		if err != nil {
			return Bar{}, false, err
		}
		if len(row) < 6 {
			continue
		}

		if !f.sawFirst {
			f.sawFirst = true
			if isHeader(row) {
				f.cols = headerIndex(row)
				continue
			}
			f.cols = defaultIndex()
		}

		b, ok, err := f.parseRow(row)
		if err != nil {
			return Bar{}, false, err
		}
		if !ok {
			continue
		}
		return b, true, nil
	}
}

func (f *CSVBarFeed) parseRow(row []string) (Bar, bool, error) {
	ts := strings.TrimSpace(row[f.cols["date"]])
	if ts == "" {
		return Bar{}, false, nil
	}
	t, err := parseTime(ts)
	if err != nil {
		return Bar{}, false, fmt.Errorf("bad time %q: %w", ts, err)
	}

	b := Bar{Timestamp: t, Symbol: f.symbol}
	if i, ok := f.cols["code"]; ok && i < len(row) {
		if code := strings.TrimSpace(row[i]); code != "" {
			b.Symbol = code
		}
	}

	for _, fld := range [...]struct {
		name string
		dst  *float64
	}{
		{"open", &b.Open},
		{"high", &b.High},
		{"low", &b.Low},
		{"close", &b.Close},
		{"volume", &b.Volume},
	} {
		i, ok := f.cols[fld.name]
		if !ok || i >= len(row) {
			return Bar{}, false, nil
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
		if err != nil {
			return Bar{}, false, fmt.Errorf("bad %s %q: %w", fld.name, row[i], err)
		}
		*fld.dst = v
	}

	return b, true, nil
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range [...]string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized layout")
}

func isHeader(row []string) bool {
	h := strings.ToLower(strings.TrimSpace(row[0]))
	return h == "date" || h == "datetime" || h == "time"
}

func headerIndex(row []string) map[string]int {
	cols := make(map[string]int, len(row))
	for i, name := range row {
		name = strings.ToLower(strings.TrimSpace(name))
		switch name {
		case "datetime", "time":
			name = "date"
		case "symbol":
			name = "code"
		}
		cols[name] = i
	}
	return cols
}

func defaultIndex() map[string]int {
	return map[string]int{
		"date": 0, "open": 1, "high": 2, "low": 3, "close": 4, "volume": 5,
	}
}

// LoadBars drains a feed and verifies ascending timestamp order.
func LoadBars(feed BarFeed) ([]Bar, error) {
	defer feed.Close()

	var bars []Bar
	for {
		b, ok, err := feed.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		bars = append(bars, b)
	}

	if !Sorted(bars) {
		return nil, fmt.Errorf("bars are not sorted ascending by timestamp")
	}
	return bars, nil
}
