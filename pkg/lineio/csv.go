// Package lineio reads and writes per-frame lines as a single CSV file.
//
// The format has a "Frame,X,Y" header and one row per line. X and Y hold
// the quoted, comma-separated coordinate lists of the line's vertices:
//
//	Frame,X,Y
//	12,"10.0,20.0,30.0","5.0,5.5,6.0"
package lineio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"whiskertrace/internal/models"
)

var header = []string{"Frame", "X", "Y"}

// Save writes every line of data in ascending time order. precision is the
// number of digits after the decimal point.
func Save(w io.Writer, data *models.LineData, precision int) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, t := range data.Times() {
		for _, line := range data.AtTime(t) {
			xs := make([]string, len(line))
			ys := make([]string, len(line))
			for i, p := range line {
				xs[i] = strconv.FormatFloat(p.X, 'f', precision, 64)
				ys[i] = strconv.FormatFloat(p.Y, 'f', precision, 64)
			}
			row := []string{strconv.FormatInt(int64(t), 10), strings.Join(xs, ","), strings.Join(ys, ",")}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("writing frame %d: %w", t, err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// Load parses a file produced by Save. Rows with an empty coordinate list
// are kept as empty lines.
func Load(r io.Reader) (*models.LineData, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3
	cr.TrimLeadingSpace = true

	first, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return models.NewLineData(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if !strings.EqualFold(first[0], header[0]) {
		return nil, fmt.Errorf("unexpected header %q", strings.Join(first, ","))
	}

	data := models.NewLineData()
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}
		frame, err := strconv.ParseInt(strings.TrimSpace(rec[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid frame %q: %w", rec[0], err)
		}
		xs, err := parseList(rec[1])
		if err != nil {
			return nil, fmt.Errorf("frame %d x: %w", frame, err)
		}
		ys, err := parseList(rec[2])
		if err != nil {
			return nil, fmt.Errorf("frame %d y: %w", frame, err)
		}
		if len(xs) != len(ys) {
			return nil, fmt.Errorf("frame %d: %d x values but %d y values", frame, len(xs), len(ys))
		}
		line := make(models.Line, len(xs))
		for i := range xs {
			line[i] = models.Point{X: xs[i], Y: ys[i]}
		}
		data.AddAtTime(models.TimeFrameIndex(frame), line, false)
	}
	return data, nil
}

// SaveFile writes data to path, replacing any existing file.
func SaveFile(path string, data *models.LineData, precision int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := Save(f, data, precision); err != nil {
		f.Close()
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return f.Close()
}

// LoadFile reads lines from path.
func LoadFile(path string) (*models.LineData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	data, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return data, nil
}

func parseList(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
