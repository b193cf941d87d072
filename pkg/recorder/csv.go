package recorder

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ja7ad/ecosched/pkg/system/util"
	"github.com/ja7ad/ecosched/pkg/types"
)

// Columns is the structured log schema. Order is fixed.
var Columns = []string{"timestamp", "task", "action", "label", "energy", "battery", "on_ac"}

var (
	// ErrColumns indicates a structured row without exactly len(Columns) fields.
	ErrColumns = errors.New("recorder: wrong column count")
)

// Row is the logical content of one structured log row.
type Row struct {
	Timestamp string
	Task      string
	Action    types.Action
	Label     types.Label
	Energy    float64
	Battery   float64
	OnAC      bool
}

// RowOf projects an entry onto the structured schema.
func RowOf(e Entry) Row {
	d := e.Decision
	return Row{
		Timestamp: d.At.Format(TimeLayout),
		Task:      d.Task.Name,
		Action:    d.Action,
		Label:     d.Label,
		Energy:    d.Energy,
		Battery:   d.Power.BatteryPercent,
		OnAC:      d.Power.OnExternalPower,
	}
}

// Fields returns the row's values in Columns order, unquoted.
func (r Row) Fields() []string {
	onAC := "0"
	if r.OnAC {
		onAC = "1"
	}
	return []string{
		r.Timestamp,
		r.Task,
		r.Action.String(),
		r.Label.String(),
		util.FmtFloat(r.Energy),
		util.FmtFloat(r.Battery),
		onAC,
	}
}

// ParseRow is the inverse of Fields.
func ParseRow(fields []string) (Row, error) {
	if len(fields) != len(Columns) {
		return Row{}, fmt.Errorf("%w: got %d", ErrColumns, len(fields))
	}
	action, err := types.ParseAction(fields[2])
	if err != nil {
		return Row{}, err
	}
	label, err := types.ParseLabel(strings.TrimSpace(fields[3]))
	if err != nil {
		return Row{}, err
	}
	energy, err := strconv.ParseFloat(strings.TrimSpace(fields[4]), 64)
	if err != nil {
		return Row{}, fmt.Errorf("energy: %w", err)
	}
	battery, err := strconv.ParseFloat(strings.TrimSpace(fields[5]), 64)
	if err != nil {
		return Row{}, fmt.Errorf("battery: %w", err)
	}
	var onAC bool
	switch strings.TrimSpace(fields[6]) {
	case "1":
		onAC = true
	case "0":
	default:
		return Row{}, fmt.Errorf("on_ac: unexpected %q", fields[6])
	}
	return Row{
		Timestamp: fields[0],
		Task:      fields[1],
		Action:    action,
		Label:     label,
		Energy:    energy,
		Battery:   battery,
		OnAC:      onAC,
	}, nil
}

// IsHeader reports whether fields is a header row.
func IsHeader(fields []string) bool {
	return len(fields) > 0 && strings.TrimSpace(fields[0]) == Columns[0]
}

// ReadCSV parses a structured log, skipping header rows (an append-only log
// may hold one per file creation).
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var rows []Row
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("recorder: read csv: %w", err)
		}
		if IsHeader(fields) {
			continue
		}
		row, err := ParseRow(fields)
		if err != nil {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("recorder: line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
}

// CSV writes the structured log. The timestamp is always quoted; numeric
// fields never are.
type CSV struct {
	name string
	bw   *bufio.Writer
	c    io.Closer
}

// NewCSV writes to w, emitting the header first when header is true.
func NewCSV(w io.Writer, header bool) (*CSV, error) {
	s := &CSV{name: "csv", bw: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		s.c = c
	}
	if header {
		if err := s.writeLine(strings.Join(Columns, ",")); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// OpenCSV appends to the file at path. The header is written only when the
// file is new or empty, so one file holds one header however many runs
// append to it.
func OpenCSV(path string) (*CSV, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, &SinkError{Sink: path, Op: "open", Err: err}
	}
	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, &SinkError{Sink: path, Op: "open", Err: err}
	}

	s := &CSV{name: path, bw: bufio.NewWriter(f), c: f}
	if fi.Size() == 0 {
		if err := s.writeLine(strings.Join(Columns, ",")); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return s, nil
}

// FormatRow renders r as one CSV line without a trailing newline.
func FormatRow(r Row) string {
	f := r.Fields()
	f[0] = quote(f[0])
	f[1] = quoteIfNeeded(f[1])
	return strings.Join(f, ",")
}

func (s *CSV) Record(_ context.Context, e Entry) error {
	return s.writeLine(FormatRow(RowOf(e)))
}

func (s *CSV) writeLine(line string) error {
	if _, err := s.bw.WriteString(line + "\n"); err != nil {
		return &SinkError{Sink: s.name, Op: "write", Err: err}
	}
	if err := s.bw.Flush(); err != nil {
		return &SinkError{Sink: s.name, Op: "write", Err: err}
	}
	return nil
}

func (s *CSV) Close() error {
	if err := s.bw.Flush(); err != nil {
		return &SinkError{Sink: s.name, Op: "write", Err: err}
	}
	if s.c == nil {
		return nil
	}
	if err := s.c.Close(); err != nil {
		return &SinkError{Sink: s.name, Op: "close", Err: err}
	}
	return nil
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, ",\"\r\n") || strings.TrimSpace(s) != s {
		return quote(s)
	}
	return s
}
