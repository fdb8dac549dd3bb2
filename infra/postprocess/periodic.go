// Package postprocess folds the per-step result tables of a rolling run into
// per-period tables.
package postprocess

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/IRENA-FlexTool/FlexTool/core/logger"
)

// Aggregation methods.
const (
	MethodSum  = "sum"
	MethodMean = "mean"
)

// Group describes how output/<Key>__t.csv is folded into output/<Key>.csv.
type Group struct {
	Key    string   `json:"key"`
	By     []string `json:"by"`
	Method string   `json:"method"`
	// RelationRows is the number of leading data rows naming the entities of
	// each column. They are copied unchanged.
	RelationRows int `json:"relation_rows"`
}

// Validate checks the method and row count.
func (g Group) Validate() error {
	if g.Key == "" {
		return errors.New("postprocess group without key")
	}
	if g.Method != MethodSum && g.Method != MethodMean {
		return fmt.Errorf("postprocess %s: unknown method %q", g.Key, g.Method)
	}
	if g.RelationRows < 0 {
		return fmt.Errorf("postprocess %s: negative relation_rows", g.Key)
	}
	return nil
}

// DefaultGroups are the period tables the FlexTool model produces per step.
func DefaultGroups() []Group {
	return []Group{
		{Key: "node__period", By: []string{"node"}, Method: MethodSum},
		{Key: "costs__period", Method: MethodSum},
		{Key: "group__process__node__period", Method: MethodSum},
		{Key: "unit_online__period", Method: MethodMean},
		{Key: "unit__inputNode__period", Method: MethodSum, RelationRows: 1},
		{Key: "unit__outputNode__period", Method: MethodSum, RelationRows: 1},
		{Key: "connection__period", Method: MethodSum, RelationRows: 2},
		{Key: "process__reserve__upDown__node__period", Method: MethodMean, RelationRows: 5},
	}
}

// Periodic aggregates result tables in an output directory.
type Periodic struct {
	dir    string
	groups []Group
	log    logger.Logger
}

// NewPeriodic returns a Periodic over dir. Empty groups select DefaultGroups.
func NewPeriodic(dir string, groups []Group, log logger.Logger) *Periodic {
	if len(groups) == 0 {
		groups = DefaultGroups()
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Periodic{dir: dir, groups: groups, log: log}
}

// Run processes every group. Missing step tables are skipped.
func (p *Periodic) Run() error {
	for _, g := range p.groups {
		if err := g.Validate(); err != nil {
			return err
		}
		src := filepath.Join(p.dir, g.Key+"__t.csv")
		if _, err := os.Stat(src); errors.Is(err, os.ErrNotExist) {
			p.log.Warnf("postprocess: %s not found, skipping", filepath.Base(src))
			continue
		}
		if err := p.process(g, src, filepath.Join(p.dir, g.Key+".csv")); err != nil {
			return fmt.Errorf("postprocess %s: %w", g.Key, err)
		}
	}
	return nil
}

type table struct {
	header []string
	rows   [][]string
}

func (t table) col(name string) int {
	for i, h := range t.header {
		if h == name {
			return i
		}
	}
	return -1
}

func readTable(path string) (table, error) {
	f, err := os.Open(path)
	if err != nil {
		return table{}, err
	}
	defer func() { _ = f.Close() }()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err == io.EOF {
		return table{}, errors.New("empty file")
	}
	if err != nil {
		return table{}, err
	}
	rows, err := r.ReadAll()
	if err != nil {
		return table{}, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	return table{header: header, rows: rows}, nil
}

// dropColumn removes the named column from header and rows.
func (t table) dropColumn(name string) table {
	idx := t.col(name)
	if idx < 0 {
		return t
	}
	out := table{header: without(t.header, idx)}
	for _, r := range t.rows {
		if idx < len(r) {
			r = without(r, idx)
		}
		out.rows = append(out.rows, r)
	}
	return out
}

func without(s []string, i int) []string {
	out := make([]string, 0, len(s)-1)
	out = append(out, s[:i]...)
	return append(out, s[i+1:]...)
}

type bucket struct {
	key    []string
	solve  string
	values [][]float64
}

func (p *Periodic) process(g Group, src, dst string) error {
	t, err := readTable(src)
	if err != nil {
		return err
	}
	t = t.dropColumn("time")
	if len(t.rows) < g.RelationRows {
		return fmt.Errorf("expected %d relation rows, found %d rows", g.RelationRows, len(t.rows))
	}
	relation := t.rows[:g.RelationRows]
	data := table{header: t.header, rows: t.rows[g.RelationRows:]}

	keys := append(append([]string{}, g.By...), "period")
	keyIdx := make([]int, len(keys))
	for i, k := range keys {
		if keyIdx[i] = data.col(k); keyIdx[i] < 0 {
			return fmt.Errorf("missing column %s", k)
		}
	}
	solveIdx := data.col("solve")
	numeric := numericColumns(data, keys)

	buckets := map[string]*bucket{}
	for _, r := range data.rows {
		key := make([]string, len(keyIdx))
		for i, k := range keyIdx {
			key[i] = cell(r, k)
		}
		id := strings.Join(key, "\x00")
		b, ok := buckets[id]
		if !ok {
			b = &bucket{key: key, values: make([][]float64, len(numeric))}
			if solveIdx >= 0 {
				b.solve = cell(r, solveIdx)
			}
			buckets[id] = b
		}
		for i, c := range numeric {
			if v := strings.TrimSpace(cell(r, c)); v != "" {
				f, _ := strconv.ParseFloat(v, 64)
				b.values[i] = append(b.values[i], f)
			}
		}
	}
	ordered := make([]*bucket, 0, len(buckets))
	for _, b := range buckets {
		ordered = append(ordered, b)
	}
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i].key, ordered[j].key
		for k := range a {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return false
	})

	// Columns of an aggregated row: group keys, solve, period, numeric values.
	outHeader := append([]string{}, g.By...)
	if solveIdx >= 0 {
		outHeader = append(outHeader, "solve")
	}
	outHeader = append(outHeader, "period")
	for _, c := range numeric {
		outHeader = append(outHeader, data.header[c])
	}
	var outRows [][]string
	for _, b := range ordered {
		row := append([]string{}, b.key[:len(g.By)]...)
		if solveIdx >= 0 {
			row = append(row, b.solve)
		}
		row = append(row, b.key[len(g.By)])
		for _, vals := range b.values {
			row = append(row, format(aggregate(g.Method, vals)))
		}
		outRows = append(outRows, row)
	}

	if g.RelationRows > 0 {
		// Relation tables keep the source column order.
		outRows = reorder(outHeader, t.header, outRows)
		outRows = append(append([][]string{}, relation...), outRows...)
		outHeader = t.header
	}
	p.log.Debugw("postprocess", map[string]any{"key": g.Key, "groups": len(ordered), "method": g.Method})
	return writeTable(dst, outHeader, outRows)
}

// numericColumns returns the columns, other than keys and solve, whose
// non-empty cells all parse as numbers.
func numericColumns(t table, keys []string) []int {
	skip := map[string]bool{"solve": true}
	for _, k := range keys {
		skip[k] = true
	}
	var out []int
	for i, h := range t.header {
		if skip[h] {
			continue
		}
		ok := true
		for _, r := range t.rows {
			v := strings.TrimSpace(cell(r, i))
			if v == "" {
				continue
			}
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, i)
		}
	}
	return out
}

func aggregate(method string, vals []float64) float64 {
	if method == MethodMean {
		if len(vals) == 0 {
			return 0
		}
		return stat.Mean(vals, nil)
	}
	return floats.Sum(vals)
}

// reorder maps rows laid out by from into the column order of to. Columns
// missing in from stay empty.
func reorder(from, to []string, rows [][]string) [][]string {
	pos := make(map[string]int, len(from))
	for i, h := range from {
		pos[h] = i
	}
	out := make([][]string, len(rows))
	for i, r := range rows {
		row := make([]string, len(to))
		for j, h := range to {
			if k, ok := pos[h]; ok {
				row[j] = r[k]
			}
		}
		out[i] = row
	}
	return out
}

func cell(r []string, i int) string {
	if i < len(r) {
		return r[i]
	}
	return ""
}

func format(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func writeTable(path string, header []string, rows [][]string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	return w.WriteAll(rows)
}
