// internal/report/memory.go
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Row is a record keyed by column name.
type Row map[string]interface{}

// Dataset holds the rows of every relation a Spec refers to.
type Dataset map[string][]Row

// Result is a page of report rows and the number of rows across all pages.
type Result struct {
	Rows  []Row
	Total int64
}

// Evaluate computes the report over in-memory relations with the same
// semantics as the rendered SQL. Count aggregates produce int64, Sum and Avg
// produce decimal.Decimal.
func (s Spec) Evaluate(data Dataset) (Result, error) {
	if err := s.Validate(); err != nil {
		return Result{}, err
	}

	grouped := make([]map[string][]Row, len(s.Sources))
	for i, src := range s.Sources {
		grouped[i] = make(map[string][]Row)
		for _, row := range data[src.Relation] {
			k := keyString(row[src.ForeignKey])
			grouped[i][k] = append(grouped[i][k], row)
		}
	}

	var rows []Row
base:
	for _, baseRow := range data[s.Base] {
		for _, f := range s.Filters {
			if !containsFold(baseRow[f.Column], f.Value) {
				continue base
			}
		}

		out := make(Row, len(s.Columns))
		for _, col := range s.Columns {
			out[col] = baseRow[col]
		}

		k := keyString(baseRow[s.Key])
		for i, src := range s.Sources {
			members := grouped[i][k]
			if len(members) == 0 {
				continue base
			}
			for _, agg := range src.Aggregates {
				v, err := evaluateAggregate(agg, members)
				if err != nil {
					return Result{}, err
				}
				out[agg.Alias] = v
			}
		}
		out[s.Key] = baseRow[s.Key]
		rows = append(rows, out)
	}

	var sortErr error
	sort.SliceStable(rows, func(i, j int) bool {
		if s.OrderBy != "" {
			a, errA := toDecimal(rows[i][s.OrderBy])
			b, errB := toDecimal(rows[j][s.OrderBy])
			if errA != nil || errB != nil {
				sortErr = fmt.Errorf("report: ordering by %s: non-numeric value", s.OrderBy)
				return false
			}
			if cmp := a.Cmp(b); cmp != 0 {
				if s.Desc {
					return cmp > 0
				}
				return cmp < 0
			}
		}
		return compareKeys(rows[i][s.Key], rows[j][s.Key]) < 0
	})
	if sortErr != nil {
		return Result{}, sortErr
	}

	total := int64(len(rows))
	start := s.Offset
	if start > len(rows) {
		start = len(rows)
	}
	end := len(rows)
	if s.Limit > 0 && start+s.Limit < end {
		end = start + s.Limit
	}

	return Result{Rows: rows[start:end], Total: total}, nil
}

func evaluateAggregate(agg Aggregate, members []Row) (interface{}, error) {
	switch agg.Func {
	case Count:
		var n int64
		for _, m := range members {
			if m[agg.Column] != nil {
				n++
			}
		}
		return n, nil

	case CountDistinct:
		seen := make(map[string]struct{})
		for _, m := range members {
			if m[agg.Column] != nil {
				seen[keyString(m[agg.Column])] = struct{}{}
			}
		}
		return int64(len(seen)), nil

	case Sum, Avg:
		sum := decimal.Zero
		var n int64
		for _, m := range members {
			if m[agg.Column] == nil {
				continue
			}
			d, err := toDecimal(m[agg.Column])
			if err != nil {
				return nil, fmt.Errorf("report: %s(%s): %w", agg.Func, agg.Column, err)
			}
			sum = sum.Add(d)
			n++
		}
		if agg.Func == Sum {
			return sum, nil
		}
		if n == 0 {
			return nil, nil
		}
		avg := sum.Div(decimal.NewFromInt(n))
		if agg.Precision > 0 {
			avg = avg.Round(agg.Precision)
		}
		return avg, nil
	}

	return nil, fmt.Errorf("report: unsupported aggregate %s", agg.Func)
}

func toDecimal(v interface{}) (decimal.Decimal, error) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int32:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case uint:
		return decimal.NewFromInt(int64(n)), nil
	case uint64:
		return decimal.NewFromInt(int64(n)), nil
	case float64:
		return decimal.NewFromFloat(n), nil
	case string:
		return decimal.NewFromString(n)
	default:
		return decimal.Zero, fmt.Errorf("unsupported numeric value %T", v)
	}
}

func compareKeys(a, b interface{}) int {
	da, errA := toDecimal(a)
	db, errB := toDecimal(b)
	if errA == nil && errB == nil {
		return da.Cmp(db)
	}
	return strings.Compare(keyString(a), keyString(b))
}

func keyString(v interface{}) string {
	if d, err := toDecimal(v); err == nil {
		return d.String()
	}
	return fmt.Sprint(v)
}

func containsFold(v interface{}, needle string) bool {
	if needle == "" {
		return true
	}
	s, ok := v.(string)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(needle))
}
