// internal/report/spec.go
package report

import (
	"fmt"
	"strings"
)

type AggFunc int

const (
	Count AggFunc = iota
	CountDistinct
	Sum
	Avg
)

func (f AggFunc) String() string {
	switch f {
	case Count:
		return "COUNT"
	case CountDistinct:
		return "COUNT DISTINCT"
	case Sum:
		return "SUM"
	case Avg:
		return "AVG"
	default:
		return fmt.Sprintf("AggFunc(%d)", int(f))
	}
}

// Aggregate is one computed column over a source relation.
type Aggregate struct {
	Func   AggFunc
	Column string
	Alias  string
	// Precision rounds Avg results to this many decimal places when positive.
	Precision int32
}

// Source is a relation grouped by the column that references the base key.
// A base row without at least one matching source row is excluded.
type Source struct {
	Relation   string
	ForeignKey string
	Aggregates []Aggregate
}

// Filter keeps base rows whose Column contains Value, ignoring case. An
// empty Value matches every row.
type Filter struct {
	Column string
	Value  string
}

// Spec describes a grouped report over a base relation, independent of how
// it is evaluated.
type Spec struct {
	Base    string
	Key     string
	Columns []string
	Sources []Source
	Filters []Filter
	// OrderBy names an aggregate alias. Rows with equal values fall back to
	// ascending Key order.
	OrderBy string
	Desc    bool
	Limit   int
	Offset  int
}

func (s Spec) Validate() error {
	if s.Base == "" || s.Key == "" {
		return fmt.Errorf("report: base relation and key are required")
	}
	if len(s.Sources) == 0 {
		return fmt.Errorf("report: at least one source is required")
	}

	aliases := make(map[string]bool)
	for _, col := range s.Columns {
		aliases[col] = true
	}
	for _, src := range s.Sources {
		if src.Relation == "" || src.ForeignKey == "" {
			return fmt.Errorf("report: source needs a relation and a foreign key")
		}
		for _, agg := range src.Aggregates {
			if agg.Alias == "" || agg.Column == "" {
				return fmt.Errorf("report: aggregate on %s needs a column and an alias", src.Relation)
			}
			if aliases[agg.Alias] {
				return fmt.Errorf("report: duplicate output column %q", agg.Alias)
			}
			aliases[agg.Alias] = true
		}
	}

	if s.OrderBy != "" && s.aggregate(s.OrderBy) == nil {
		return fmt.Errorf("report: unknown ordering alias %q", s.OrderBy)
	}
	if s.Limit < 0 || s.Offset < 0 {
		return fmt.Errorf("report: limit and offset must not be negative")
	}
	return nil
}

func (s Spec) aggregate(alias string) *Aggregate {
	for i := range s.Sources {
		for j := range s.Sources[i].Aggregates {
			if s.Sources[i].Aggregates[j].Alias == alias {
				return &s.Sources[i].Aggregates[j]
			}
		}
	}
	return nil
}

// ContainsPattern turns value into an ILIKE pattern matching it as a literal
// substring.
func ContainsPattern(value string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
	return "%" + escaped + "%"
}
