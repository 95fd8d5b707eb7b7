// internal/report/sql.go
package report

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
)

const baseAlias = "b"

// SQL renders the page query for PostgreSQL with ? placeholders. Each
// source is aggregated in its own grouped subquery so totals from one
// source are not multiplied by the row count of another.
func (s Spec) SQL() (string, []interface{}, error) {
	if err := s.Validate(); err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")

	var projections []string
	for _, col := range s.Columns {
		projections = append(projections, baseAlias+"."+pq.QuoteIdentifier(col))
	}
	for i, src := range s.Sources {
		for _, agg := range src.Aggregates {
			projections = append(projections, sourceAlias(i)+"."+pq.QuoteIdentifier(agg.Alias))
		}
	}
	sb.WriteString(strings.Join(projections, ", "))

	args := s.writeFrom(&sb)

	sb.WriteString(" ORDER BY ")
	if s.OrderBy != "" {
		sb.WriteString(s.orderExpr())
		if s.Desc {
			sb.WriteString(" DESC, ")
		} else {
			sb.WriteString(" ASC, ")
		}
	}
	sb.WriteString(baseAlias + "." + pq.QuoteIdentifier(s.Key) + " ASC")

	if s.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, s.Limit)
	}
	if s.Offset > 0 {
		sb.WriteString(" OFFSET ?")
		args = append(args, s.Offset)
	}

	return sb.String(), args, nil
}

// CountSQL renders the query counting every matching base row, ignoring
// limit and offset.
func (s Spec) CountSQL() (string, []interface{}, error) {
	if err := s.Validate(); err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT COUNT(*)")
	args := s.writeFrom(&sb)
	return sb.String(), args, nil
}

func (s Spec) writeFrom(sb *strings.Builder) []interface{} {
	fmt.Fprintf(sb, " FROM %s %s", pq.QuoteIdentifier(s.Base), baseAlias)

	for i, src := range s.Sources {
		alias := sourceAlias(i)
		fk := pq.QuoteIdentifier(src.ForeignKey)

		selects := []string{fk + " AS " + pq.QuoteIdentifier("_key")}
		for _, agg := range src.Aggregates {
			selects = append(selects, aggregateExpr(agg)+" AS "+pq.QuoteIdentifier(agg.Alias))
		}

		fmt.Fprintf(sb, " INNER JOIN (SELECT %s FROM %s GROUP BY %s) %s ON %s.%s = %s.%s",
			strings.Join(selects, ", "),
			pq.QuoteIdentifier(src.Relation),
			fk,
			alias,
			alias, pq.QuoteIdentifier("_key"),
			baseAlias, pq.QuoteIdentifier(s.Key),
		)
	}

	var args []interface{}
	var conditions []string
	for _, f := range s.Filters {
		if f.Value == "" {
			continue
		}
		conditions = append(conditions, baseAlias+"."+pq.QuoteIdentifier(f.Column)+` ILIKE ? ESCAPE '\'`)
		args = append(args, ContainsPattern(f.Value))
	}
	if len(conditions) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}

	return args
}

func (s Spec) orderExpr() string {
	for i, src := range s.Sources {
		for _, agg := range src.Aggregates {
			if agg.Alias == s.OrderBy {
				return sourceAlias(i) + "." + pq.QuoteIdentifier(agg.Alias)
			}
		}
	}
	return pq.QuoteIdentifier(s.OrderBy)
}

func aggregateExpr(agg Aggregate) string {
	col := pq.QuoteIdentifier(agg.Column)
	switch agg.Func {
	case CountDistinct:
		return "COUNT(DISTINCT " + col + ")"
	case Sum:
		return "SUM(" + col + ")"
	case Avg:
		if agg.Precision > 0 {
			return fmt.Sprintf("ROUND(AVG(%s)::numeric, %d)", col, agg.Precision)
		}
		return "AVG(" + col + ")"
	default:
		return "COUNT(" + col + ")"
	}
}

func sourceAlias(i int) string {
	return fmt.Sprintf("s%d", i)
}
