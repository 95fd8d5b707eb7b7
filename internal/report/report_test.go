package report

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture() Dataset {
	return Dataset{
		"products": {
			{"id": 1, "name": "Kettle", "category_name": "Kitchen", "supplier_name": "Acme"},
			{"id": 2, "name": "Toaster", "category_name": "Kitchen", "supplier_name": "Globex"},
			{"id": 3, "name": "Lamp", "category_name": "Lighting", "supplier_name": "Acme"},
			{"id": 4, "name": "Mug", "category_name": "Kitchen", "supplier_name": "Acme"},
			{"id": 5, "name": "Rug", "category_name": "100%_Wool", "supplier_name": "Acme"},
		},
		"order_items": {
			{"order_id": 10, "product_id": 1, "quantity": 2},
			{"order_id": 11, "product_id": 1, "quantity": 1},
			{"order_id": 12, "product_id": 2, "quantity": 5},
			{"order_id": 13, "product_id": 2, "quantity": 1},
			{"order_id": 14, "product_id": 3, "quantity": 3},
			{"order_id": 15, "product_id": 4, "quantity": 1},
			{"order_id": 16, "product_id": 5, "quantity": 1},
		},
		"reviews": {
			{"product_id": 1, "rating": 5},
			{"product_id": 1, "rating": 4},
			{"product_id": 1, "rating": 4},
			{"product_id": 2, "rating": 3},
			{"product_id": 3, "rating": 2},
			{"product_id": 5, "rating": 5},
		},
	}
}

func TestEvaluate_Bestsellers(t *testing.T) {
	res, err := Bestsellers("", "", 25, 0).Evaluate(fixture())
	require.NoError(t, err)

	// Mug has no review so it is excluded.
	assert.Equal(t, int64(4), res.Total)
	require.Len(t, res.Rows, 4)

	var ids []interface{}
	for _, r := range res.Rows {
		ids = append(ids, r["id"])
	}
	assert.Equal(t, []interface{}{1, 2, 3, 5}, ids)

	kettle := res.Rows[0]
	assert.Equal(t, int64(2), kettle[AliasTimesOrdered])
	assert.True(t, decimal.NewFromInt(3).Equal(kettle[AliasUnitsOrdered].(decimal.Decimal)))
	assert.Equal(t, "4.33", kettle[AliasAverageRating].(decimal.Decimal).StringFixed(2))
}

func TestEvaluate_ReviewsDoNotMultiplyOrderTotals(t *testing.T) {
	res, err := Bestsellers("", "", 25, 0).Evaluate(fixture())
	require.NoError(t, err)

	// Kettle has three reviews and two order lines totalling three units.
	assert.Equal(t, "3", res.Rows[0][AliasUnitsOrdered].(decimal.Decimal).String())
}

func TestEvaluate_TiesBreakOnKeyAscending(t *testing.T) {
	res, err := Bestsellers("", "", 25, 0).Evaluate(fixture())
	require.NoError(t, err)

	// Lamp (3) and Rug (5) were both ordered once.
	assert.Equal(t, 3, res.Rows[2]["id"])
	assert.Equal(t, 5, res.Rows[3]["id"])
}

func TestEvaluate_FiltersAreCaseInsensitiveContains(t *testing.T) {
	res, err := Bestsellers("KITCH", "", 25, 0).Evaluate(fixture())
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Total)

	res, err = Bestsellers("", "acm", 25, 0).Evaluate(fixture())
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Total)

	res, err = Bestsellers("kitchen", "globex", 25, 0).Evaluate(fixture())
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, 2, res.Rows[0]["id"])
}

func TestEvaluate_Pagination(t *testing.T) {
	res, err := Bestsellers("", "", 3, 3).Evaluate(fixture())
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.Total)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, 5, res.Rows[0]["id"])

	res, err = Bestsellers("", "", 3, 9).Evaluate(fixture())
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.Total)
	assert.Empty(t, res.Rows)
}

func TestSQL_Bestsellers(t *testing.T) {
	query, args, err := Bestsellers("kitchen", "", 10, 20).SQL()
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT b."id", b."name", b."description", b."price", b."stock", b."category_name", b."supplier_name", b."thumbnail", `+
			`s0."num_of_times_ordered", s0."total_units_ordered", s1."average_rating" `+
			`FROM "products" b `+
			`INNER JOIN (SELECT "product_id" AS "_key", COUNT(DISTINCT "order_id") AS "num_of_times_ordered", SUM("quantity") AS "total_units_ordered" FROM "order_items" GROUP BY "product_id") s0 ON s0."_key" = b."id" `+
			`INNER JOIN (SELECT "product_id" AS "_key", ROUND(AVG("rating")::numeric, 2) AS "average_rating" FROM "reviews" GROUP BY "product_id") s1 ON s1."_key" = b."id" `+
			`WHERE b."category_name" ILIKE ? ESCAPE '\' `+
			`ORDER BY s0."num_of_times_ordered" DESC, b."id" ASC LIMIT ? OFFSET ?`,
		query)
	assert.Equal(t, []interface{}{"%kitchen%", 10, 20}, args)
}

func TestCountSQL_Bestsellers(t *testing.T) {
	query, args, err := Bestsellers("kitchen", "acme", 10, 0).CountSQL()
	require.NoError(t, err)

	assert.Contains(t, query, "SELECT COUNT(*) FROM \"products\" b INNER JOIN")
	assert.Contains(t, query, `WHERE b."category_name" ILIKE ? ESCAPE '\' AND b."supplier_name" ILIKE ? ESCAPE '\'`)
	assert.NotContains(t, query, "LIMIT")
	assert.Equal(t, []interface{}{"%kitchen%", "%acme%"}, args)
}

func TestContainsPattern_EscapesWildcards(t *testing.T) {
	assert.Equal(t, "%%", ContainsPattern(""))
	assert.Equal(t, `%100\%\_Wool%`, ContainsPattern("100%_Wool"))
	assert.Equal(t, `%a\\b%`, ContainsPattern(`a\b`))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Spec)
	}{
		{name: "missing base", mutate: func(s *Spec) { s.Base = "" }},
		{name: "no sources", mutate: func(s *Spec) { s.Sources = nil }},
		{name: "unknown ordering alias", mutate: func(s *Spec) { s.OrderBy = "nope" }},
		{name: "duplicate alias", mutate: func(s *Spec) { s.Sources[1].Aggregates[0].Alias = AliasTimesOrdered }},
		{name: "negative offset", mutate: func(s *Spec) { s.Offset = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := Bestsellers("", "", 10, 0)
			tt.mutate(&spec)
			assert.Error(t, spec.Validate())

			_, _, err := spec.SQL()
			assert.Error(t, err)
			_, err = spec.Evaluate(fixture())
			assert.Error(t, err)
		})
	}
}
