// internal/report/bestsellers.go
package report

// Output aliases of the bestsellers report. They match the column names
// models.Bestseller scans from.
const (
	AliasTimesOrdered  = "num_of_times_ordered"
	AliasUnitsOrdered  = "total_units_ordered"
	AliasAverageRating = "average_rating"
)

var productColumns = []string{
	"id", "name", "description", "price", "stock", "category_name", "supplier_name", "thumbnail",
}

// Bestsellers ranks products that have been ordered and reviewed at least
// once by the number of distinct orders containing them.
func Bestsellers(category, supplier string, limit, offset int) Spec {
	return Spec{
		Base:    "products",
		Key:     "id",
		Columns: productColumns,
		Sources: []Source{
			{
				Relation:   "order_items",
				ForeignKey: "product_id",
				Aggregates: []Aggregate{
					{Func: CountDistinct, Column: "order_id", Alias: AliasTimesOrdered},
					{Func: Sum, Column: "quantity", Alias: AliasUnitsOrdered},
				},
			},
			{
				Relation:   "reviews",
				ForeignKey: "product_id",
				Aggregates: []Aggregate{
					{Func: Avg, Column: "rating", Alias: AliasAverageRating, Precision: 2},
				},
			},
		},
		Filters: []Filter{
			{Column: "category_name", Value: category},
			{Column: "supplier_name", Value: supplier},
		},
		OrderBy: AliasTimesOrdered,
		Desc:    true,
		Limit:   limit,
		Offset:  offset,
	}
}
