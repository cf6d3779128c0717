// AngelaMos | 2026
// aggregate.go

package shoppinglist

import (
	"math/big"
	"sort"
	"strings"
)

// Line is one recipe_ingredients row reached through the user's cart.
type Line struct {
	Name            string `db:"name"`
	MeasurementUnit string `db:"measurement_unit"`
	Amount          int64  `db:"amount"`
}

// Item is a summed shopping list entry. TotalAmount never overflows.
type Item struct {
	Name            string   `json:"name"`
	MeasurementUnit string   `json:"measurement_unit"`
	TotalAmount     *big.Int `json:"total_amount"`
}

type groupKey struct {
	name string
	unit string
}

// Aggregate groups lines by (name, unit), sums each group and orders the
// result by name, then unit. Same name with different units stay apart.
func Aggregate(lines []Line) []Item {
	totals := make(map[groupKey]*big.Int, len(lines))
	for _, l := range lines {
		k := groupKey{name: l.Name, unit: l.MeasurementUnit}
		sum, ok := totals[k]
		if !ok {
			sum = new(big.Int)
			totals[k] = sum
		}
		sum.Add(sum, big.NewInt(l.Amount))
	}

	items := make([]Item, 0, len(totals))
	for k, sum := range totals {
		items = append(items, Item{
			Name:            k.name,
			MeasurementUnit: k.unit,
			TotalAmount:     sum,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].MeasurementUnit < items[j].MeasurementUnit
	})

	return items
}

const header = "Shopping list:"

// RenderText formats items as the downloadable plain-text list.
func RenderText(items []Item) string {
	var b strings.Builder

	b.WriteString(header)
	b.WriteByte('\n')

	for _, it := range items {
		b.WriteString(it.Name)
		b.WriteString(" (")
		b.WriteString(it.MeasurementUnit)
		b.WriteString(") - ")
		b.WriteString(it.TotalAmount.String())
		b.WriteByte('\n')
	}

	return b.String()
}
