// =============================================================================
// Grab Sheet Builder - Partitioner
// =============================================================================
//
// The partitioner splits the joined table into one group per route. Groups
// come back in ascending route order, which fixes the sheet order of the
// output workbook. Rows inside a group are sorted by stop; rows with equal
// stops keep their joined-table order (stable sort).
//
// Routes are matched as written: text "07", text "7" and the number 7 are
// three different routes. Every group has at least one row: a route only
// exists because some joined row carries it. Rows with a blank route belong
// to no sheet; they are left out and counted.
//
// =============================================================================

package partitioner

import (
	"sort"

	"github.com/ginjaninja78/grabsheet/internal/apperrors"
	"github.com/ginjaninja78/grabsheet/internal/types"
)

// RouteGroup holds the rows of one route ordered by stop.
type RouteGroup struct {
	// Route is the route identifier shared by every row.
	Route types.Value

	// Rows are the joined rows, sorted by stop.
	Rows []types.Row
}

// Result is the outcome of Partition.
type Result struct {
	// Groups are the route groups in ascending route order.
	Groups []RouteGroup

	// BlankRoutes counts rows left out because their route was empty.
	BlankRoutes int
}

// Partition groups t by routeColumn and sorts each group by stopColumn.
func Partition(t *types.Table, routeColumn, stopColumn string) (*Result, error) {
	routeIdx := t.Index(routeColumn)
	stopIdx := t.Index(stopColumn)
	if missing := t.MissingColumns(routeColumn, stopColumn); len(missing) > 0 {
		return nil, apperrors.MissingColumns(t.Source, missing)
	}

	result := &Result{}
	index := make(map[string]int)
	var groups []RouteGroup
	for _, row := range t.Rows {
		route := row[routeIdx]
		if route.IsNull() {
			result.BlankRoutes++
			continue
		}
		key := groupKey(route)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, RouteGroup{Route: route})
		}
		groups[i].Rows = append(groups[i].Rows, row)
	}

	sort.SliceStable(groups, func(a, b int) bool {
		return types.Compare(groups[a].Route, groups[b].Route) < 0
	})

	for i := range groups {
		rows := groups[i].Rows
		sort.SliceStable(rows, func(a, b int) bool {
			return types.Compare(rows[a][stopIdx], rows[b][stopIdx]) < 0
		})
	}

	result.Groups = groups
	return result, nil
}

// groupKey separates text routes from numeric ones with the same rendering.
func groupKey(v types.Value) string {
	if v.IsNumber() {
		return "n:" + v.String()
	}
	return "t:" + v.String()
}
