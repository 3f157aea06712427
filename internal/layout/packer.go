package layout

import "time"

// PackRows assigns each item the lowest row whose previous occupant ended
// strictly before the item starts (greedy interval colouring). Items are
// returned sorted by start date, ties in input order, so the result is
// deterministic and uses the minimum number of rows.
func PackRows(items []Item) []Item {
	out := cloneItems(items)
	sortByStart(out)

	rowEnds := make([]time.Time, 0)
	for i := range out {
		row := -1
		for r, end := range rowEnds {
			if end.Before(out[i].Start) {
				row = r
				break
			}
		}
		if row == -1 {
			rowEnds = append(rowEnds, out[i].End)
			row = len(rowEnds) - 1
		} else {
			rowEnds[row] = out[i].End
		}
		out[i].Row = row
	}
	return out
}

// AssignSequentialRows gives every item its own row in start-date order.
func AssignSequentialRows(items []Item) []Item {
	out := cloneItems(items)
	sortByStart(out)
	for i := range out {
		out[i].Row = i
	}
	return out
}
