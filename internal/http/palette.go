package http

// categoryPalette colors the category breakdown. Colors follow breakdown
// position, so a report always renders the same way.
var categoryPalette = []string{"#0088FE", "#00C49F", "#FFBB28", "#FF8042", "#A28FD0", "#FF6666"}

func categoryColor(index int) string {
	if index < 0 {
		index = -index
	}
	return categoryPalette[index%len(categoryPalette)]
}
