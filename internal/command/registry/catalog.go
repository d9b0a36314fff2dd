package registry

var (
	col   = Param{Name: "col", Kind: KindColumn}
	row   = Param{Name: "row", Kind: KindRow}
	value = Param{Name: "value", Kind: KindValue}
)

func aggregate(name, axis, what string, p Param, example string) Signature {
	return Signature{
		Name:        name,
		Category:    axis,
		Params:      []Param{p},
		Description: what + " of the numeric cells in the " + axis,
		Example:     example,
	}
}

// Catalog returns the built-in function signatures
func Catalog() []Signature {
	return []Signature{
		{
			Name:        "update_cell",
			Category:    "cell",
			Params:      []Param{col, row, value},
			Description: "Set the value of a cell, keeping its style",
			Example:     `update_cell(A, 1, "42")`,
		},
		{
			Name:        "remove_cell",
			Category:    "cell",
			Params:      []Param{col, row},
			Description: "Clear the value of a cell, keeping its style",
			Example:     "remove_cell(B, 2)",
		},
		{
			Name:        "get_cell",
			Category:    "cell",
			Params:      []Param{col, row},
			Description: "Read the value of a cell",
			Example:     "get_cell(C, 3)",
		},

		aggregate("sum_col", "column", "Sum", col, "sum_col(A)"),
		aggregate("avg_col", "column", "Average", col, "avg_col(A)"),
		aggregate("count_col", "column", "Number", col, "count_col(A)"),
		aggregate("max_col", "column", "Maximum", col, "max_col(A)"),
		aggregate("min_col", "column", "Minimum", col, "min_col(A)"),
		{
			Name:        "add_col",
			Category:    "column",
			Description: "Append a column with the next default label",
			Example:     "add_col()",
		},
		{
			Name:        "del_col",
			Category:    "column",
			Params:      []Param{col},
			Description: "Delete a column and shift the columns to its right one slot left",
			Example:     "del_col(B)",
		},

		aggregate("sum_row", "row", "Sum", row, "sum_row(1)"),
		aggregate("avg_row", "row", "Average", row, "avg_row(1)"),
		aggregate("count_row", "row", "Number", row, "count_row(1)"),
		aggregate("max_row", "row", "Maximum", row, "max_row(1)"),
		aggregate("min_row", "row", "Minimum", row, "min_row(1)"),
		{
			Name:        "add_row",
			Category:    "row",
			Description: "Append an empty row",
			Example:     "add_row()",
		},
		{
			Name:        "del_row",
			Category:    "row",
			Params:      []Param{row},
			Description: "Delete a row and move the rows below it up",
			Example:     "del_row(2)",
		},

		rangeOp("sum_range", "Sum of the numeric cells in a rectangle", "sum_range(A, 1, C, 5)"),
		rangeOp("avg_range", "Average of the numeric cells in a rectangle", "avg_range(A, 1, C, 5)"),
		rangeOp("clear_range", "Clear every cell value in a rectangle", "clear_range(A, 1, B, 2)"),

		{
			Name:        "clear_all",
			Category:    "sheet",
			Description: "Remove every cell, keeping rows, columns and labels",
			Example:     "clear_all()",
		},
		{
			Name:        "find_cell",
			Category:    "search",
			Params:      []Param{value},
			Description: "List the cells whose value equals the given value, row by row",
			Example:     `find_cell("total")`,
		},
		{
			Name:        "replace_all",
			Category:    "search",
			Params:      []Param{{Name: "old", Kind: KindValue}, {Name: "new", Kind: KindValue}},
			Description: "Replace every cell value equal to old with new",
			Example:     `replace_all("n/a", "0")`,
		},
	}
}

func rangeOp(name, description, example string) Signature {
	return Signature{
		Name:     name,
		Category: "range",
		Params: []Param{
			{Name: "startCol", Kind: KindColumn},
			{Name: "startRow", Kind: KindRow},
			{Name: "endCol", Kind: KindColumn},
			{Name: "endRow", Kind: KindRow},
		},
		Description: description,
		Example:     example,
	}
}
