package screen

// Cell is one terminal column. A wide cluster occupies a lead cell with
// Width 2 followed by a continuation cell with Width 0 and no content.
type Cell struct {
	Content string
	Width   int
	Style   Style
}

// Blank is an unstyled space.
var Blank = Cell{Content: " ", Width: 1}

// IsContinuation reports whether c is the trailing half of a wide cell.
func (c Cell) IsContinuation() bool {
	return c.Width == 0
}

func continuation(style Style) Cell {
	return Cell{Style: style}
}
