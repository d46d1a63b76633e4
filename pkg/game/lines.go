package game

// WinningLines is how many completed lines a player needs to win.
const WinningLines = 5

var diagonals = [2][BoardSide]int{
	{0, 6, 12, 18, 24},
	{4, 8, 12, 16, 20},
}

// CountCompletedLines returns how many of the 12 lines (5 rows, 5 columns
// and both diagonals) are fully marked.
func CountCompletedLines(marks Marks) int {
	lines := 0

	for i := 0; i < BoardSide; i++ {
		row, col := true, true
		for j := 0; j < BoardSide; j++ {
			row = row && marks[i*BoardSide+j]
			col = col && marks[j*BoardSide+i]
		}
		if row {
			lines++
		}
		if col {
			lines++
		}
	}

	for _, diagonal := range diagonals {
		complete := true
		for _, idx := range diagonal {
			complete = complete && marks[idx]
		}
		if complete {
			lines++
		}
	}

	return lines
}
