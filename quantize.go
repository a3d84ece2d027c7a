package assemblifier

// colorSteps are the channel intensities of the 6x6x6 terminal color cube.
var colorSteps = [6]uint8{0, 95, 135, 175, 215, 255}

// ClosestStep returns the index of the cube step nearest to v. On a tie the
// lower index wins.
func ClosestStep(v uint8) uint8 {
	closestDiff := 256
	var closest uint8

	for i, step := range colorSteps {
		diff := abs(int(step) - int(v))
		if diff < closestDiff {
			closestDiff = diff
			closest = uint8(i)
		}
	}

	return closest
}

// TerminalColor returns the 256 color terminal code (16 to 231) of the cube
// cell nearest to the given color.
func TerminalColor(r, g, b uint8) uint8 {
	return 16 + ClosestStep(r)*36 + ClosestStep(g)*6 + ClosestStep(b)
}

func abs(n int) int {
	if n < 0 {
		return -1 * n
	}
	return n
}
