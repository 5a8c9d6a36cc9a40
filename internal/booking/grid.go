package booking

// GenerateGrid returns every multiple of GridGranularity t with
// OpenTime <= t < CloseTime, in ascending order.
func GenerateGrid(c Community) []TimeOfDay {
	if c.OpenTime >= c.CloseTime {
		return nil
	}
	step := TimeOfDay(GridGranularity)
	first := c.OpenTime
	if rem := first % step; rem != 0 {
		first += step - rem
	}
	if first >= c.CloseTime {
		return nil
	}
	grid := make([]TimeOfDay, 0, int((c.CloseTime-first+step-1)/step))
	for t := first; t < c.CloseTime; t += step {
		grid = append(grid, t)
	}
	return grid
}

// OnGrid reports whether t is a candidate slot start for c.
func OnGrid(c Community, t TimeOfDay) bool {
	return t >= c.OpenTime && t < c.CloseTime && t%TimeOfDay(GridGranularity) == 0
}
