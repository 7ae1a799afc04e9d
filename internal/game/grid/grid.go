// Package grid provides pure geometry over the fixed rectangular battle grid:
// bounds checks, distances, adjacency, range enumeration, and line of sight.
package grid

// Position is an integer grid coordinate. Equality is value equality.
type Position struct {
	X int
	Y int
}

// Grid describes the dimensions of a rectangular battle grid.
type Grid struct {
	Width  int
	Height int
}

// Contains reports whether p lies inside the grid bounds.
//
// Postcondition: Returns true iff 0 <= p.X < Width and 0 <= p.Y < Height.
func (g Grid) Contains(p Position) bool {
	return p.X >= 0 && p.X < g.Width && p.Y >= 0 && p.Y < g.Height
}

// Distance returns the Manhattan distance between a and b. It is used both as
// the pathfinding heuristic and as the attack range check.
func Distance(a, b Position) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

// Adjacent returns the orthogonal neighbors of p that lie inside the grid.
//
// Postcondition: Returns at most 4 positions, all satisfying Contains.
func (g Grid) Adjacent(p Position) []Position {
	candidates := [4]Position{
		{p.X, p.Y - 1},
		{p.X + 1, p.Y},
		{p.X, p.Y + 1},
		{p.X - 1, p.Y},
	}
	neighbors := make([]Position, 0, 4)
	for _, c := range candidates {
		if g.Contains(c) {
			neighbors = append(neighbors, c)
		}
	}
	return neighbors
}

// CellsInRange returns every valid position within Manhattan distance r of p,
// inclusive. p itself is included when it lies inside the grid.
//
// Precondition: r >= 0.
// Postcondition: Every returned position satisfies Contains and Distance <= r.
func (g Grid) CellsInRange(p Position, r int) []Position {
	var cells []Position
	for dx := -r; dx <= r; dx++ {
		rest := r - abs(dx)
		for dy := -rest; dy <= rest; dy++ {
			c := Position{p.X + dx, p.Y + dy}
			if g.Contains(c) {
				cells = append(cells, c)
			}
		}
	}
	return cells
}

// LineOfSight reports whether the straight path from one cell to another is
// free of obstacles. The endpoints themselves never block; only obstacle
// cells strictly between them do.
//
// Postcondition: Returns true iff no obstacle lies on the segment interior.
func LineOfSight(from, to Position, obstacles []Position) bool {
	blocked := make(map[Position]bool, len(obstacles))
	for _, o := range obstacles {
		blocked[o] = true
	}

	// Bresenham walk from 'from' to 'to'.
	dx := abs(to.X - from.X)
	dy := -abs(to.Y - from.Y)
	sx := sign(to.X - from.X)
	sy := sign(to.Y - from.Y)
	err := dx + dy

	cur := from
	for {
		if cur != from && cur != to && blocked[cur] {
			return false
		}
		if cur == to {
			return true
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			cur.X += sx
		}
		if e2 <= dx {
			err += dx
			cur.Y += sy
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	default:
		return 0
	}
}
