package movement

import (
	"container/heap"

	"github.com/cory-johannsen/skirmish/internal/game/grid"
)

// iterationCapFactor bounds the A* search at factor * grid area expansions so
// a pathological board yields a no-path result instead of a stalled battle.
const iterationCapFactor = 4

type pathNode struct {
	pos    grid.Position
	g      int
	f      int
	index  int
	parent *pathNode
}

type pathQueue []*pathNode

func (pq pathQueue) Len() int { return len(pq) }

func (pq pathQueue) Less(i, j int) bool { return pq[i].f < pq[j].f }

func (pq pathQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *pathQueue) Push(x any) {
	n := len(*pq)
	item := x.(*pathNode)
	item.index = n
	*pq = append(*pq, item)
}

func (pq *pathQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

// FindPath searches for a shortest path from start to goal over the
// 4-connected grid, avoiding blocked cells. The goal cell is exempt from the
// blocked check so a unit can path up to a cell that only the mover will
// occupy. The returned path excludes start and includes goal, so its length
// is the number of steps taken.
//
// Postcondition: ok is false when no path exists or the iteration cap is hit;
// the search never loops forever.
func FindPath(g grid.Grid, start, goal grid.Position, blocked map[grid.Position]bool) ([]grid.Position, bool) {
	if !g.Contains(start) || !g.Contains(goal) {
		return nil, false
	}
	if start == goal {
		return []grid.Position{}, true
	}

	maxIterations := g.Width * g.Height * iterationCapFactor

	open := &pathQueue{}
	heap.Init(open)
	heap.Push(open, &pathNode{pos: start, g: 0, f: grid.Distance(start, goal)})
	gScore := map[grid.Position]int{start: 0}
	closed := make(map[grid.Position]bool)

	for iterations := 0; open.Len() > 0 && iterations < maxIterations; iterations++ {
		current := heap.Pop(open).(*pathNode)
		if closed[current.pos] {
			continue
		}
		closed[current.pos] = true

		if current.pos == goal {
			return reconstructPath(current), true
		}

		for _, next := range g.Adjacent(current.pos) {
			if blocked[next] && next != goal {
				continue
			}
			if closed[next] {
				continue
			}
			tentativeG := current.g + 1
			if prev, ok := gScore[next]; ok && tentativeG >= prev {
				continue
			}
			gScore[next] = tentativeG
			heap.Push(open, &pathNode{
				pos:    next,
				g:      tentativeG,
				f:      tentativeG + grid.Distance(next, goal),
				parent: current,
			})
		}
	}
	return nil, false
}

// reconstructPath walks parent links back to the start node and reverses the
// result. The start cell itself is omitted.
func reconstructPath(end *pathNode) []grid.Position {
	var path []grid.Position
	for node := end; node.parent != nil; node = node.parent {
		path = append(path, node.pos)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
