package ir

import (
	"fmt"
	"slices"
	"strings"
)

// Cycle is a dependency loop among externally numbered nodes. Path starts
// and ends with the same node.
type Cycle struct {
	Path []int `json:"path"`
}

func (c Cycle) String() string {
	parts := make([]string, len(c.Path))
	for i, n := range c.Path {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, " -> ")
}

// FindCycles reports every strongly connected component of the operand
// graph that forms a loop: components with more than one node, and single
// nodes that use themselves. An acyclic graph yields an empty slice.
//
// deps maps a node to the nodes it uses as operands. Results are ordered by
// the smallest node in each component so output is deterministic.
func FindCycles(deps map[int][]int) []Cycle {
	sccs := tarjanSCC(deps)

	cycles := []Cycle{}
	for _, scc := range sccs {
		if len(scc) > 1 || slices.Contains(deps[scc[0]], scc[0]) {
			cycles = append(cycles, Cycle{Path: cyclePath(scc, deps)})
		}
	}
	slices.SortFunc(cycles, func(a, b Cycle) int {
		return slices.Min(a.Path) - slices.Min(b.Path)
	})
	return cycles
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in ascending order.
func tarjanSCC(deps map[int][]int) [][]int {
	var (
		index   = 0
		stack   []int
		indices = make(map[int]int)
		lowlink = make(map[int]int)
		onStack = make(map[int]bool)
		sccs    [][]int
	)

	var strongConnect func(int)
	strongConnect = func(v int) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range deps[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			slices.Sort(scc)
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]int, 0, len(deps))
	for n := range deps {
		nodes = append(nodes, n)
	}
	slices.Sort(nodes)
	for _, n := range nodes {
		if _, visited := indices[n]; !visited {
			strongConnect(n)
		}
	}
	return sccs
}

// cyclePath returns the shortest loop through the component's smallest
// member, found breadth-first inside the component.
func cyclePath(scc []int, deps map[int][]int) []int {
	start := scc[0]
	members := make(map[int]bool, len(scc))
	for _, n := range scc {
		members[n] = true
	}

	parent := map[int]int{}
	queue := []int{start}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, w := range deps[v] {
			if w == start {
				path := []int{start}
				for n := v; n != start; n = parent[n] {
					path = append(path, n)
				}
				path = append(path, start)
				slices.Reverse(path[1 : len(path)-1])
				return path
			}
			if _, seen := parent[w]; seen || !members[w] {
				continue
			}
			parent[w] = v
			queue = append(queue, w)
		}
	}
	return []int{start}
}
