package graph

import "sort"

// StronglyConnectedComponents returns the SCCs of the graph using an
// iterative Tarjan algorithm (linear time, no recursion so deep graphs
// cannot blow the stack). Recursive calls and circular imports show up as
// components with more than one member, or a single member with a
// self-edge.
//
// Components are sorted internally and by their first member, so output is
// deterministic for a given graph.
func (g *Graph) StronglyConnectedComponents() [][]string {
	g.mu.RLock()
	nodes := g.nodeIDsLocked()
	succ := make(map[string][]string, len(nodes))
	for src, edges := range g.out {
		seen := make(map[string]struct{}, len(edges))
		for _, e := range edges {
			if _, dup := seen[e.TargetID]; !dup {
				seen[e.TargetID] = struct{}{}
				succ[src] = append(succ[src], e.TargetID)
			}
		}
		sort.Strings(succ[src])
	}
	g.mu.RUnlock()

	index := make(map[string]int, len(nodes))
	lowlink := make(map[string]int, len(nodes))
	onStack := make(map[string]bool, len(nodes))
	var stack []string
	var components [][]string
	counter := 0

	type frame struct {
		node string
		next int // index into succ[node] to resume at
	}

	for _, root := range nodes {
		if _, seen := index[root]; seen {
			continue
		}

		callStack := []frame{{node: root}}
		index[root] = counter
		lowlink[root] = counter
		counter++
		stack = append(stack, root)
		onStack[root] = true

		for len(callStack) > 0 {
			top := &callStack[len(callStack)-1]
			node := top.node
			advanced := false

			for top.next < len(succ[node]) {
				target := succ[node][top.next]
				top.next++
				if _, seen := index[target]; !seen {
					index[target] = counter
					lowlink[target] = counter
					counter++
					stack = append(stack, target)
					onStack[target] = true
					callStack = append(callStack, frame{node: target})
					advanced = true
					break
				}
				if onStack[target] && index[target] < lowlink[node] {
					lowlink[node] = index[target]
				}
			}
			if advanced {
				continue
			}

			// Node finished: pop a component if it is a root
			if lowlink[node] == index[node] {
				var component []string
				for {
					member := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[member] = false
					component = append(component, member)
					if member == node {
						break
					}
				}
				sort.Strings(component)
				components = append(components, component)
			}

			callStack = callStack[:len(callStack)-1]
			if len(callStack) > 0 {
				parent := callStack[len(callStack)-1].node
				if lowlink[node] < lowlink[parent] {
					lowlink[parent] = lowlink[node]
				}
			}
		}
	}

	sort.Slice(components, func(i, j int) bool {
		return components[i][0] < components[j][0]
	})
	return components
}

// Cycles returns only the components that form cycles: more than one
// member, or one member with a self-edge.
func (g *Graph) Cycles() [][]string {
	var cycles [][]string
	for _, comp := range g.StronglyConnectedComponents() {
		if len(comp) > 1 {
			cycles = append(cycles, comp)
			continue
		}
		for _, e := range g.Callees(comp[0]) {
			if e.TargetID == comp[0] {
				cycles = append(cycles, comp)
				break
			}
		}
	}
	return cycles
}
