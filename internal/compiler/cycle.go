package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/propsolve/internal/ir"
)

// FeedbackLoop represents a cycle of ports through connections.
//
// Loops are info, not errors: the fixed-point solver terminates on them.
// Under an equality discipline every port of a loop resolves to the same
// element, which is worth pointing out.
type FeedbackLoop struct {
	Path    []string `json:"path"`    // Port path: ["top.A.out", "top.B.in", "top.B.out", "top.A.in", "top.A.out"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "info"
}

// AnalyzeFeedback performs static loop analysis on a model.
//
// The algorithm:
//  1. Build a port dependency graph: every connection is an edge, and every
//     input of an atomic or FSM actor reaches every output of that actor
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or self-loops as a feedback loop
//
// A model without loops returns an empty list.
func AnalyzeFeedback(m *ir.Model) []FeedbackLoop {
	graph := buildPortGraph(m)
	if len(graph) == 0 {
		return []FeedbackLoop{}
	}

	sccs := tarjanSCC(graph)

	loops := []FeedbackLoop{}
	for _, scc := range sccs {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			loops = append(loops, sccToLoop(scc, graph))
		}
	}
	slices.SortFunc(loops, func(a, b FeedbackLoop) int {
		return strings.Compare(a.Path[0], b.Path[0])
	})
	return loops
}

// portGraph maps a port full name to the ports it feeds.
type portGraph map[string][]string

func buildPortGraph(m *ir.Model) portGraph {
	graph := make(portGraph)
	walkActors(&m.Root, m.Root.Name, func(a *ir.Actor, path string) {
		for _, p := range a.Ports {
			name := path + "." + p.Name
			if graph[name] == nil {
				graph[name] = []string{}
			}
		}

		switch a.Kind {
		case ir.ActorComposite:
			for _, conn := range a.Connections {
				from := path + "." + conn.From
				to := path + "." + conn.To
				graph[from] = append(graph[from], to)
			}
		default:
			for _, in := range a.Ports {
				if in.Direction != ir.DirInput {
					continue
				}
				for _, out := range a.Ports {
					if out.Direction == ir.DirOutput {
						name := path + "." + in.Name
						graph[name] = append(graph[name], path+"."+out.Name)
					}
				}
			}
		}
	})
	return graph
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph portGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
//
// Returns a list of SCCs, where each SCC is a list of port names.
// Single-node SCCs without self-loops are NOT cycles.
func tarjanSCC(graph portGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		// Set the depth index for v
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		// Consider successors of v
		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// If v is a root node, pop the stack and create an SCC
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	// Visit nodes in name order so results are reproducible.
	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	slices.Sort(nodes)
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

func sccToLoop(scc []string, graph portGraph) FeedbackLoop {
	if len(scc) == 1 {
		port := scc[0]
		return FeedbackLoop{
			Path:    []string{port, port},
			Message: fmt.Sprintf("port feeds itself: %s -> %s", port, port),
			Level:   "info",
		}
	}

	path := reconstructCyclePath(scc, graph)
	return FeedbackLoop{
		Path:    path,
		Message: fmt.Sprintf("feedback loop: %s", strings.Join(path, " -> ")),
		Level:   "info",
	}
}

// reconstructCyclePath builds a cycle path from an SCC, starting at its
// smallest port name and following edges inside the SCC back to the start.
func reconstructCyclePath(scc []string, graph portGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	sccSet := make(map[string]bool)
	for _, node := range scc {
		sccSet[node] = true
	}

	start := slices.Min(scc)
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if sccSet[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}

		if next == "" {
			break
		}

		path = append(path, next)

		if next == start {
			break
		}

		current = next
	}

	return path
}
