package graph

import (
	"github.com/leapstack-labs/reportql/pkg/core"
)

// Analysis is the connectivity result for an active model selection.
type Analysis struct {
	// Degree maps model ID to its undirected edge count
	Degree map[string]int
	// Components lists connected components in visitation order; each
	// component's members are in visitation order too
	Components [][]string
	// PrimaryIndex is the index of the primary component in Components.
	// The primary component is the first one discovered during the
	// left-to-right scan of the model list, not the largest.
	PrimaryIndex int
	// Disconnected is every selected model outside the primary component,
	// in model-list order
	Disconnected []string
}

// Analyze builds an undirected adjacency structure from the active models and
// configured joins, then computes per-model degree, connected components via
// breadth-first traversal, and the disconnected set. An edge exists between A
// and B when any join references the pair in either direction; joins touching
// deselected models are ignored. A model with zero edges is its own singleton
// component.
func Analyze(models []string, joins []core.JoinCondition) *Analysis {
	selected := make(map[string]struct{}, len(models))
	for _, id := range models {
		selected[id] = struct{}{}
	}

	adjacency := make(map[string][]string, len(models))
	degree := make(map[string]int, len(models))
	for _, id := range models {
		adjacency[id] = nil
		degree[id] = 0
	}

	edgeSeen := make(map[string]struct{}, len(joins))
	for _, j := range joins {
		if _, ok := selected[j.LeftModel]; !ok {
			continue
		}
		if _, ok := selected[j.RightModel]; !ok {
			continue
		}
		if j.LeftModel == j.RightModel {
			continue
		}
		// Parallel joins between the same pair count as one edge
		key := (core.ModelPair{A: j.LeftModel, B: j.RightModel}).Key()
		if _, ok := edgeSeen[key]; ok {
			continue
		}
		edgeSeen[key] = struct{}{}

		adjacency[j.LeftModel] = append(adjacency[j.LeftModel], j.RightModel)
		adjacency[j.RightModel] = append(adjacency[j.RightModel], j.LeftModel)
		degree[j.LeftModel]++
		degree[j.RightModel]++
	}

	// BFS from each unvisited model, scanning the model list left to right
	// so component order follows visitation order
	visited := make(map[string]struct{}, len(models))
	var components [][]string
	for _, start := range models {
		if _, ok := visited[start]; ok {
			continue
		}

		var component []string
		queue := []string{start}
		visited[start] = struct{}{}
		for len(queue) > 0 {
			node := queue[0]
			queue = queue[1:]
			component = append(component, node)
			for _, neighbor := range adjacency[node] {
				if _, ok := visited[neighbor]; ok {
					continue
				}
				visited[neighbor] = struct{}{}
				queue = append(queue, neighbor)
			}
		}
		components = append(components, component)
	}

	analysis := &Analysis{
		Degree:       degree,
		Components:   components,
		PrimaryIndex: 0,
	}

	if len(components) > 1 {
		primary := make(map[string]struct{}, len(components[0]))
		for _, id := range components[0] {
			primary[id] = struct{}{}
		}
		for _, id := range models {
			if _, ok := primary[id]; !ok {
				analysis.Disconnected = append(analysis.Disconnected, id)
			}
		}
	}

	return analysis
}
