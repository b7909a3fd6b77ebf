package graph

import (
	"sort"
	"strings"
)

// DetectCycles finds directed cycles in the blocking-equivalent adjacency
// using DFS with a shared visited set and a recursion stack, O(V+E). Every
// unvisited node is tried as a root so disjoint cycles are all reported.
// Cycle identity is the set of member tasks: the same cycle discovered from
// different entry points is deduplicated after rotating each path to start
// at its smallest task id.
func DetectCycles(adj map[string][]string) [][]string {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	var allCycles [][]string

	var dfs func(node string, path []string)
	dfs = func(node string, path []string) {
		visited[node] = true
		recStack[node] = true
		path = append(path, node)

		for _, next := range adj[node] {
			if !visited[next] {
				dfs(next, path)
			} else if recStack[next] {
				// Found a cycle: the path slice from next to node.
				start := -1
				for i, n := range path {
					if n == next {
						start = i
						break
					}
				}
				if start >= 0 {
					cycle := make([]string, len(path)-start)
					copy(cycle, path[start:])
					allCycles = append(allCycles, cycle)
				}
			}
		}

		recStack[node] = false
	}

	for _, node := range sortedKeys(adj) {
		if !visited[node] {
			dfs(node, nil)
		}
	}

	seen := make(map[string]bool)
	var cycles [][]string
	for _, cycle := range allCycles {
		normalized := normalizeCycle(cycle)
		key := strings.Join(normalized, "\x00")
		if !seen[key] {
			seen[key] = true
			cycles = append(cycles, normalized)
		}
	}
	return cycles
}

// WouldCreateCycle reports whether adding the canonical blocking edge
// source -> target to the adjacency would introduce a cycle. When it would,
// the returned path is the full cycle starting at source: the edge itself
// followed by the existing chain from target back to source.
func WouldCreateCycle(adj map[string][]string, source, target string) ([]string, bool) {
	if source == target {
		return []string{source, source}, true
	}
	path := findPath(adj, target, source)
	if path == nil {
		return nil, false
	}
	// path runs target..source; prepend source to close the loop.
	cycle := append([]string{source}, path...)
	return cycle, true
}

// findPath returns a directed path from start to goal, or nil.
func findPath(adj map[string][]string, start, goal string) []string {
	visited := make(map[string]bool)

	var dfs func(node string, path []string) []string
	dfs = func(node string, path []string) []string {
		visited[node] = true
		path = append(path, node)
		if node == goal {
			found := make([]string, len(path))
			copy(found, path)
			return found
		}
		for _, next := range adj[node] {
			if visited[next] {
				continue
			}
			if found := dfs(next, path); found != nil {
				return found
			}
		}
		return nil
	}

	return dfs(start, nil)
}

// normalizeCycle rotates a cycle to start with the lexicographically
// smallest task id, so the same cycle found from different entry points
// compares equal.
func normalizeCycle(cycle []string) []string {
	if len(cycle) == 0 {
		return cycle
	}
	minIdx := 0
	for i, id := range cycle {
		if id < cycle[minIdx] {
			minIdx = i
		}
	}
	result := make([]string, len(cycle))
	for i := range cycle {
		result[i] = cycle[(minIdx+i)%len(cycle)]
	}
	return result
}

// sortedKeys returns the adjacency's keys in sorted order so detection is
// deterministic across runs.
func sortedKeys(adj map[string][]string) []string {
	keys := make([]string, 0, len(adj))
	for k := range adj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
