package graph

import (
	"sort"

	"github.com/gammazero/toposort"
)

// LongestChain computes the critical path through the blocking-equivalent
// adjacency: the longest path by hop count from a root (a task with no
// incoming blocking edge) down its dependency chain. This is a topology-only
// schedule-risk proxy; it deliberately does not weight by task duration or
// dates. A duration-weighted variant would be a separate metric, not a
// replacement for this one.
//
// Roots are considered in sorted order and the first root achieving the
// maximum length wins, so results are deterministic. Residual cycles (e.g.
// corrupted state) truncate the search branch instead of recursing forever;
// reporting them is DetectCycles' job, not this function's.
func LongestChain(adj map[string][]string) []string {
	if len(adj) == 0 {
		return nil
	}

	if chain := acyclicLongestChain(adj); chain != nil {
		return chain
	}
	return cyclicLongestChain(adj)
}

// acyclicLongestChain runs a DP over reverse topological order. Returns nil
// when the adjacency has a cycle and the sort fails.
func acyclicLongestChain(adj map[string][]string) []string {
	nodes := allNodes(adj)

	var edges []toposort.Edge
	for _, n := range nodes {
		if len(adj[n]) == 0 {
			edges = append(edges, toposort.Edge{nil, n})
			continue
		}
		for _, next := range adj[n] {
			edges = append(edges, toposort.Edge{n, next})
		}
	}

	order, err := toposort.Toposort(edges)
	if err != nil {
		return nil
	}

	// Children appear after their parents in the order; walk it backwards so
	// every node's successors are computed before the node itself.
	length := make(map[string]int, len(nodes))
	next := make(map[string]string, len(nodes))
	for i := len(order) - 1; i >= 0; i-- {
		n, ok := order[i].(string)
		if !ok {
			continue
		}
		length[n] = 1
		for _, succ := range sortedCopy(adj[n]) {
			if length[succ]+1 > length[n] {
				length[n] = length[succ] + 1
				next[n] = succ
			}
		}
	}

	best := ""
	for _, root := range roots(adj, nodes) {
		if best == "" || length[root] > length[best] {
			best = root
		}
	}
	if best == "" {
		return nil
	}
	return chainFrom(best, next)
}

// cyclicLongestChain is the fallback for adjacencies with residual cycles:
// a bounded DFS from each root with per-branch visited tracking, truncating
// instead of revisiting.
func cyclicLongestChain(adj map[string][]string) []string {
	nodes := allNodes(adj)
	rootSet := roots(adj, nodes)
	if len(rootSet) == 0 {
		// Every node is on a cycle; there is no meaningful chain start.
		return nil
	}

	var best []string
	onPath := make(map[string]bool)

	var dfs func(node string, path []string)
	dfs = func(node string, path []string) {
		onPath[node] = true
		path = append(path, node)
		if len(path) > len(best) {
			best = append([]string(nil), path...)
		}
		for _, next := range sortedCopy(adj[node]) {
			if onPath[next] {
				continue
			}
			dfs(next, path)
		}
		onPath[node] = false
	}

	for _, root := range rootSet {
		dfs(root, nil)
	}
	return best
}

// roots returns the tasks with no incoming blocking edge, sorted.
func roots(adj map[string][]string, nodes []string) []string {
	incoming := make(map[string]bool)
	for _, targets := range adj {
		for _, t := range targets {
			incoming[t] = true
		}
	}
	var out []string
	for _, n := range nodes {
		if !incoming[n] {
			out = append(out, n)
		}
	}
	return out
}

// allNodes returns every task id in the adjacency, sorted.
func allNodes(adj map[string][]string) []string {
	seen := make(map[string]struct{})
	for s, targets := range adj {
		seen[s] = struct{}{}
		for _, t := range targets {
			seen[t] = struct{}{}
		}
	}
	nodes := make([]string, 0, len(seen))
	for n := range seen {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)
	return nodes
}

// chainFrom follows the next pointers starting at root.
func chainFrom(root string, next map[string]string) []string {
	chain := []string{root}
	for {
		n, ok := next[chain[len(chain)-1]]
		if !ok {
			return chain
		}
		chain = append(chain, n)
	}
}

func sortedCopy(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}
