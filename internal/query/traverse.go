// Package query answers read-side questions about the graph:
// neighbor lookups, impact radius, search, and context bundles.
package query

import (
	"sort"

	"github.com/abramin/codegraph/internal/graph"
	"github.com/abramin/codegraph/internal/store"
)

// Direction selects which edges a traversal follows.
type Direction string

const (
	DirectionOutgoing Direction = "outgoing"
	DirectionIncoming Direction = "incoming"
	DirectionBoth     Direction = "both"
)

// TraversalOptions bounds a subgraph expansion.
type TraversalOptions struct {
	MaxDepth  int
	EdgeKinds []graph.EdgeKind
	Direction Direction
	// Limit caps collected edges; traversal stops once reached.
	Limit        int
	IncludeStart bool
}

// Subgraph is the result of a bounded traversal.
type Subgraph struct {
	Nodes map[string]graph.Node `json:"nodes"`
	Edges []graph.Edge          `json:"edges"`
	Roots []string              `json:"roots"`
}

// CallSite pairs a neighbor with the line of the linking edge.
type CallSite struct {
	Node graph.Node `json:"node"`
	Line int        `json:"line,omitempty"`
}

// ImpactNode is a symbol reached by impact analysis, tagged with its
// shortest distance from the seed.
type ImpactNode struct {
	Node  graph.Node `json:"node"`
	Depth int        `json:"depth"`
}

// Engine runs traversals against a store.
type Engine struct {
	store *store.Store
}

func NewEngine(st *store.Store) *Engine {
	return &Engine{store: st}
}

// Callers returns the symbols with a calls edge into id, one hop.
func (e *Engine) Callers(id string, limit int) ([]CallSite, error) {
	return e.neighbors(id, false, limit)
}

// Callees returns the symbols id has a calls edge to, one hop.
func (e *Engine) Callees(id string, limit int) ([]CallSite, error) {
	return e.neighbors(id, true, limit)
}

func (e *Engine) neighbors(id string, outgoing bool, limit int) ([]CallSite, error) {
	var edges []graph.Edge
	var err error
	if outgoing {
		edges, err = e.store.EdgesFrom(id, graph.EdgeCalls, limit)
	} else {
		edges, err = e.store.EdgesTo(id, graph.EdgeCalls, limit)
	}
	if err != nil {
		return nil, err
	}

	var sites []CallSite
	for _, edge := range edges {
		other := edge.Source
		if outgoing {
			other = edge.Target
		}
		node, err := e.store.GetNode(other)
		if err != nil {
			return nil, err
		}
		if node == nil {
			continue
		}
		sites = append(sites, CallSite{Node: *node, Line: edge.Line})
	}
	return sites, nil
}

// Impact walks incoming call and reference edges from id, collecting
// everything that could be affected by changing it. Results carry the
// shortest discovered depth; the seed itself is excluded. The visited
// set guarantees termination on cyclic graphs.
func (e *Engine) Impact(id string, maxDepth, maxNodes int) ([]ImpactNode, error) {
	if maxDepth <= 0 {
		maxDepth = 2
	}
	if maxNodes <= 0 {
		maxNodes = 50
	}

	// An unknown seed yields an empty result, same as the other read
	// operations.
	seed, err := e.store.GetNode(id)
	if err != nil {
		return nil, err
	}
	if seed == nil {
		return nil, nil
	}

	sub, err := e.Subgraph([]string{id}, TraversalOptions{
		MaxDepth:  maxDepth,
		EdgeKinds: []graph.EdgeKind{graph.EdgeCalls, graph.EdgeReferences},
		Direction: DirectionIncoming,
		Limit:     maxNodes,
	})
	if err != nil {
		return nil, err
	}

	// Shortest depth per node via BFS over the collected edges.
	depths := map[string]int{id: 0}
	frontier := []string{id}
	incoming := make(map[string][]string)
	for _, edge := range sub.Edges {
		incoming[edge.Target] = append(incoming[edge.Target], edge.Source)
	}
	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, cur := range frontier {
			for _, src := range incoming[cur] {
				if _, seen := depths[src]; seen {
					continue
				}
				depths[src] = depth
				next = append(next, src)
			}
		}
		frontier = next
	}

	var result []ImpactNode
	for nodeID, depth := range depths {
		if nodeID == id {
			continue
		}
		node, ok := sub.Nodes[nodeID]
		if !ok {
			continue
		}
		result = append(result, ImpactNode{Node: node, Depth: depth})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Depth != result[j].Depth {
			return result[i].Depth < result[j].Depth
		}
		return result[i].Node.QualifiedName < result[j].Node.QualifiedName
	})
	if len(result) > maxNodes {
		result = result[:maxNodes]
	}
	return result, nil
}

// Subgraph expands from the roots breadth-first, bounded by depth and
// edge count.
func (e *Engine) Subgraph(roots []string, opts TraversalOptions) (*Subgraph, error) {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 200
	}
	if opts.Direction == "" {
		opts.Direction = DirectionBoth
	}

	sub := &Subgraph{
		Nodes: make(map[string]graph.Node),
		Roots: roots,
	}
	visited := make(map[string]bool)
	seenEdge := make(map[string]bool)

	type item struct {
		id    string
		depth int
	}
	queue := make([]item, 0, len(roots))
	for _, root := range roots {
		queue = append(queue, item{id: root})
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth > opts.MaxDepth || visited[cur.id] {
			continue
		}
		visited[cur.id] = true

		if opts.IncludeStart || cur.depth > 0 {
			node, err := e.store.GetNode(cur.id)
			if err != nil {
				return nil, err
			}
			if node != nil {
				sub.Nodes[cur.id] = *node
			}
		}

		if len(sub.Edges) >= opts.Limit {
			break
		}

		edges, err := e.edgesAround(cur.id, opts)
		if err != nil {
			return nil, err
		}
		for _, edge := range edges {
			if len(sub.Edges) >= opts.Limit {
				break
			}
			next := edge.Target
			if edge.Target == cur.id {
				next = edge.Source
			}
			key := edge.Source + "|" + edge.Target + "|" + string(edge.Kind)
			if !seenEdge[key] {
				seenEdge[key] = true
				sub.Edges = append(sub.Edges, edge)
			}
			if cur.depth+1 <= opts.MaxDepth {
				queue = append(queue, item{id: next, depth: cur.depth + 1})
			}
		}
	}

	return sub, nil
}

func (e *Engine) edgesAround(id string, opts TraversalOptions) ([]graph.Edge, error) {
	kinds := opts.EdgeKinds
	if len(kinds) == 0 {
		kinds = []graph.EdgeKind{""}
	}

	var edges []graph.Edge
	for _, kind := range kinds {
		if opts.Direction != DirectionIncoming {
			out, err := e.store.EdgesFrom(id, kind, opts.Limit)
			if err != nil {
				return nil, err
			}
			edges = append(edges, out...)
		}
		if opts.Direction != DirectionOutgoing {
			in, err := e.store.EdgesTo(id, kind, opts.Limit)
			if err != nil {
				return nil, err
			}
			edges = append(edges, in...)
		}
	}
	return edges, nil
}
