package dag

import (
	"errors"
	"slices"
	"sort"
)

var (
	// ErrInvalidNodeID is returned by [DAG.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [DAG.AddNode] when a node with the
	// same ID already exists in the graph.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [DAG.AddEdge] when the From node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [DAG.AddEdge] when the To node
	// does not exist in the graph.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrGraphHasCycle is returned by [DAG.TopologicalOrder] and
	// [DAG.Layers] when a cycle is detected.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// Metadata stores arbitrary key-value pairs attached to nodes or the graph.
// Metadata maps are never nil after AddNode/AddEdge/New.
type Metadata map[string]any

// NodeKind distinguishes declared packages from synthesized dependencies.
type NodeKind int

const (
	// NodeKindMain is a package the user declared directly.
	NodeKindMain NodeKind = iota
	// NodeKindDependency is a package present only because another needs it.
	NodeKindDependency
)

// String returns "main" or "dependency".
func (k NodeKind) String() string {
	if k == NodeKindDependency {
		return "dependency"
	}
	return "main"
}

// Node is a vertex in the dependency graph.
type Node struct {
	ID   string   // Normalized repository key
	Kind NodeKind // Main or dependency
	Meta Metadata // Arbitrary key-value metadata (never nil after AddNode)
}

// IsMain reports whether the node was declared by the user.
func (n Node) IsMain() bool { return n.Kind == NodeKindMain }

// Edge is a directed "depends on" relation.
type Edge struct {
	From string   // Dependent node ID
	To   string   // Dependency node ID
	Meta Metadata // Arbitrary key-value metadata (never nil after AddEdge)
}

// DAG is a directed dependency graph. Despite the name it can temporarily
// hold a cycle while being built; [DAG.FindCycle] detects that.
//
// The zero value is not usable - use New to create a valid DAG instance.
type DAG struct {
	nodes    map[string]*Node
	order    []string // insertion order of node IDs
	edges    []Edge
	outgoing map[string][]string // nodeID -> dependency IDs
	incoming map[string][]string // nodeID -> dependent IDs
	meta     Metadata
}

// New creates an empty DAG with optional graph-level metadata.
func New(meta Metadata) *DAG {
	if meta == nil {
		meta = Metadata{}
	}
	return &DAG{
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
		meta:     meta,
	}
}

// Meta returns the graph-level metadata map.
func (d *DAG) Meta() Metadata { return d.meta }

// AddNode adds a node to the graph.
// Returns ErrInvalidNodeID if the node ID is empty, or ErrDuplicateNodeID
// if a node with the same ID already exists.
func (d *DAG) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := d.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if n.Meta == nil {
		n.Meta = Metadata{}
	}
	node := &n
	d.nodes[node.ID] = node
	d.order = append(d.order, node.ID)
	return nil
}

// AddEdge adds a directed edge between two existing nodes. Adding an edge
// that already exists is a no-op.
func (d *DAG) AddEdge(e Edge) error {
	if _, ok := d.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := d.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	if slices.Contains(d.outgoing[e.From], e.To) {
		return nil
	}
	if e.Meta == nil {
		e.Meta = Metadata{}
	}
	d.edges = append(d.edges, e)
	d.outgoing[e.From] = append(d.outgoing[e.From], e.To)
	d.incoming[e.To] = append(d.incoming[e.To], e.From)
	return nil
}

// Nodes returns all nodes in insertion order. The returned slice contains
// pointers to the actual node structs, so modifications affect the graph.
func (d *DAG) Nodes() []*Node {
	nodes := make([]*Node, 0, len(d.order))
	for _, id := range d.order {
		nodes = append(nodes, d.nodes[id])
	}
	return nodes
}

// Edges returns a copy of all edges in insertion order.
func (d *DAG) Edges() []Edge { return slices.Clone(d.edges) }

// NodeCount returns the number of nodes in the graph.
func (d *DAG) NodeCount() int { return len(d.nodes) }

// EdgeCount returns the number of edges in the graph.
func (d *DAG) EdgeCount() int { return len(d.edges) }

// Children returns the IDs this node depends on. The returned slice should
// be treated as read-only.
func (d *DAG) Children(id string) []string { return d.outgoing[id] }

// Parents returns the IDs of nodes that depend on this node. The returned
// slice should be treated as read-only.
func (d *DAG) Parents(id string) []string { return d.incoming[id] }

// Node returns the node with the given ID and true, or nil and false.
func (d *DAG) Node(id string) (*Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// Descendants returns every node reachable from id, sorted.
func (d *DAG) Descendants(id string) []string {
	seen := make(map[string]bool)
	var walk func(string)
	walk = func(n string) {
		for _, c := range d.outgoing[n] {
			if !seen[c] {
				seen[c] = true
				walk(c)
			}
		}
	}
	walk(id)
	delete(seen, id)
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// FindCycle returns the first cycle found as a path that starts and ends
// with the same node ID (e.g. [a b a]), or nil if the graph is acyclic.
//
// It uses depth-first search with white/gray/black coloring. Nodes are
// visited in insertion order, so the reported cycle is deterministic.
func (d *DAG) FindCycle() []string {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(d.nodes))
	var stack []string
	var cycle []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		color[id] = gray
		stack = append(stack, id)
		for _, child := range d.outgoing[id] {
			switch color[child] {
			case white:
				if dfs(child) {
					return true
				}
			case gray:
				start := slices.Index(stack, child)
				cycle = append(slices.Clone(stack[start:]), child)
				return true
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		return false
	}

	for _, id := range d.order {
		if color[id] == white && dfs(id) {
			return cycle
		}
	}
	return nil
}

// TopologicalOrder returns node IDs with every dependency listed before the
// nodes that depend on it. Ties keep insertion order. Returns
// ErrGraphHasCycle if no such order exists.
func (d *DAG) TopologicalOrder() ([]string, error) {
	remaining := make(map[string]int, len(d.nodes))
	for _, id := range d.order {
		remaining[id] = len(d.outgoing[id])
	}

	out := make([]string, 0, len(d.nodes))
	done := make(map[string]bool, len(d.nodes))
	for len(out) < len(d.order) {
		progressed := false
		for _, id := range d.order {
			if done[id] || remaining[id] > 0 {
				continue
			}
			done[id] = true
			out = append(out, id)
			progressed = true
			for _, p := range d.incoming[id] {
				remaining[p]--
			}
		}
		if !progressed {
			return nil, ErrGraphHasCycle
		}
	}
	return out, nil
}

// Layers groups node IDs by depth. Nodes without dependencies form layer 0;
// every other node sits one layer above its deepest dependency, so running
// the layers in order never starts a node before its dependencies. IDs keep
// insertion order within a layer.
func (d *DAG) Layers() ([][]string, error) {
	order, err := d.TopologicalOrder()
	if err != nil {
		return nil, err
	}
	level := make(map[string]int, len(order))
	depth := 0
	for _, id := range order {
		l := 0
		for _, c := range d.outgoing[id] {
			l = max(l, level[c]+1)
		}
		level[id] = l
		depth = max(depth, l+1)
	}
	layers := make([][]string, depth)
	for _, id := range d.order {
		layers[level[id]] = append(layers[level[id]], id)
	}
	return layers, nil
}
