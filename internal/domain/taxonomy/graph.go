// Package taxonomy holds the read-only skill/category hierarchy used by the
// matching engine.
package taxonomy

import (
	"math"

	"github.com/google/uuid"
)

// MaxDepth bounds every parent-chain walk so corrupted data with cycles
// cannot loop forever.
const MaxDepth = 32

// DepthNotFound is returned by DepthBetween when the ancestor is not on the
// descendant's parent chain.
const DepthNotFound = math.MaxInt

// Graph is an immutable index over taxonomy nodes. It is safe for concurrent
// readers; reloads build a new Graph instead of mutating one.
type Graph struct {
	nodes    map[uuid.UUID]Node
	children map[uuid.UUID][]uuid.UUID
}

// NewGraph indexes nodes by id. When an id appears more than once the first
// occurrence wins.
func NewGraph(nodes []Node) *Graph {
	g := &Graph{
		nodes:    make(map[uuid.UUID]Node, len(nodes)),
		children: make(map[uuid.UUID][]uuid.UUID),
	}
	for _, n := range nodes {
		if n.ID == uuid.Nil {
			continue
		}
		if _, ok := g.nodes[n.ID]; ok {
			continue
		}
		g.nodes[n.ID] = n
		if n.HasParent() {
			g.children[*n.ParentID] = append(g.children[*n.ParentID], n.ID)
		}
	}
	return g
}

func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.nodes)
}

func (g *Graph) Node(id uuid.UUID) (Node, bool) {
	if g == nil {
		return Node{}, false
	}
	n, ok := g.nodes[id]
	return n, ok
}

func (g *Graph) Has(id uuid.UUID) bool {
	_, ok := g.Node(id)
	return ok
}

func (g *Graph) Parent(id uuid.UUID) (Node, bool) {
	n, ok := g.Node(id)
	if !ok || !n.HasParent() {
		return Node{}, false
	}
	return g.Node(*n.ParentID)
}

func (g *Graph) Grandparent(id uuid.UUID) (Node, bool) {
	p, ok := g.Parent(id)
	if !ok {
		return Node{}, false
	}
	return g.Parent(p.ID)
}

// IsAncestorOf reports whether ancestorID appears anywhere on the parent
// chain above descendantID.
func (g *Graph) IsAncestorOf(ancestorID, descendantID uuid.UUID) bool {
	return g.DepthBetween(ancestorID, descendantID) != DepthNotFound
}

// DepthBetween counts parent hops from descendantID up to ancestorID.
func (g *Graph) DepthBetween(ancestorID, descendantID uuid.UUID) int {
	if ancestorID == uuid.Nil {
		return DepthNotFound
	}
	cur, ok := g.Node(descendantID)
	if !ok {
		return DepthNotFound
	}

	for depth := 1; depth <= MaxDepth && cur.HasParent(); depth++ {
		if *cur.ParentID == ancestorID {
			return depth
		}
		cur, ok = g.Node(*cur.ParentID)
		if !ok {
			break
		}
	}
	return DepthNotFound
}

// HierarchyLevel is the distance from id up to its root. A parent pointer to
// an unknown node still counts as one hop; unknown ids are at level 0.
func (g *Graph) HierarchyLevel(id uuid.UUID) int {
	cur, ok := g.Node(id)
	if !ok {
		return 0
	}

	level := 0
	for level < MaxDepth && cur.HasParent() {
		level++
		cur, ok = g.Node(*cur.ParentID)
		if !ok {
			break
		}
	}
	return level
}

func (g *Graph) Children(id uuid.UUID) []Node {
	if g == nil {
		return nil
	}
	ids := g.children[id]
	out := make([]Node, 0, len(ids))
	for _, cid := range ids {
		if n, ok := g.nodes[cid]; ok {
			out = append(out, n)
		}
	}
	return out
}

// Siblings returns the other children of id's parent.
func (g *Graph) Siblings(id uuid.UUID) []Node {
	p, ok := g.Parent(id)
	if !ok {
		return nil
	}
	all := g.Children(p.ID)
	out := make([]Node, 0, len(all))
	for _, n := range all {
		if n.ID == id {
			continue
		}
		out = append(out, n)
	}
	return out
}

// Descendants walks the subtree below id breadth-first, at most MaxDepth
// levels deep.
func (g *Graph) Descendants(id uuid.UUID) []Node {
	if !g.Has(id) {
		return nil
	}

	seen := map[uuid.UUID]struct{}{id: {}}
	frontier := []uuid.UUID{id}
	out := make([]Node, 0)
	for level := 0; level < MaxDepth && len(frontier) > 0; level++ {
		next := make([]uuid.UUID, 0)
		for _, fid := range frontier {
			for _, cid := range g.children[fid] {
				if _, ok := seen[cid]; ok {
					continue
				}
				seen[cid] = struct{}{}
				out = append(out, g.nodes[cid])
				next = append(next, cid)
			}
		}
		frontier = next
	}
	return out
}
