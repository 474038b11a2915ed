package graph

import "github.com/RealSpaceofAce/framelord-sub002/internal/models"

// LinkGraph is a directed adjacency structure keyed by note id.
// Outbound and inbound sides are kept in step; edges are never parallel
// and never self-referential.
type LinkGraph struct {
	out map[string]*orderedSet
	in  map[string]*orderedSet
	n   int
}

// NewLinkGraph returns an empty graph.
func NewLinkGraph() *LinkGraph {
	return &LinkGraph{
		out: make(map[string]*orderedSet),
		in:  make(map[string]*orderedSet),
	}
}

// ReplaceOutgoing drops every edge leaving source and adds source→t for
// each target in order. Self loops and repeats are skipped. It returns the
// targets actually linked.
func (g *LinkGraph) ReplaceOutgoing(source string, targets []string) []string {
	g.clearOutgoing(source)

	var linked []string
	for _, t := range targets {
		if t == "" || t == source {
			continue
		}
		if g.addEdge(source, t) {
			linked = append(linked, t)
		}
	}
	return linked
}

// Forward returns the targets of source's outgoing edges.
func (g *LinkGraph) Forward(source string) []string {
	if s := g.out[source]; s != nil {
		return s.list()
	}
	return nil
}

// Backward returns the sources of edges pointing at target.
func (g *LinkGraph) Backward(target string) []string {
	if s := g.in[target]; s != nil {
		return s.list()
	}
	return nil
}

// Has reports whether the edge source→target exists.
func (g *LinkGraph) Has(source, target string) bool {
	s := g.out[source]
	return s != nil && s.has(target)
}

// RemoveAll drops every edge where id is source or target and returns the
// sources that lost an edge to id.
func (g *LinkGraph) RemoveAll(id string) []string {
	g.clearOutgoing(id)

	var sources []string
	if in := g.in[id]; in != nil {
		sources = in.list()
		for _, src := range sources {
			if out := g.out[src]; out != nil {
				out.remove(id)
				if out.len() == 0 {
					delete(g.out, src)
				}
				g.n--
			}
		}
		delete(g.in, id)
	}
	return sources
}

// Edges returns every edge. Order across sources is unspecified.
func (g *LinkGraph) Edges() []models.NoteLink {
	out := make([]models.NoteLink, 0, g.n)
	for src, targets := range g.out {
		for _, t := range targets.items {
			out = append(out, models.NoteLink{SourceID: src, TargetID: t})
		}
	}
	return out
}

// Len returns the number of edges.
func (g *LinkGraph) Len() int { return g.n }

func (g *LinkGraph) addEdge(source, target string) bool {
	out := g.out[source]
	if out == nil {
		out = newOrderedSet()
		g.out[source] = out
	}
	if !out.add(target) {
		return false
	}
	in := g.in[target]
	if in == nil {
		in = newOrderedSet()
		g.in[target] = in
	}
	in.add(source)
	g.n++
	return true
}

func (g *LinkGraph) clearOutgoing(source string) {
	out := g.out[source]
	if out == nil {
		return
	}
	for _, t := range out.items {
		if in := g.in[t]; in != nil {
			in.remove(source)
			if in.len() == 0 {
				delete(g.in, t)
			}
		}
		g.n--
	}
	delete(g.out, source)
}
