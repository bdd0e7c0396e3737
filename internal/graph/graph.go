// Package graph builds the parent/child hierarchy from a flat list of issue
// specs, validates it, and produces a deterministic creation order.
package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jmaddaus/cairn/internal/model"
)

// CycleError reports a parent/child cycle. IDs are the members of the cycle
// in input order.
type CycleError struct {
	IDs []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("circular dependency involving: %s", strings.Join(e.IDs, ", "))
}

// DanglingParentError reports a parent_id that does not match any declared
// issue ID.
type DanglingParentError struct {
	ID       string
	ParentID string
}

func (e *DanglingParentError) Error() string {
	return fmt.Sprintf("issue %q references non-existent parent %q", e.ID, e.ParentID)
}

// Graph holds the validated hierarchy. Build is the only constructor; a
// Graph that exists is acyclic and reference-complete.
type Graph struct {
	specs    map[string]*model.IssueSpec
	order    []string            // input order of all IDs
	children map[string][]string // parent ID ("" for roots) -> child IDs, input order
}

// Build constructs and validates the hierarchy from specs. IDs are assumed
// unique (the input loader enforces that). All dangling-parent and cycle
// findings are collected before returning, so the caller can report every
// problem at once; no side effects have occurred by the time Build returns.
func Build(specs []model.IssueSpec) (*Graph, error) {
	g := &Graph{
		specs:    make(map[string]*model.IssueSpec, len(specs)),
		order:    make([]string, 0, len(specs)),
		children: make(map[string][]string),
	}
	for i := range specs {
		s := &specs[i]
		g.specs[s.ID] = s
		g.order = append(g.order, s.ID)
	}

	var errs []error
	for _, id := range g.order {
		s := g.specs[id]
		if !s.IsRoot() {
			if _, ok := g.specs[s.ParentID]; !ok {
				errs = append(errs, &DanglingParentError{ID: id, ParentID: s.ParentID})
				continue
			}
		}
		g.children[s.ParentID] = append(g.children[s.ParentID], id)
	}

	if cycle := g.findCycle(); len(cycle) > 0 {
		errs = append(errs, &CycleError{IDs: cycle})
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return g, nil
}

// findCycle walks parent chains looking for a node reachable from itself.
// Returns the cycle members in input order, or nil.
func (g *Graph) findCycle() []string {
	const (
		white = 0 // unvisited
		grey  = 1 // on the current chain
		black = 2 // known cycle-free
	)
	state := make(map[string]int, len(g.order))
	inCycle := make(map[string]bool)

	for _, start := range g.order {
		if state[start] != white {
			continue
		}
		// Follow the parent chain from start.
		var chain []string
		id := start
		for {
			if state[id] == black {
				break
			}
			if state[id] == grey {
				// id closes a cycle; everything from its first occurrence
				// on the chain is a member.
				for i := len(chain) - 1; i >= 0; i-- {
					inCycle[chain[i]] = true
					if chain[i] == id {
						break
					}
				}
				break
			}
			state[id] = grey
			chain = append(chain, id)

			s, ok := g.specs[id]
			if !ok || s.IsRoot() {
				break
			}
			id = s.ParentID
			if _, ok := g.specs[id]; !ok {
				break // dangling, reported separately
			}
		}
		for _, c := range chain {
			state[c] = black
		}
	}

	if len(inCycle) == 0 {
		return nil
	}
	var ids []string
	for _, id := range g.order {
		if inCycle[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

// Order returns every issue ID with each parent strictly before its
// children: a pre-order depth-first walk starting from the roots in input
// order, visiting children in input order. Identical input always yields an
// identical order.
func (g *Graph) Order() []string {
	out := make([]string, 0, len(g.order))
	var walk func(id string)
	walk = func(id string) {
		out = append(out, id)
		for _, child := range g.children[id] {
			walk(child)
		}
	}
	for _, root := range g.children[""] {
		walk(root)
	}
	return out
}

// Spec returns the issue spec for id, or nil if unknown.
func (g *Graph) Spec(id string) *model.IssueSpec {
	return g.specs[id]
}

// Roots returns the IDs of all parentless issues in input order.
func (g *Graph) Roots() []string {
	return g.children[""]
}

// Children returns the direct children of id in input order.
func (g *Graph) Children(id string) []string {
	return g.children[id]
}

// Descendants returns every transitive child of id, depth-first in input
// order. Used to propagate a creation failure to the whole subtree.
func (g *Graph) Descendants(id string) []string {
	var out []string
	var walk func(id string)
	walk = func(id string) {
		for _, child := range g.children[id] {
			out = append(out, child)
			walk(child)
		}
	}
	walk(id)
	return out
}

// Depth returns how many ancestors id has; roots are depth 0.
func (g *Graph) Depth(id string) int {
	depth := 0
	for {
		s, ok := g.specs[id]
		if !ok || s.IsRoot() {
			return depth
		}
		depth++
		id = s.ParentID
	}
}

// Len returns the number of issues in the graph.
func (g *Graph) Len() int {
	return len(g.order)
}
