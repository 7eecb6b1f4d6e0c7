// Package crossfile runs checks that span multiple SFCs: provide/inject
// matching, emit declarations, prop contracts, dependency cycles, and the
// reactivity rules derived from the per-file summaries. Checks are pure
// observations over the analysis model and are never fatal.
package crossfile

import (
	"sort"

	"github.com/ushironoko/vize/internal/summary"
)

// FileID identifies one registered SFC.
type FileID uint32

// Registry maps file ids to summaries plus the edge set. Edges follow
// template component usage only: an edge A -> B means A renders B. Script
// imports add no edges.
type Registry struct {
	files   map[FileID]*summary.Summary
	paths   map[FileID]string
	byPath  map[string]FileID
	edges   map[FileID][]FileID
	nextID  FileID
	ordered []FileID
}

func NewRegistry() *Registry {
	return &Registry{
		files:  make(map[FileID]*summary.Summary),
		paths:  make(map[FileID]string),
		byPath: make(map[string]FileID),
		edges:  make(map[FileID][]FileID),
	}
}

// Register adds or replaces a file's summary, returning its id.
func (r *Registry) Register(path string, s *summary.Summary) FileID {
	if id, ok := r.byPath[path]; ok {
		r.files[id] = s
		return id
	}
	id := r.nextID
	r.nextID++
	r.files[id] = s
	r.paths[id] = path
	r.byPath[path] = id
	r.ordered = append(r.ordered, id)
	return id
}

// Remove drops a file and every edge touching it.
func (r *Registry) Remove(path string) {
	id, ok := r.byPath[path]
	if !ok {
		return
	}
	delete(r.files, id)
	delete(r.paths, id)
	delete(r.byPath, path)
	delete(r.edges, id)
	for from, tos := range r.edges {
		filtered := tos[:0]
		for _, to := range tos {
			if to != id {
				filtered = append(filtered, to)
			}
		}
		r.edges[from] = filtered
	}
	for i, existing := range r.ordered {
		if existing == id {
			r.ordered = append(r.ordered[:i], r.ordered[i+1:]...)
			break
		}
	}
}

// AddEdge records a dependency from parent to child.
func (r *Registry) AddEdge(from FileID, to FileID) {
	for _, existing := range r.edges[from] {
		if existing == to {
			return
		}
	}
	r.edges[from] = append(r.edges[from], to)
}

func (r *Registry) Summary(id FileID) *summary.Summary {
	return r.files[id]
}

func (r *Registry) Path(id FileID) string {
	return r.paths[id]
}

func (r *Registry) Lookup(path string) (FileID, bool) {
	id, ok := r.byPath[path]
	return id, ok
}

// LookupByName finds a file whose component name matches.
func (r *Registry) LookupByName(name string) (FileID, bool) {
	for _, id := range r.ordered {
		if s := r.files[id]; s != nil && s.Name == name {
			return id, true
		}
	}
	return 0, false
}

// Files returns the registered ids in registration order.
func (r *Registry) Files() []FileID {
	out := make([]FileID, len(r.ordered))
	copy(out, r.ordered)
	return out
}

func (r *Registry) Children(id FileID) []FileID {
	return r.edges[id]
}

// Ancestors returns every file that can reach id through the edge set.
func (r *Registry) Ancestors(id FileID) []FileID {
	var out []FileID
	seen := map[FileID]bool{id: true}
	changed := true
	for changed {
		changed = false
		for from, tos := range r.edges {
			if seen[from] {
				continue
			}
			for _, to := range tos {
				if seen[to] {
					seen[from] = true
					out = append(out, from)
					changed = true
					break
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Cycles detects dependency cycles with a depth-first stack and returns
// each cycle as the path of ids that closes it.
func (r *Registry) Cycles() [][]FileID {
	var cycles [][]FileID
	state := make(map[FileID]int) // 0 unvisited, 1 on stack, 2 done
	var stack []FileID

	var visit func(id FileID)
	visit = func(id FileID) {
		state[id] = 1
		stack = append(stack, id)

		for _, child := range r.edges[id] {
			switch state[child] {
			case 0:
				visit(child)
			case 1:
				// Found a back edge; slice the stack from the first
				// occurrence of child
				for i, onStack := range stack {
					if onStack == child {
						cycle := make([]FileID, len(stack)-i)
						copy(cycle, stack[i:])
						cycles = append(cycles, cycle)
						break
					}
				}
			}
		}

		stack = stack[:len(stack)-1]
		state[id] = 2
	}

	for _, id := range r.ordered {
		if state[id] == 0 {
			visit(id)
		}
	}
	return cycles
}
