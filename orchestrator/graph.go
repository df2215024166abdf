// Package orchestrator runs the pipeline stages as a small DAG. Each stage
// declares its input files, output files and parameters; a stage is re-run
// only when the content hash of those declarations changed since its last
// successful run, an output is missing, an upstream stage ran, or the caller
// forces it.
package orchestrator

import (
	"context"
	"sort"
)

// Stage is one node of the graph.
type Stage struct {
	Name    string
	Deps    []string          // stages that must complete first
	Inputs  []string          // files whose content feeds the stamp
	Outputs []string          // files the stage must leave behind
	Params  map[string]string // parameters that feed the stamp
	Run     func(ctx context.Context) error
}

// Graph is a validated, immutable set of stages.
type Graph struct {
	stages map[string]*Stage
	order  []string
	depth  map[string]int
}

// NewGraph validates stages and fixes a deterministic execution order:
// topological depth first, then name.
//
// It rejects empty or duplicate names, unknown dependencies, self loops and
// cycles.
func NewGraph(stages []Stage) (*Graph, error) {
	if len(stages) == 0 {
		return nil, invalidf("no stages")
	}
	byName := make(map[string]*Stage, len(stages))
	for i := range stages {
		s := stages[i]
		if s.Name == "" {
			return nil, invalidf("stage name is required")
		}
		if _, dup := byName[s.Name]; dup {
			return nil, invalidf("duplicate stage name: %q", s.Name)
		}
		if s.Run == nil {
			return nil, invalidf("stage %q has no Run function", s.Name)
		}
		byName[s.Name] = &s
	}
	for _, s := range byName {
		for _, d := range s.Deps {
			if d == s.Name {
				return nil, invalidf("self-loop: %q", s.Name)
			}
			if _, ok := byName[d]; !ok {
				return nil, invalidf("stage %q depends on unknown stage %q", s.Name, d)
			}
		}
	}

	g := &Graph{stages: byName, depth: make(map[string]int, len(byName))}
	if err := g.computeDepth(); err != nil {
		return nil, err
	}

	g.order = make([]string, 0, len(byName))
	for name := range byName {
		g.order = append(g.order, name)
	}
	sort.Slice(g.order, func(i, j int) bool {
		a, b := g.order[i], g.order[j]
		if g.depth[a] != g.depth[b] {
			return g.depth[a] < g.depth[b]
		}
		return a < b
	})
	return g, nil
}

// computeDepth assigns each stage the length of the longest dependency path
// leading to it, detecting cycles on the way.
func (g *Graph) computeDepth() error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(g.stages))
	var path []string

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			start := 0
			for i, p := range path {
				if p == name {
					start = i
				}
			}
			return cycleError(append(append([]string(nil), path[start:]...), name))
		}
		state[name] = visiting
		path = append(path, name)

		deps := append([]string(nil), g.stages[name].Deps...)
		sort.Strings(deps)
		d := 0
		for _, dep := range deps {
			if err := visit(dep); err != nil {
				return err
			}
			if g.depth[dep]+1 > d {
				d = g.depth[dep] + 1
			}
		}
		g.depth[name] = d

		path = path[:len(path)-1]
		state[name] = done
		return nil
	}

	names := make([]string, 0, len(g.stages))
	for n := range g.stages {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if err := visit(n); err != nil {
			return err
		}
	}
	return nil
}

// Order returns every stage name in execution order.
func (g *Graph) Order() []string {
	return append([]string(nil), g.order...)
}

// Stage returns a stage by name.
func (g *Graph) Stage(name string) (*Stage, bool) {
	s, ok := g.stages[name]
	return s, ok
}

// Depth returns the topological depth of a stage.
func (g *Graph) Depth(name string) (int, bool) {
	d, ok := g.depth[name]
	return d, ok
}

// Plan returns, in execution order, the named targets and everything they
// depend on. No targets means the whole graph.
func (g *Graph) Plan(targets ...string) ([]string, error) {
	if len(targets) == 0 {
		return g.Order(), nil
	}
	want := make(map[string]struct{})
	var add func(name string)
	add = func(name string) {
		if _, seen := want[name]; seen {
			return
		}
		want[name] = struct{}{}
		for _, d := range g.stages[name].Deps {
			add(d)
		}
	}
	for _, t := range targets {
		if _, ok := g.stages[t]; !ok {
			return nil, invalidf("unknown stage %q", t)
		}
		add(t)
	}
	plan := make([]string, 0, len(want))
	for _, name := range g.order {
		if _, ok := want[name]; ok {
			plan = append(plan, name)
		}
	}
	return plan, nil
}
