package graph

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/roach88/symgen/internal/sym"
)

// Stage selects when a slot is evaluated: once per parameter set (static) or
// on every call (dynamic).
type Stage uint8

const (
	StageStatic Stage = iota
	StageDynamic
)

func (s Stage) String() string {
	if s == StageDynamic {
		return "dynamic"
	}
	return "static"
}

// ParseStage parses "static" or "dynamic".
func ParseStage(s string) (Stage, error) {
	switch s {
	case "static":
		return StageStatic, nil
	case "dynamic":
		return StageDynamic, nil
	}
	return StageStatic, fmt.Errorf("invalid stage %q (must be static or dynamic)", s)
}

// CrossName is the storage name of the k-th cross-stage temporary.
func CrossName(k int) string {
	return "_i[" + strconv.Itoa(k) + "]"
}

// Plan is a two-stage schedule.
type Plan struct {
	Static  *Schedule
	Dynamic *Schedule

	// Temps are the static nodes handed from the static stage to the
	// dynamic stage; Temps[k] is stored in CrossName(k).
	Temps []sym.NodeID

	StaticOutputs  []Binding
	DynamicOutputs []Binding
}

// NumTemps returns the number of cross-stage temporaries.
func (p *Plan) NumTemps() int { return len(p.Temps) }

// Partition splits outputs into a static and a dynamic schedule.
//
// A node is dynamic iff its closure contains a dynamic input. An output is
// computed in the dynamic stage when it is declared dynamic or its
// expression is dynamic. Static non-constant nodes read by the dynamic stage
// become cross-stage temporaries: outputs of the static schedule and inputs
// of the dynamic one, under the same _i[k] name.
func Partition(src Source, staticIn, dynamicIn map[sym.NodeID]string, outputs []Binding) (*Plan, error) {
	if err := checkBindings(src, outputs); err != nil {
		return nil, err
	}

	dynRoots := make([]sym.NodeID, 0, len(dynamicIn))
	for id := range dynamicIn {
		dynRoots = append(dynRoots, src.Resolve(id))
	}
	memo := make(map[sym.NodeID]bool)
	isDynamic := func(id sym.NodeID) bool {
		id = src.Resolve(id)
		if v, ok := memo[id]; ok {
			return v
		}
		v := false
		for _, d := range dynRoots {
			if src.DependsOn(id, d) {
				v = true
				break
			}
		}
		memo[id] = v
		return v
	}

	plan := &Plan{}
	for _, b := range outputs {
		if b.Stage == StageDynamic || isDynamic(b.ID) {
			plan.DynamicOutputs = append(plan.DynamicOutputs, b)
		} else {
			plan.StaticOutputs = append(plan.StaticOutputs, b)
		}
	}

	temps := make(map[sym.NodeID]bool)
	visited := make(map[sym.NodeID]bool)
	isDynInput := make(map[sym.NodeID]bool, len(dynRoots))
	for _, id := range dynRoots {
		isDynInput[id] = true
	}
	for _, b := range plan.DynamicOutputs {
		root := src.Resolve(b.ID)
		if !isDynamic(root) {
			if src.Node(root).Kind != sym.KindConstant {
				temps[root] = true
			}
			continue
		}
		stack := []sym.NodeID{root}
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if visited[id] || isDynInput[id] {
				continue
			}
			visited[id] = true
			for _, dep := range src.Deps(id) {
				switch {
				case isDynamic(dep):
					stack = append(stack, dep)
				case src.Node(dep).Kind != sym.KindConstant:
					temps[dep] = true
				}
			}
		}
	}

	for id := range temps {
		plan.Temps = append(plan.Temps, id)
	}
	sort.Slice(plan.Temps, func(i, j int) bool { return plan.Temps[i] < plan.Temps[j] })

	staticOut := append([]Binding(nil), plan.StaticOutputs...)
	dynIn := make(map[sym.NodeID]string, len(dynamicIn)+len(plan.Temps))
	for id, name := range dynamicIn {
		dynIn[src.Resolve(id)] = name
	}
	for k, id := range plan.Temps {
		staticOut = append(staticOut, Binding{Name: CrossName(k), ID: id, Stage: StageStatic})
		dynIn[id] = CrossName(k)
	}

	var err error
	if plan.Static, err = Build(src, staticIn, staticOut); err != nil {
		return nil, fmt.Errorf("static stage: %w", err)
	}
	if plan.Dynamic, err = Build(src, dynIn, plan.DynamicOutputs); err != nil {
		return nil, fmt.Errorf("dynamic stage: %w", err)
	}
	return plan, nil
}
