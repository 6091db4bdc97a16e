package taskgraph

import "golang.org/x/exp/slices"

// ThreadGroup is a set of worker group names. A task constrained to a
// ThreadGroup runs only on workers whose group is a member; the empty set
// means any worker may execute the task.
type ThreadGroup struct {
	groups map[string]struct{}
}

func NewThreadGroup(names ...string) ThreadGroup {
	g := ThreadGroup{groups: make(map[string]struct{}, len(names))}
	for _, n := range names {
		g.groups[n] = struct{}{}
	}
	return g
}

func (g ThreadGroup) Empty() bool {
	return len(g.groups) == 0
}

func (g ThreadGroup) Contains(name string) bool {
	_, ok := g.groups[name]
	return ok
}

// Union merges other into g and returns g.
func (g *ThreadGroup) Union(other ThreadGroup) ThreadGroup {
	if g.groups == nil {
		g.groups = make(map[string]struct{}, len(other.groups))
	}
	for n := range other.groups {
		g.groups[n] = struct{}{}
	}
	return *g
}

// Names returns the group names in deterministic order.
func (g ThreadGroup) Names() []string {
	names := make([]string, 0, len(g.groups))
	for n := range g.groups {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
