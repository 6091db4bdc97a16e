package taskgraph

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Pipeline collects task configurators and resolves their port bindings
// into runnable task containers. Assemble with Add, wire the typed ports,
// then hand the pipeline to a scheduler (which calls Build).
type Pipeline struct {
	cfgs  []*Configurator
	names map[string]struct{}
	built bool
}

func New() *Pipeline {
	return &Pipeline{names: map[string]struct{}{}}
}

// Add registers a node under a unique name and returns its configurator.
// Port identifier uniqueness within the node is enforced here.
func (p *Pipeline) Add(name string, task Task) (*Configurator, error) {
	if _, exists := p.names[name]; exists {
		return nil, fmt.Errorf("node %q: %w", name, ErrNodeAlreadyExists)
	}
	cfg, err := newConfigurator(name, task)
	if err != nil {
		return nil, err
	}
	p.names[name] = struct{}{}
	p.cfgs = append(p.cfgs, cfg)
	return cfg, nil
}

// MustAdd is Add, panicking on error.
func (p *Pipeline) MustAdd(name string, task Task) *Configurator {
	cfg, err := p.Add(name, task)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Configurator returns the configurator registered under name.
func (p *Pipeline) Configurator(name string) (*Configurator, error) {
	for _, cfg := range p.cfgs {
		if cfg.name == name {
			return cfg, nil
		}
	}
	return nil, fmt.Errorf("node %q: %w", name, ErrNodeNotFound)
}

// Build materializes a connection helper per node, resolves every
// non-external input against the global output-owner map, wires queue
// pushers into the producing outputs' callback lists, records follower
// edges and constructs the task containers. The returned slice is ordered;
// positional indices are the node ids follower edges refer to.
//
// Build consumes the configurators' typed storage and must not be called
// twice.
func (p *Pipeline) Build() ([]*TaskContainer, error) {
	if p.built {
		return nil, ErrAlreadyBuilt
	}

	helpers := make([]*connectionHelper, len(p.cfgs))
	for i, cfg := range p.cfgs {
		helpers[i] = cfg.constructConnectionHelper()
	}

	// Outputs are distinct objects, so this map is injective.
	owner := make(map[OutputPort]int)
	for i, helper := range helpers {
		for out := range helper.outputs() {
			owner[out] = i
		}
	}

	followers := make([][]follower, len(p.cfgs))
	var errs *multierror.Error

	for i, helper := range helpers {
		for in, slot := range helper.inputs() {
			if in.External() {
				if in.Source() != nil {
					errs = multierror.Append(errs, fmt.Errorf("node %q: input %q is external and bound: %w", p.cfgs[i].name, in.Name(), ErrAlreadyBound))
				}
				continue
			}

			src := in.Source()
			if src == nil {
				errs = multierror.Append(errs, fmt.Errorf("node %q: input %q: %w", p.cfgs[i].name, in.Name(), ErrUnboundInput))
				continue
			}

			j, ok := owner[src]
			if !ok {
				errs = multierror.Append(errs, fmt.Errorf("node %q: input %q: source output %q: %w", p.cfgs[i].name, in.Name(), src.Name(), ErrSlotNotFound))
				continue
			}

			push, err := helper.target(in)
			if err != nil {
				errs = multierror.Append(errs, err)
				continue
			}
			if err := helpers[j].bind(src, push); err != nil {
				errs = multierror.Append(errs, fmt.Errorf("node %q: %w", p.cfgs[j].name, err))
				continue
			}
			helpers[j].addFollowing(i)
			followers[j] = append(followers[j], follower{node: i, slot: slot})
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	containers := make([]*TaskContainer, len(p.cfgs))
	for i, cfg := range p.cfgs {
		containers[i] = cfg.constructTaskContainer(helpers[i])
		containers[i].followers = followers[i]
	}

	p.built = true
	return containers, nil
}
