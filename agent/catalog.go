package agent

import (
	"errors"
	"fmt"
	"sort"

	"github.com/hupe1980/agentdesk/tool"
)

// ErrAgentNotFound is returned for names the catalog does not contain.
var ErrAgentNotFound = errors.New("agent not found")

// ToolResolver resolves tool names; *tool.Registry satisfies it.
type ToolResolver interface {
	Resolve(name string) (tool.Tool, error)
}

// handoffTarget is implemented by tools that transfer control to another agent.
type handoffTarget interface {
	Target() string
}

// Catalog is the read-only set of agents plus the designated default.
type Catalog struct {
	agents      map[string]Agent
	order       []string
	defaultName string
}

// NewCatalog builds a catalog. Names must be unique and non-empty and the
// default must be one of the agents.
func NewCatalog(defaultName string, agents ...Agent) (*Catalog, error) {
	c := &Catalog{
		agents:      make(map[string]Agent, len(agents)),
		defaultName: defaultName,
	}

	for _, a := range agents {
		if a.Name() == "" {
			return nil, errors.New("agent name must not be empty")
		}
		if _, dup := c.agents[a.Name()]; dup {
			return nil, fmt.Errorf("duplicate agent %q", a.Name())
		}
		c.agents[a.Name()] = a
		c.order = append(c.order, a.Name())
	}

	if _, ok := c.agents[defaultName]; !ok {
		return nil, fmt.Errorf("default %w: %q", ErrAgentNotFound, defaultName)
	}

	return c, nil
}

// MustNewCatalog is like NewCatalog but panics on error.
func MustNewCatalog(defaultName string, agents ...Agent) *Catalog {
	c, err := NewCatalog(defaultName, agents...)
	if err != nil {
		panic(err)
	}
	return c
}

// Resolve returns the agent registered under name.
func (c *Catalog) Resolve(name string) (Agent, bool) {
	a, ok := c.agents[name]
	return a, ok
}

// Default returns the default agent.
func (c *Catalog) Default() Agent { return c.agents[c.defaultName] }

// DefaultName returns the default agent name.
func (c *Catalog) DefaultName() string { return c.defaultName }

// Names lists agent names in declaration order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Agents lists agents in declaration order.
func (c *Catalog) Agents() []Agent {
	out := make([]Agent, 0, len(c.order))
	for _, n := range c.order {
		out = append(out, c.agents[n])
	}
	return out
}

// Validate checks that every tool named by an agent is registered and that
// every handoff tool targets a catalog agent.
func (c *Catalog) Validate(registry ToolResolver) error {
	var errs []error

	for _, name := range c.order {
		for _, toolName := range c.agents[name].tools {
			t, err := registry.Resolve(toolName)
			if err != nil {
				errs = append(errs, fmt.Errorf("agent %q: %w", name, err))
				continue
			}
			if h, ok := t.(handoffTarget); ok {
				if _, exists := c.agents[h.Target()]; !exists {
					errs = append(errs, fmt.Errorf("agent %q: tool %q hands off to unknown %w: %q", name, toolName, ErrAgentNotFound, h.Target()))
				}
			}
		}
	}

	return errors.Join(errs...)
}

// Edges returns the handoff graph: agent name -> sorted handoff targets.
// Tools the registry cannot resolve are skipped.
func (c *Catalog) Edges(registry ToolResolver) map[string][]string {
	edges := make(map[string][]string, len(c.order))

	for _, name := range c.order {
		targets := []string{}
		for _, toolName := range c.agents[name].tools {
			t, err := registry.Resolve(toolName)
			if err != nil {
				continue
			}
			if h, ok := t.(handoffTarget); ok {
				targets = append(targets, h.Target())
			}
		}
		sort.Strings(targets)
		edges[name] = targets
	}

	return edges
}
