package effectchain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownEffect is returned when a node references an unregistered effect type.
	ErrUnknownEffect = errors.New("unknown effect type")
	// ErrUnknownModel is returned by a ModelProvider for an unknown name.
	ErrUnknownModel = errors.New("unknown model")
)

type nodeRuntime struct {
	effectType string
	runtime    Runtime
}

// Chain owns a graph-based effect chain: topology, node runtimes and
// processing buffers. It is independent of any application engine.
type Chain struct {
	ctx      Context
	registry *Registry

	graph *compiledGraph
	nodes map[string]*nodeRuntime

	inView [][]float64
	outBuf map[string][][]float64
}

// New creates a Chain with the given context and registry.
func New(ctx Context, registry *Registry) *Chain {
	return &Chain{
		ctx:      ctx,
		registry: registry,
		nodes:    make(map[string]*nodeRuntime),
	}
}

// SetContext updates the chain context (e.g., after sample rate change)
// and reconfigures every node runtime with it.
func (c *Chain) SetContext(ctx Context) error {
	c.ctx = ctx

	if c.graph == nil {
		return nil
	}

	for id, rt := range c.nodes {
		err := rt.runtime.Configure(ctx, c.graph.Nodes[id])
		if err != nil {
			return fmt.Errorf("effectchain: configure node %q (%s): %w", id, rt.effectType, err)
		}
	}

	return nil
}

// Context returns the current chain context.
func (c *Chain) Context() Context {
	return c.ctx
}

// HasGraph returns true if the chain has a loaded graph with valid I/O nodes.
func (c *Chain) HasGraph() bool {
	return c.graph != nil && hasRequiredIONodes(c.graph)
}

// LoadGraph parses a JSON graph string, compiles the topology, and
// synchronizes node runtimes. An empty string clears the graph. Nodes of
// an unregistered type fail the load with ErrUnknownEffect.
func (c *Chain) LoadGraph(jsonGraph string) error {
	graph, err := parseGraph(jsonGraph)
	if err != nil {
		return err
	}

	err = c.syncNodes(graph)
	if err != nil {
		return err
	}

	c.graph = graph

	return nil
}

// LoadStages replaces the graph with a serial chain of stages.
func (c *Chain) LoadStages(stages []Stage) error {
	raw, err := LinearGraph(stages)
	if err != nil {
		return err
	}

	return c.LoadGraph(raw)
}

// Order returns the effect node IDs in processing order.
func (c *Chain) Order() []string {
	if c.graph == nil {
		return nil
	}

	ids := make([]string, 0, len(c.graph.Order))
	for _, id := range c.graph.Order {
		if _, ok := c.nodes[id]; ok {
			ids = append(ids, id)
		}
	}

	return ids
}

// NodeRuntime returns the Runtime for the given node ID, or nil.
func (c *Chain) NodeRuntime(nodeID string) Runtime {
	rt := c.nodes[nodeID]
	if rt == nil {
		return nil
	}

	return rt.runtime
}

// Clear resets the signal state of every runtime that supports it while
// keeping the graph.
func (c *Chain) Clear() {
	for _, rt := range c.nodes {
		if r, ok := rt.runtime.(Resetter); ok {
			r.Reset()
		}
	}
}

// Reset clears all node runtimes and processing state.
func (c *Chain) Reset() {
	c.graph = nil
	c.nodes = make(map[string]*nodeRuntime)
	c.outBuf = nil
	c.inView = nil
}

// syncNodes synchronises runtime effect instances with the compiled graph topology.
// Nodes that are no longer present are removed; new or type-changed nodes are (re)created and configured.
func (c *Chain) syncNodes(graph *compiledGraph) error {
	if graph == nil {
		c.nodes = nil

		return nil
	}

	if c.nodes == nil {
		c.nodes = map[string]*nodeRuntime{}
	}

	seen := map[string]struct{}{}

	for _, node := range graph.Nodes {
		if isStructuralNodeType(node.Type) {
			continue
		}

		seen[node.ID] = struct{}{}

		rt := c.nodes[node.ID]
		if rt == nil || rt.effectType != node.Type {
			runtime, err := c.newRuntime(node.Type)
			if err != nil {
				return fmt.Errorf("effectchain: node %q: %w", node.ID, err)
			}

			rt = &nodeRuntime{effectType: node.Type, runtime: runtime}
			c.nodes[node.ID] = rt
		}

		err := rt.runtime.Configure(c.ctx, node)
		if err != nil {
			return fmt.Errorf("effectchain: configure node %q (%s): %w", node.ID, node.Type, err)
		}
	}

	for id := range c.nodes {
		if _, ok := seen[id]; !ok {
			delete(c.nodes, id)
		}
	}

	return nil
}

func (c *Chain) newRuntime(effectType string) (Runtime, error) {
	factory := c.registry.Lookup(effectType)
	if factory == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEffect, effectType)
	}

	runtime, err := factory(c.ctx)
	if err != nil {
		return nil, err
	}

	if runtime == nil {
		return nil, fmt.Errorf("%w: %s has a nil factory result", ErrUnknownEffect, effectType)
	}

	return runtime, nil
}

func hasRequiredIONodes(g *compiledGraph) bool {
	if g == nil {
		return false
	}

	if _, ok := g.Nodes[InputNodeID]; !ok {
		return false
	}

	if _, ok := g.Nodes[OutputNodeID]; !ok {
		return false
	}

	return true
}
