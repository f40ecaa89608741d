package effectchain

import (
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-retrofox/dsp/core"
)

// Process applies the effect chain to channels in place.
// Returns false if the chain has no valid graph with I/O nodes.
func (c *Chain) Process(channels [][]float64) bool {
	n := core.Frames(channels)
	if n == 0 {
		return true
	}

	g := c.graph
	if g == nil || !hasRequiredIONodes(g) {
		return false
	}

	buffers := c.prepareBuffers(channels, n, g)

	for _, id := range g.Order {
		if id == InputNodeID {
			continue
		}

		c.processNode(id, g, buffers)
	}

	out := buffers[OutputNodeID]
	for ch := range channels {
		copy(channels[ch][:n], out[ch])
	}

	return true
}

// prepareBuffers sizes one planar buffer set per node for n frames. The
// input node aliases the caller's channels.
func (c *Chain) prepareBuffers(channels [][]float64, n int, g *compiledGraph) map[string][][]float64 {
	if c.outBuf == nil {
		c.outBuf = make(map[string][][]float64, len(g.Nodes))
	}

	if len(c.inView) != len(channels) {
		c.inView = make([][]float64, len(channels))
	}

	for ch := range channels {
		c.inView[ch] = channels[ch][:n]
	}

	buffers := c.outBuf
	buffers[InputNodeID] = c.inView

	for _, id := range g.Order {
		if id == InputNodeID {
			continue
		}

		set := buffers[id]
		if len(set) != len(channels) {
			set = make([][]float64, len(channels))
		}

		for ch := range set {
			buf := set[ch]
			if cap(buf) < n {
				buf = make([]float64, n)
			}

			set[ch] = buf[:n]
		}

		buffers[id] = set
	}

	return buffers
}

func (c *Chain) processNode(id string, g *compiledGraph, buffers map[string][][]float64) {
	node := g.Nodes[id]
	dst := buffers[id]

	mixParentsInto(g.Incoming[id], dst, buffers)

	if id == OutputNodeID || node.Bypassed || isStructuralNodeType(node.Type) {
		return
	}

	rt := c.nodes[id]
	if rt == nil || rt.runtime == nil {
		return
	}

	rt.runtime.Process(dst)
}

// mixParentsInto copies a single parent or averages several; a node
// without parents receives silence.
func mixParentsInto(parents []compiledEdge, dst [][]float64, buffers map[string][][]float64) {
	if len(parents) == 0 {
		core.ZeroChannels(dst)
		return
	}

	core.CopyChannels(dst, buffers[parents[0].From])

	if len(parents) == 1 {
		return
	}

	for _, edge := range parents[1:] {
		src := buffers[edge.From]
		for ch := range dst {
			vecmath.AddBlockInPlace(dst[ch], src[ch])
		}
	}

	scale := 1.0 / float64(len(parents))
	for ch := range dst {
		vecmath.ScaleBlockInPlace(dst[ch], scale)
	}
}
