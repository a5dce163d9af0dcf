package cia

// actions is the set of pending actions held by one pipeline stage.
type actions struct {
	CountA bool // decrement timer A
	CountB bool // decrement timer B
	LoadA  bool // load timer A from its latch
	LoadB  bool // load timer B from its latch
	SetIRQ bool // assert the interrupt line
	PB6Low bool // end of a PB6 pulse
	PB7Low bool // end of a PB7 pulse
	SerInt bool // serial transfer complete
}

const pipelineDepth = 4

// pipeline is a ring of action stages, shifted once per tick. New actions
// enter at stage 0. Counting, loading and interrupt actions are performed
// when they reach stage 1, the serial interrupt when it reaches stage 2.
type pipeline struct {
	ring [pipelineDepth]actions
	head int
}

// stage returns the i-th stage, stage 0 being the most recent.
func (p *pipeline) stage(i int) *actions {
	return &p.ring[(p.head-i)&(pipelineDepth-1)]
}

// shift moves every stage one step forward, dropping the oldest one, and
// fills stage 0 with feed.
func (p *pipeline) shift(feed actions) {
	p.head = (p.head + 1) & (pipelineDepth - 1)
	p.ring[p.head] = feed
}

// fill sets every stage to a.
func (p *pipeline) fill(a actions) {
	for i := range p.ring {
		p.ring[i] = a
	}
}

// steady reports whether every stage that can still be acted upon holds
// exactly a.
func (p *pipeline) steady(a actions) bool {
	for i := range pipelineDepth - 1 {
		if *p.stage(i) != a {
			return false
		}
	}
	return true
}

// dropIRQ discards pending interrupt raises.
func (p *pipeline) dropIRQ() {
	for i := range p.ring {
		p.ring[i].SetIRQ = false
	}
}
