package render

// RevealState is the phase of an interactive before/after reveal
type RevealState int

const (
	RevealCollapsed RevealState = iota
	RevealExpanding
	RevealExpanded
)

// ScrollRequest asks the client to bring an element into view.
// Block follows scrollIntoView: "end" aligns the element's bottom edge.
type ScrollRequest struct {
	Target string `json:"target"`
	Block  string `json:"block"`
}

// Reveal tracks the before/after panel of one interactive slide.
// It is not safe for concurrent use.
type Reveal struct {
	target string
	state  RevealState
}

// NewReveal creates a collapsed reveal whose after panel has the given element id
func NewReveal(target string) *Reveal {
	return &Reveal{target: target}
}

// Simplify starts expanding the after panel. It reports false if the panel
// is already shown.
func (r *Reveal) Simplify() bool {
	if r.state != RevealCollapsed {
		return false
	}
	r.state = RevealExpanding
	return true
}

// AnimationDone marks the expand animation finished and returns the scroll
// that makes the panel's bottom edge visible. Completions that do not follow
// an expand (a collapse animation, a duplicate event) request nothing.
func (r *Reveal) AnimationDone() (ScrollRequest, bool) {
	if r.state != RevealExpanding {
		return ScrollRequest{}, false
	}
	r.state = RevealExpanded
	return ScrollRequest{Target: r.target, Block: "end"}, true
}

// Reset collapses the after panel
func (r *Reveal) Reset() {
	r.state = RevealCollapsed
}

// State returns the current phase
func (r *Reveal) State() RevealState {
	return r.state
}

// Revealed reports whether the after panel is shown
func (r *Reveal) Revealed() bool {
	return r.state != RevealCollapsed
}
