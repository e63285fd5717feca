package splitio

// GateState is one of the four named states of the resume gate (spec
// §4.7, §9 "a reimplementation should model these as a named
// four-state machine").
type GateState int

const (
	GatePre GateState = iota
	GateSkip
	GateArmed
	GatePost
)

func (s GateState) String() string {
	switch s {
	case GatePre:
		return "PRE"
	case GateSkip:
		return "SKIP"
	case GateArmed:
		return "ARMED"
	case GatePost:
		return "POST"
	default:
		return "UNKNOWN"
	}
}

// ResumeGate suppresses output until the stream crosses a configured
// intermediate snapshot, then re-enables it. Disabled (target == "")
// means every write is always allowed.
//
// Transitions, checked once per split boundary against the snapshot
// name carried by the boundary's new synthetic BEGIN (grounded on
// zcut_drr.c's split_handler, the g_resume_snapshot_name block):
//   - the boundary's snapshot name matches the target: state -> Armed,
//     regardless of the current state;
//   - otherwise, Pre -> Skip;
//   - otherwise, Armed -> Post.
// Writes are allowed only in Pre and Post (zcut_util.c's write_stream
// suppresses whenever g_output_stage <= 0, i.e. in both Skip and
// Armed — not only Skip).
type ResumeGate struct {
	target string
	state  GateState
}

// NewResumeGate returns a gate armed to suppress output until target is
// crossed. An empty target disables the gate (always allowed).
func NewResumeGate(target string) *ResumeGate {
	return &ResumeGate{target: target, state: GatePre}
}

// Observe advances the gate's state given the snapshot name carried by
// a newly minted split boundary's BEGIN.
func (g *ResumeGate) Observe(snapName string) {
	if g.target == "" {
		return
	}
	switch {
	case snapName == g.target:
		g.state = GateArmed
	case g.state == GatePre:
		g.state = GateSkip
	case g.state == GateArmed:
		g.state = GatePost
	}
}

// Allowed reports whether a write should actually reach the sink.
func (g *ResumeGate) Allowed() bool {
	if g.target == "" {
		return true
	}
	return g.state == GatePre || g.state == GatePost
}

// State returns the gate's current state, for diagnostics.
func (g *ResumeGate) State() GateState { return g.state }
