package debugger

// SetDiscarded stores discarded as the Debugger's discard flag and, for
// true, also sets the Program's sticky discard flag and aborts both the
// Program and its Stepper, mirroring the original's `SetDiscarded(true)`
// aborting both `m_stepper` and `m_prog`. The $$discard host function
// reaches it through Discard below.
func (d *Debugger) SetDiscarded(discarded bool) {
	d.discarded = discarded
	if discarded {
		if d.stepper != nil {
			d.stepper.Abort()
		}
		if d.prog != nil {
			d.prog.SetDiscarded()
		}
	}
}

// Discard implements library.Discarder (no bool argument): it is what the
// $$discard host function calls through Program.UserData. The VM's native
// DISCARD opcode (what frontend/glsl actually compiles `discard;` to)
// instead sets Program.Discarded directly without going through
// UserData, so IsDiscarded below consults both paths.
func (d *Debugger) Discard() { d.SetDiscarded(true) }

// IsDiscarded reports whether the program has discarded, whether that
// happened via the DISCARD opcode or the $$discard host function.
func (d *Debugger) IsDiscarded() bool {
	return d.discarded || (d.prog != nil && d.prog.Discarded)
}
