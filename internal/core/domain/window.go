package domain

// Window is an inclusive range of sols to synchronise.
type Window struct {
	// Start is the first sol in the window, never below 1.
	Start int

	// End is the current sol, the last in the window.
	End int
}

// ComputeWindow returns the lookback window ending at currentSol.
// The start is clamped so it never drops below sol 1.
func ComputeWindow(currentSol, lookback int) Window {
	start := currentSol - lookback
	if start < 1 {
		start = 1
	}
	return Window{Start: start, End: currentSol}
}

// Len returns the number of sols in the window.
func (w Window) Len() int {
	return w.End - w.Start + 1
}

// Sols returns the window's sols in increasing order.
func (w Window) Sols() []int {
	sols := make([]int, 0, w.Len())
	for s := w.Start; s <= w.End; s++ {
		sols = append(sols, s)
	}
	return sols
}
