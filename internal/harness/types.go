package harness

// TraceEvent is one evaluated call, in the order the scenario lists it.
type TraceEvent struct {
	Seq    int64    `json:"seq"`
	Fn     string   `json:"fn"`
	Type   string   `json:"type"`
	Args   []string `json:"args"`
	Status string   `json:"status"`
	Result string   `json:"result,omitempty"`
	Error  string   `json:"error,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every case and assertion held and the journaled
	// run replayed identically.
	Pass bool `json:"pass"`

	RunID string `json:"run_id"`

	// Flags are the names of the flags the run folded under.
	Flags []string `json:"flags"`

	Trace []TraceEvent `json:"trace"`

	// Errors is empty when Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Flags:  []string{},
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
