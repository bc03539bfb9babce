package harness

// Trace phases.
const (
	PhaseSetup = "setup"
	PhaseFlow  = "flow"
)

// TraceEvent records one program run and its result.
type TraceEvent struct {
	Seq     int            `json:"seq"`
	Phase   string         `json:"phase"`
	Program string         `json:"program"`
	Args    string         `json:"args"`
	User    int64          `json:"user"`
	Result  map[string]any `json:"result"`
}

// Success reports whether the run succeeded.
func (e TraceEvent) Success() bool {
	ok, present := e.Result["success"].(bool)
	return !present || ok
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace contains every setup and flow run in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a run to the trace and returns its sequence number.
func (r *Result) AddTrace(event TraceEvent) int {
	event.Seq = len(r.Trace) + 1
	r.Trace = append(r.Trace, event)
	return event.Seq
}
