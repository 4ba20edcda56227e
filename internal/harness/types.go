package harness

// Result is the outcome of running a suite.
type Result struct {
	Suite string `json:"suite"`

	// Pass is true when every case passed.
	Pass bool `json:"pass"`

	Cases []CaseResult `json:"cases"`
}

// CaseResult is the outcome of one case.
type CaseResult struct {
	Name  string   `json:"name"`
	Query string   `json:"query"`
	SQL   []string `json:"sql,omitempty"`

	// Code is the error code of a failed translation.
	Code string `json:"code,omitempty"`

	// Message is the full error message of a failed translation.
	Message string `json:"message,omitempty"`

	Pass bool `json:"pass"`

	// Errors lists mismatches against the case's expectations.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(suite string) *Result {
	return &Result{
		Suite: suite,
		Pass:  true,
		Cases: []CaseResult{},
	}
}

// Add appends a case result, failing the suite if the case failed.
func (r *Result) Add(c CaseResult) {
	r.Cases = append(r.Cases, c)
	if !c.Pass {
		r.Pass = false
	}
}

// Failed returns the failing cases.
func (r *Result) Failed() []CaseResult {
	var failed []CaseResult
	for _, c := range r.Cases {
		if !c.Pass {
			failed = append(failed, c)
		}
	}
	return failed
}

// AddError records a mismatch and marks the case as failed.
func (c *CaseResult) AddError(err string) {
	c.Errors = append(c.Errors, err)
	c.Pass = false
}
