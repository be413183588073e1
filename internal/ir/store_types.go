package ir

// Journal records. These are the store's row shapes; they carry constants
// only in text form.

// Run is one journaled batch.
type Run struct {
	ID string `json:"id"`

	// Flags are the names of the numeric safety flags that were set.
	Flags []string `json:"flags"`

	// Target is the JSON form of the target facts, "{}" when none.
	Target string `json:"target"`

	Requests  int `json:"requests"`
	Folded    int `json:"folded"`
	NotFolded int `json:"not_folded"`
	Invalid   int `json:"invalid"`

	EngineVersion string `json:"engine_version"`
	TextVersion   string `json:"text_version"`
}

// FoldRecord is one evaluated request within a run.
type FoldRecord struct {
	ID         string   `json:"id"` // FoldRecordID(RunID, Digest, Seq)
	RunID      string   `json:"run_id"`
	Seq        int64    `json:"seq"`
	Digest     string   `json:"digest"` // RequestDigest
	Fn         string   `json:"fn"`
	ResultType string   `json:"result_type"`
	Args       []string `json:"args"`
	Status     string   `json:"status"`
	Result     string   `json:"result,omitempty"`
	Error      string   `json:"error,omitempty"`
}
