package ir

// NOTE: These are store-layer records, not part of the canonical model IR.

// PassStatus is the outcome of one analysis pass.
type PassStatus string

const (
	PassOK         PassStatus = "ok"
	PassFailed     PassStatus = "failed"
	PassRegression PassStatus = "regression"
)

// PassRecord describes one analysis pass (store-layer).
type PassRecord struct {
	ID           string            `json:"id"` // UUIDv7
	Seq          int64             `json:"seq"`
	Model        string            `json:"model"`
	ModelHash    string            `json:"model_hash"`
	Solver       string            `json:"solver"`
	Mode         string            `json:"mode"`
	Status       PassStatus        `json:"status"`
	ResultDigest string            `json:"result_digest,omitempty"`
	Constraints  int               `json:"constraints"`
	Error        string            `json:"error,omitempty"`
	Properties   map[string]string `json:"properties,omitempty"` // component full name -> element
	Stats        map[string]int    `json:"stats,omitempty"`
}

// PropertyChange is a component whose property differs from the previous pass.
type PropertyChange struct {
	Component string `json:"component"`
	Previous  string `json:"previous,omitempty"`
	Current   string `json:"current,omitempty"`
}
