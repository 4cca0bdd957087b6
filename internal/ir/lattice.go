package ir

// LatticeSpec describes a finite lattice as a Hasse diagram.
type LatticeSpec struct {
	Name     string            `json:"name"`
	Elements []string          `json:"elements,omitempty"`
	Order    []Cover           `json:"order,omitempty"`
	Literals map[string]string `json:"literals,omitempty"` // literal kind -> element name
}

// Cover is a Hasse-diagram edge: Lesser is covered by Greater.
type Cover struct {
	Lesser  string `json:"lesser"`
	Greater string `json:"greater"`
}

// Literal kinds recognised by the expression classifier.
const (
	LiteralInt    = "int"
	LiteralFloat  = "float"
	LiteralString = "string"
	LiteralBool   = "bool"
)

// ValidLiteralKinds defines allowed keys of LatticeSpec.Literals.
var ValidLiteralKinds = map[string]bool{
	LiteralInt:    true,
	LiteralFloat:  true,
	LiteralString: true,
	LiteralBool:   true,
}
