package entities

// Address is a chain-specific account identifier.
// Canonical is the comparison-safe form; Display is the form supplied by the caller or chain.
type Address struct {
	Canonical string
	Display   string
	Kind      ChainKind
}

// String returns the canonical representation
func (a Address) String() string {
	return a.Canonical
}

// IsZero reports whether the address is unset
func (a Address) IsZero() bool {
	return a.Canonical == ""
}
