package inference

// Session is a single inference context obtained from a loaded Model.  A
// Session is used by one caller at a time and is never shared across
// concurrent calls.
type Session interface {
	// Run feeds the input tensor to the named input node, blocks until the
	// network has finished and returns the requested outputs in the same
	// order as outputNames
	Run(inputName string, input Tensor, outputNames []string) ([]Tensor, error)
	// Close releases the session resources
	Close() error
}

// Model is a loaded network.  After loading it is a read-only shared resource
// that hands out Sessions.
type Model interface {
	// NewSession creates a new inference context on the model
	NewSession() (Session, error)
	// Close unloads the model.  It must not be called while Sessions are in
	// use.
	Close() error
}
