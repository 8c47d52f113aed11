package port

type Extractor interface {
	// Extract converts raw file bytes to plain text based on the file
	// name's extension.
	Extract(name string, data []byte) (string, error)

	Supports(name string) bool
}
