package port

import "docshelf/internal/domain"

// Packer fits ranked passages into a character budget for prompt assembly.
type Packer interface {
	Pack(query string, passages []domain.RankedPassage, budget int) (domain.PackedContext, error)
}
