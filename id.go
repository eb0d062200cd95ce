package cleave

import (
	"fmt"

	"github.com/google/uuid"
)

// NewID returns a fresh document id.
func NewID() string {
	return uuid.NewString()
}

// ChunkID derives the stable id of a chunk from its document id and chunk
// index. Re-ingesting an unchanged document therefore produces the same id
// set and overwrites in place, and sibling ids are derivable from any hit's
// metadata without extra store round-trips.
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s#%d", documentID, index)
}
