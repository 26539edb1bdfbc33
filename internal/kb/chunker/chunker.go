package chunker

import (
	"fmt"

	"github.com/google/uuid"
)

// Chunker splits text into fixed-size character windows where each
// window after the first starts overlap characters before the previous
// window's end. Window boundaries are byte offsets, matching the
// knowledge base the original corpus was indexed with.
type Chunker struct {
	size    int
	overlap int
}

// New validates the window parameters up front. overlap >= size would
// stop the window start from advancing, so it is rejected here instead
// of looping forever at split time.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("chunk overlap must be non-negative, got %d", overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", overlap, size)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Split produces the ordered windows of text. Empty input yields nil.
// The last window may be shorter than size; production stops once a
// window end reaches the end of the text.
func (c *Chunker) Split(text string) []string {
	if len(text) == 0 {
		return nil
	}

	var chunks []string
	start := 0
	for {
		end := start + c.size
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
		if end == len(text) {
			return chunks
		}
		start = end - c.overlap
	}
}

// ChunkID builds the deterministic composite id for one chunk, e.g.
// "pubmed_39214589_0". Re-ingesting the same record with the same
// parameters reproduces the same ids, which is what makes upserts
// idempotent.
func ChunkID(prefix, recordID string, idx int) string {
	return fmt.Sprintf("%s_%s_%d", prefix, recordID, idx)
}

// chunk ids are not valid qdrant point ids (those must be UUIDs or
// integers), so points are keyed by a UUIDv5 derived from the chunk id.
var pointNamespace = uuid.MustParse("8e6f2f2a-44a4-4f13-9e8f-5a1c0a6d9b11")

// PointID maps a chunk id to the stable vector-store point id.
func PointID(chunkID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(chunkID)).String()
}
