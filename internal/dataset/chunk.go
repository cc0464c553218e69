package dataset

// DefaultChunkSize is the window size, in runes, used when none is given.
const DefaultChunkSize = 5000

// Split cuts text into windows of chunkSize runes that overlap by half a
// window. Text no longer than chunkSize is returned as a single chunk and
// empty text yields no chunks. Windows start every chunkSize-chunkSize/2
// runes until the end of the text, so trailing windows may be short.
func Split(text string, chunkSize int) []string {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= chunkSize {
		return []string{text}
	}

	stride := chunkSize - chunkSize/2
	chunks := make([]string, 0, len(runes)/stride+1)
	for start := 0; start < len(runes); start += stride {
		end := min(start+chunkSize, len(runes))
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
