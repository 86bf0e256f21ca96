// Package batch provides order-preserving slice chunking, used to
// split large ID lists into fetch-sized requests.
package batch

// Chunk splits items into consecutive chunks of at most n elements.
// The chunks preserve input order and partition the input exactly:
// concatenating them reconstructs items. Only the last chunk may be
// short. n < 1 is treated as 1. A nil or empty input yields no chunks.
func Chunk[T any](items []T, n int) [][]T {
	if n < 1 {
		n = 1
	}
	if len(items) == 0 {
		return nil
	}
	chunks := make([][]T, 0, (len(items)+n-1)/n)
	for start := 0; start < len(items); start += n {
		end := start + n
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}
