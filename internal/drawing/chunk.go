package drawing

// Chunk splits s into consecutive segments of at most limit bytes each.
// Concatenating the result in order reproduces s exactly. The input is
// ASCII (base64 text), so byte slicing never cuts a character.
//
// An empty input yields no chunks. A non-positive limit disables splitting.
func Chunk(s string, limit int) []string {
	if s == "" {
		return nil
	}
	if limit <= 0 {
		return []string{s}
	}

	chunks := make([]string, 0, (len(s)+limit-1)/limit)
	for len(s) > limit {
		chunks = append(chunks, s[:limit])
		s = s[limit:]
	}
	return append(chunks, s)
}
