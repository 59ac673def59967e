package mathutil

// CountUTF8Runes counts the number of UTF-8 code points in s by skipping
// continuation bytes (top two bits "10"), rather than validating or
// decoding them. This mirrors the byte-wise counting the reference decoder
// uses for rendered transcript lengths, and tolerates the same malformed
// input unicode/utf8.RuneCountInString would reject.
func CountUTF8Runes(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i]&0xc0 != 0x80 {
			n++
		}
	}
	return n
}

// SplitUTF8Chars splits s into one string per code point, again by
// continuation-byte skipping rather than rune decoding.
func SplitUTF8Chars(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, CountUTF8Runes(s))
	start := 0
	for i := 1; i < len(s); i++ {
		if s[i]&0xc0 != 0x80 {
			out = append(out, s[start:i])
			start = i
		}
	}
	out = append(out, s[start:])
	return out
}
