package yard

import "strings"

// Fallback shuttles every row straight across: lift, run to the exit, drop, come back.
// It is always legal; it only sorts a board whose rows arrive in order.
func Fallback(n int) []string {
	var sb strings.Builder
	for k := 0; k < n; k++ {
		sb.WriteByte(byte(Lift))
		sb.WriteString(strings.Repeat(string(Right), n-1))
		sb.WriteByte(byte(Drop))
		if k < n-1 {
			sb.WriteString(strings.Repeat(string(Left), n-1))
		}
	}
	out := make([]string, n)
	for i := range out {
		out[i] = sb.String()
	}
	return out
}
