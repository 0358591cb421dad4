package tool

import "fmt"

// FormatBytes renders a byte count for user-facing messages (binary units).
func FormatBytes(n int64) string {
	const (
		kib = 1024
		mib = 1024 * kib
		gib = 1024 * mib
	)
	switch {
	case n >= gib:
		return fmt.Sprintf("%.2f GB", float64(n)/float64(gib))
	case n >= mib:
		return fmt.Sprintf("%.2f MB", float64(n)/float64(mib))
	case n >= kib:
		return fmt.Sprintf("%.2f KB", float64(n)/float64(kib))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
