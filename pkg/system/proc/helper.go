package proc

// deltaU64 returns now-prev, or 0 when the counter went backwards
// (wrap or reset).
func deltaU64(now, prev uint64) uint64 {
	if now >= prev {
		return now - prev
	}
	return 0
}
