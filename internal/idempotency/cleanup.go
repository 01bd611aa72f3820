package idempotency

// DeleteExpired removes records older than the repository expiry and returns
// how many were dropped. Redis-backed records expire on their own.
func (r *InMemoryRepository) DeleteExpired() int64 {
	return r.DeleteOlderThan(r.expiry)
}
