package kv

// Quota wraps a Backend with a fixed capacity ceiling. Writes that would push
// the total footprint over the ceiling fail with ErrQuotaExceeded, the same
// way browser-style host storage refuses data once full.
type Quota struct {
	Backend
	quotaBytes   int64
	bytesPerChar int
}

// WithQuota limits b to quotaBytes, measuring pairs at bytesPerChar bytes per
// UTF-16 code unit.
func WithQuota(b Backend, quotaBytes int64, bytesPerChar int) *Quota {
	if bytesPerChar <= 0 {
		bytesPerChar = 2
	}
	return &Quota{Backend: b, quotaBytes: quotaBytes, bytesPerChar: bytesPerChar}
}

// Set stores the pair unless the resulting footprint exceeds the quota.
// Writes that do not grow the footprint are always accepted.
func (q *Quota) Set(key, value string) error {
	var total, existing int64
	err := q.Backend.ForEach(func(k, v string) error {
		n := Footprint(k, v, q.bytesPerChar)
		total += n
		if k == key {
			existing = n
		}
		return nil
	})
	if err != nil {
		return err
	}

	next := total - existing + Footprint(key, value, q.bytesPerChar)
	if next > q.quotaBytes && next > total {
		return ErrQuotaExceeded
	}
	return q.Backend.Set(key, value)
}

// QuotaBytes returns the configured ceiling.
func (q *Quota) QuotaBytes() int64 { return q.quotaBytes }

// Unwrap returns the wrapped backend.
func (q *Quota) Unwrap() Backend { return q.Backend }
