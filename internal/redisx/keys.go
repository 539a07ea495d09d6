package redisx

import "time"

const (
	// Cached shop settings JSON: settings:{key}
	KeySettings = "settings:%s"

	// Idempotency shortcut for checkout: idem:checkout:{external_id} -> order_id
	KeyIdemCheckout = "idem:checkout:%s"

	// Dedup for consumed events: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLSettings    = 5 * time.Minute
	TTLIdempotency = 24 * time.Hour
	TTLDedup       = 48 * time.Hour
)
