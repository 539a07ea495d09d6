package orders

type Status string

const (
	StatusPending    Status = "pending"
	StatusPaid       Status = "paid"
	StatusPendingCOD Status = "pending_cod"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCanceled   Status = "canceled"
)

// KnownStatus reports whether s is one of the statuses the admin panel
// offers. Updates are deliberately permissive: any value an admin sends
// is persisted, this is only a hint for UIs.
func KnownStatus(s Status) bool {
	switch s {
	case StatusPending, StatusPaid, StatusPendingCOD, StatusShipped, StatusDelivered, StatusCanceled:
		return true
	}
	return false
}
