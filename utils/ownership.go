package utils

type Decision int

const (
	Denied Decision = iota
	Allowed
)

// Authorize allows a mutation only when the requester owns the resource.
// It must be consulted after authentication and before the write.
func Authorize(resourceOwnerID, requesterID string) Decision {
	if requesterID == "" || resourceOwnerID != requesterID {
		return Denied
	}
	return Allowed
}
