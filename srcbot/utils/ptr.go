package utils

// Ptr returns a pointer to v, for the optional fields on message updates.
func Ptr[T any](v T) *T {
	return &v
}
