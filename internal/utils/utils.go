package utils

// Ptr returns a pointer to the passed value, useful for initializing
// optional fields inline.
func Ptr[T any](v T) *T {
	return &v
}
