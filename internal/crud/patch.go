package crud

// Set copies *v into dst when v is non-nil.
func Set[V any](dst *V, v *V) {
	if v != nil {
		*dst = *v
	}
}

// SetOptional applies a patch to a nullable string field. A nil patch leaves
// dst unchanged and an empty string clears it.
func SetOptional(dst **string, v *string) {
	switch {
	case v == nil:
	case *v == "":
		*dst = nil
	default:
		value := *v
		*dst = &value
	}
}

// Optional normalises an input value for storage: empty strings become nil.
func Optional(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	value := *v
	return &value
}
