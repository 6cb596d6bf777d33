package backdrop

// Field is a single key/value assignment. Fields are passed as an ordered
// list (not a map) so that the first-seen key order of a snapshot is
// deterministic and log prefixes are reproducible.
type Field struct {
	Key   string
	Value any
}

// KV creates a Field holding an arbitrary value.
func KV(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// String creates a Field holding a string value.
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates a Field holding an int value.
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a Field holding a bool value.
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}
