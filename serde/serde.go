package serde

// Serializer turns a value into its wire representation.
type Serializer[T any] func(T) ([]byte, error)

// Deserializer parses a value from its wire representation.
type Deserializer[T any] func([]byte) (T, error)

// SerDe bundles both directions for one element type.
type SerDe[T any] struct {
	Serializer   Serializer[T]
	Deserializer Deserializer[T]
}
