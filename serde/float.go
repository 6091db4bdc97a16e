package serde

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Float64Serializer serializes float64 to big-endian IEEE 754 bytes
var Float64Serializer = func(data float64) ([]byte, error) {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, math.Float64bits(data))
	return buf, nil
}

// Float64Deserializer deserializes big-endian IEEE 754 bytes to float64
var Float64Deserializer = func(data []byte) (float64, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("float64: want 8 bytes, have %d", len(data))
	}
	return math.Float64frombits(binary.BigEndian.Uint64(data)), nil
}

// Float64 is a SerDe for float64 values
var Float64 = SerDe[float64]{
	Serializer:   Float64Serializer,
	Deserializer: Float64Deserializer,
}
