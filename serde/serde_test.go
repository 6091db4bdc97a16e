package serde

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestString(t *testing.T) {
	data, err := String.Serializer("hello")
	assert.NoError(t, err)
	v, err := String.Deserializer(data)
	assert.NoError(t, err)
	assert.Equal(t, "hello", v)
}

func TestInt64(t *testing.T) {
	data, err := Int64.Serializer(-42)
	assert.NoError(t, err)
	assert.Equal(t, 8, len(data))

	v, err := Int64.Deserializer(data)
	assert.NoError(t, err)
	assert.Equal(t, int64(-42), v)

	_, err = Int64.Deserializer([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestFloat64(t *testing.T) {
	data, err := Float64.Serializer(3.25)
	assert.NoError(t, err)
	v, err := Float64.Deserializer(data)
	assert.NoError(t, err)
	assert.Equal(t, 3.25, v)

	_, err = Float64.Deserializer(nil)
	assert.Error(t, err)
}

func TestJSON(t *testing.T) {
	type event struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	sd := JSON[event]()
	data, err := sd.Serializer(event{Name: "fire", Count: 3})
	assert.NoError(t, err)

	v, err := sd.Deserializer(data)
	assert.NoError(t, err)
	assert.Equal(t, event{Name: "fire", Count: 3}, v)

	_, err = sd.Deserializer([]byte("{not json"))
	assert.Error(t, err)
}
