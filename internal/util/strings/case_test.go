package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToSnakeCase(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"MyValue", "my_value"},
		{"HTTPRequest", "http_request"},
		{"userID", "user_id"},
		{"plain", "plain"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToSnakeCase(tt.in), tt.in)
	}
}

func TestLowerFirst(t *testing.T) {
	assert.Equal(t, "myValue", LowerFirst("MyValue"))
	assert.Equal(t, "éclair", LowerFirst("Éclair"))
	assert.Equal(t, "", LowerFirst(""))
	assert.True(t, StartsUpper("Name"))
	assert.False(t, StartsUpper("name"))
	assert.False(t, StartsUpper(""))
}

func TestVariants(t *testing.T) {
	assert.Equal(t, []string{
		"myValue", "_myValue",
		"MyValue", "_MyValue",
		"myvalue", "_myvalue",
		"my_value", "_my_value",
	}, Variants("MyValue"))

	assert.Equal(t, []string{"name", "_name", "Name", "_Name"}, Variants("Name"))
}
