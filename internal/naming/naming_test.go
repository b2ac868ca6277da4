package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToPascalCase(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"first_name", "FirstName"},
		{"userId", "UserId"},
		{"x-rate-limit", "XRateLimit"},
		{"address", "Address"},
		{"already Pascal", "AlreadyPascal"},
		{"__", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ToPascalCase(tt.input))
		})
	}
}

func TestToCamelCase(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"first_name", "firstName"},
		{"UserId", "userId"},
		{"user-id", "userId"},
		{"id", "id"},
		{"@", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ToCamelCase(tt.input))
		})
	}
}

func TestPathName(t *testing.T) {
	assert.Equal(t, "UsersUserIdPosts", PathName("/users/{userId}/posts"))
	assert.Equal(t, "V1PetStatus", PathName("/v1/pet-status"))
	assert.Equal(t, "", PathName("/"))
}

func TestEnumLabel(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"a.b", "A_B"},
		{"c-d", "C_D"},
		{"in progress", "IN_PROGRESS"},
		{"a--b", "A_B"},
		{"active", "ACTIVE"},
		{"2fa", "_2FA"},
		{"", "EMPTY"},
		{"-", "_"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, EnumLabel(tt.input))
		})
	}
}

func TestIsIdentifier(t *testing.T) {
	assert.True(t, IsIdentifier("userId"))
	assert.True(t, IsIdentifier("_x$1"))
	assert.False(t, IsIdentifier("2fa"))
	assert.False(t, IsIdentifier("a-b"))
	assert.False(t, IsIdentifier(""))
}

func TestIsReserved(t *testing.T) {
	for _, w := range []string{"class", "default", "delete", "new", "this", "await"} {
		assert.True(t, IsReserved(w), w)
	}
	for _, w := range []string{"userId", "klass", "Class", ""} {
		assert.False(t, IsReserved(w), w)
	}
}

func TestTypeAndFuncName(t *testing.T) {
	assert.Equal(t, "Pet", TypeName("Pet"))
	assert.Equal(t, "ApiV1User", TypeName("api.v1.User"))
	assert.Equal(t, "_3dModel", TypeName("3d-model"))
	assert.Equal(t, "listPets", FuncName("listPets"))
	assert.Equal(t, "listUsers", FuncName("list-users"))
}
