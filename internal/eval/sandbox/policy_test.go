package sandbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy(t *testing.T) {
	policy := DefaultPolicy()

	assert.True(t, policy.IsSafeAttribute("name"))
	assert.True(t, policy.IsSafeAttribute("_private"))
	assert.False(t, policy.IsSafeAttribute("__class__"))
	assert.False(t, policy.IsSafeAttribute("__"))
}

func TestCELPolicy(t *testing.T) {
	policy, err := NewCELPolicy(`name != "password" && !name.endsWith("_secret")`)
	require.NoError(t, err)

	tests := []struct {
		name    string
		allowed bool
	}{
		{"owner", true},
		{"_owner", true},
		{"password", false},
		{"api_secret", false},
		{"__dict__", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, policy.IsSafeAttribute(tt.name))
			// cached answer
			assert.Equal(t, tt.allowed, policy.IsSafeAttribute(tt.name))
		})
	}
}

func TestCELPolicyInvalid(t *testing.T) {
	_, err := NewCELPolicy(`name +`)
	assert.Error(t, err)

	_, err = NewCELPolicy(`size(name)`)
	assert.Error(t, err)
}

func TestExprPolicy(t *testing.T) {
	policy, err := NewExprPolicy(`name != "password" && !(name endsWith "_secret")`)
	require.NoError(t, err)

	assert.True(t, policy.IsSafeAttribute("owner"))
	assert.True(t, policy.IsSafeAttribute("_owner"))
	assert.False(t, policy.IsSafeAttribute("password"))
	assert.False(t, policy.IsSafeAttribute("api_secret"))
	assert.False(t, policy.IsSafeAttribute("__dict__"))
	assert.Equal(t, `name != "password" && !(name endsWith "_secret")`, policy.String())

	_, err = NewExprPolicy(`name +`)
	assert.Error(t, err)

	_, err = NewExprPolicy(`len(name)`)
	assert.Error(t, err)
}

func TestParse(t *testing.T) {
	policy, err := Parse("", "")
	require.NoError(t, err)
	assert.False(t, policy.IsSafeAttribute("__x"))
	assert.True(t, policy.IsSafeAttribute("password"))

	policy, err = Parse(LanguageCEL, `name != "password"`)
	require.NoError(t, err)
	assert.IsType(t, &CELPolicy{}, policy)

	policy, err = Parse(LanguageExpr, `name != "password"`)
	require.NoError(t, err)
	assert.IsType(t, &ExprPolicy{}, policy)
	assert.False(t, policy.IsSafeAttribute("password"))

	_, err = Parse("rego", `name != "password"`)
	assert.Error(t, err)

	policy, err = Parse(LanguageExpr, `name +`)
	assert.Error(t, err)
	assert.Nil(t, policy)
}
