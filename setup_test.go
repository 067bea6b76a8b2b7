package main

import (
	"testing"

	"github.com/2024luvyavarliani-boop/Upcyclee/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestValidateAdminID(t *testing.T) {
	assert.NoError(t, validateAdminID("", false))
	assert.Error(t, validateAdminID("", true))
	assert.NoError(t, validateAdminID("123456", true))
	assert.Error(t, validateAdminID("abc", true))
	assert.Error(t, validateAdminID("-5", true))
}

func TestValidateGeminiKey_Empty(t *testing.T) {
	assert.EqualError(t, validateGeminiKey(""), "API key is required")
}

func TestEnvValues_KeepsSecret(t *testing.T) {
	t.Setenv(config.EnvSecret, "existing")
	t.Setenv(config.EnvDBPath, "/var/lib/upcycle.db")

	values := (&setupAnswers{GeminiKey: "k", AdminID: "1"}).envValues()

	assert.Equal(t, "existing", values[config.EnvSecret])
	assert.Equal(t, "/var/lib/upcycle.db", values[config.EnvDBPath])
	assert.Equal(t, "k", values[config.EnvGeminiAPIKey])
	assert.Empty(t, values[config.EnvBotToken])
}

func TestEnvValues_GeneratesSecret(t *testing.T) {
	t.Setenv(config.EnvSecret, "")

	a := (&setupAnswers{}).envValues()[config.EnvSecret]
	b := (&setupAnswers{}).envValues()[config.EnvSecret]

	assert.Len(t, a, 26)
	assert.NotEqual(t, a, b)
}
