package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizeRedactsSensitiveKeys(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.Info("login",
		"email", "cook@example.com",
		"password", "hunter2",
		"user_id", "u1",
		"header", "eyJhbGciOiJIUzI1NiJ9.eyJ1aWQiOiJ1MSJ9abc.signature",
	)

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "[REDACTED]", fields["email"])
		assert.Equal(t, "[REDACTED]", fields["password"])
		assert.Equal(t, "u1", fields["user_id"])
		assert.Equal(t, "[REDACTED]", fields["header"])
	}
}

func TestWithKeepsOddTrailingValue(t *testing.T) {
	out := sanitizeKVs([]interface{}{"a", 1, "dangling"})
	assert.Equal(t, []interface{}{"a", 1, "dangling"}, out)
}

func TestNewDevelopmentAndProduction(t *testing.T) {
	for _, env := range []string{"development", "production"} {
		l, err := New(env)
		assert.NoError(t, err)
		assert.NotNil(t, l.With("component", "test"))
	}
}
