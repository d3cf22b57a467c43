package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	t.Setenv("TAOMALL_LOG_FORMAT", "  ")
	assert.Equal(t, "json", Get("TAOMALL_LOG_FORMAT", "json"))
	t.Setenv("TAOMALL_LOG_FORMAT", " console ")
	assert.Equal(t, "console", Get("TAOMALL_LOG_FORMAT", "json"))
}
