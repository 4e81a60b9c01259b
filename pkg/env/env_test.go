package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetFallsBackWhenUnsetOrBlank(t *testing.T) {
	assert.Equal(t, "json", Get("TRADEFLOW_TEST_UNSET", "json"))

	t.Setenv("TRADEFLOW_TEST_BLANK", "   ")
	assert.Equal(t, "json", Get("TRADEFLOW_TEST_BLANK", "json"))

	t.Setenv("TRADEFLOW_TEST_SET", "console")
	assert.Equal(t, "console", Get("TRADEFLOW_TEST_SET", "json"))
}
