package tts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateDurationSeconds(t *testing.T) {
	// 150 words per minute: 150 words estimate at 60 seconds
	assert.Equal(t, 60, EstimateDurationSeconds(strings.Repeat("word ", 150)))
	assert.Equal(t, 10, EstimateDurationSeconds(strings.Repeat("word ", 25)))

	// very short inputs are floored, never zero
	assert.Equal(t, 1, EstimateDurationSeconds("Why?"))
	assert.Equal(t, 1, EstimateDurationSeconds(""))
}
