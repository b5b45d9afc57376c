package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName(t *testing.T) {
	assert.NoError(t, Name("Casa Quinta"))
	assert.Error(t, Name(""))
	assert.Error(t, Name(strings.Repeat("x", 101)))
	assert.NoError(t, Name(strings.Repeat("x", 100)))
}

func TestEmail(t *testing.T) {
	assert.NoError(t, Email("colega@example.test"))
	assert.Error(t, Email(""))
	assert.Error(t, Email("not-an-email"))
	assert.Error(t, Email("two@@example.test"))
	assert.Error(t, Email("a@b"))
	assert.Error(t, Email(strings.Repeat("x", 310)+"@example.test"))
}

func TestNonEmpty(t *testing.T) {
	assert.NoError(t, NonEmpty("field", "v"))
	assert.EqualError(t, NonEmpty("ownerId", ""), "ownerId is required")
}
