package validate

import (
	"errors"
	"testing"

	"github.com/go-magic-auth/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Intent string `json:"intent" validate:"required,oneof=a b"`
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(sample{Intent: "a"}))
}

func TestStruct_ReportsJSONFieldName(t *testing.T) {
	err := Struct(sample{Intent: "c"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	assert.Contains(t, err.Error(), "field 'intent' failed 'oneof'")
}
