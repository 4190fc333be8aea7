package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStructureErrorsMatchSentinel(t *testing.T) {
	wrapped := fmt.Errorf("transform: %w", Structuref("a.stories.vue", "story is missing a title"))
	assert.ErrorIs(t, wrapped, ErrStructure)
	assert.Contains(t, wrapped.Error(), "a.stories.vue: story is missing a title")

	missing := fmt.Errorf("parse: %w", &MissingTemplateError{File: "b.stories.vue"})
	assert.ErrorIs(t, missing, ErrStructure)

	var mt *MissingTemplateError
	assert.True(t, errors.As(missing, &mt))
	assert.Equal(t, "b.stories.vue", mt.File)
}

func TestNonHoistableBindingErrorNamesBinding(t *testing.T) {
	err := fmt.Errorf("hoist: %w", &NonHoistableBindingError{Binding: "count"})

	var nh *NonHoistableBindingError
	assert.True(t, errors.As(err, &nh))
	assert.Equal(t, "count", nh.Binding)
	assert.Contains(t, err.Error(), `"count"`)
	assert.NotErrorIs(t, err, ErrStructure)
}

func TestConfigurationErrorListsSearchedPaths(t *testing.T) {
	err := &ConfigurationError{Reason: "no tsconfig found", Searched: []string{"tsconfig.app.json", "tsconfig.json"}}
	assert.Equal(t, "configuration error: no tsconfig found (searched: tsconfig.app.json, tsconfig.json)", err.Error())
}
