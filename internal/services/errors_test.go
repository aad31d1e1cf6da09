package services_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielemils/new-alice/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "effects", "apply", "sox exited", base)
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrExternalTool)
	assert.ErrorIs(t, err, base)
	for _, fragment := range []string{"effects", "apply", "sox exited"} {
		assert.Contains(t, err.Error(), fragment)
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	assert.ErrorIs(t, err, services.ErrTransient)
	assert.Contains(t, err.Error(), "conversion failure")
}

func TestFailureKind(t *testing.T) {
	assert.Equal(t, "", services.FailureKind(nil))
	assert.Equal(t, "stopping", services.FailureKind(fmt.Errorf("merge: %w", services.ErrStopping)))
	assert.Equal(t, "external_tool", services.FailureKind(services.Wrap(services.ErrExternalTool, "merge", "run", "", nil)))
	assert.Equal(t, "validation", services.FailureKind(services.Wrap(services.ErrValidation, "job", "", "", nil)))
	assert.Equal(t, "transient", services.FailureKind(errors.New("io")))
}

func TestIsStopping(t *testing.T) {
	assert.True(t, services.IsStopping(services.Wrap(services.ErrStopping, "noise", "wait", "", nil)))
	assert.False(t, services.IsStopping(services.ErrExternalTool))
}
