package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rigup/rigup/pkg/errors"
)

func TestErrorFormatting(t *testing.T) {
	err := errors.New(errors.ErrManagerMissing, "brew is not installed")
	assert.Equal(t, "[MANAGER_MISSING] brew is not installed", err.Error())

	wrapped := errors.Wrap(stderrors.New("exit status 1"), errors.ErrInstallFailed, "apt-get install zsh failed")
	assert.Equal(t, "[INSTALL_FAILED] apt-get install zsh failed: exit status 1", wrapped.Error())
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.Nil(t, errors.Wrap(nil, errors.ErrInternal, "ignored"))
	assert.Nil(t, errors.Wrapf(nil, errors.ErrInternal, "ignored %d", 1))
}

func TestUnwrapChain(t *testing.T) {
	root := stderrors.New("permission denied")
	err := errors.Wrap(root, errors.ErrFileWrite, "failed to write .zshrc")

	assert.True(t, stderrors.Is(err, root))
	assert.Equal(t, root, stderrors.Unwrap(err))
}

func TestIsErrorCode(t *testing.T) {
	err := errors.Newf(errors.ErrCloneFailed, "git clone %s failed", "https://example.com/r")

	assert.True(t, errors.IsErrorCode(err, errors.ErrCloneFailed))
	assert.False(t, errors.IsErrorCode(err, errors.ErrScriptFailed))
	assert.False(t, errors.IsErrorCode(nil, errors.ErrCloneFailed))
	assert.False(t, errors.IsErrorCode(stderrors.New("plain"), errors.ErrCloneFailed))

	// Codes survive further wrapping with %w.
	outer := fmt.Errorf("run failed: %w", err)
	assert.True(t, errors.IsErrorCode(outer, errors.ErrCloneFailed))
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, errors.ErrBackupFailed, errors.GetErrorCode(errors.New(errors.ErrBackupFailed, "x")))
	assert.Equal(t, errors.ErrUnknown, errors.GetErrorCode(stderrors.New("plain")))
}

func TestWithDetail(t *testing.T) {
	err := errors.New(errors.ErrManagerMissing, "missing").
		WithDetail("platform", "macos").
		WithDetail("binary", "brew")

	assert.Equal(t, "macos", err.Details["platform"])
	assert.Equal(t, "brew", err.Details["binary"])
}
