package xerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap(nil, "context"))
	assert.NoError(t, Wrapf(nil, "user %d", 1))

	wrapped := Wrap(ErrNotFound, "city store")
	require.Error(t, wrapped)
	assert.Equal(t, "city store: not found", wrapped.Error())
	assert.True(t, Is(wrapped, ErrNotFound))

	wrapped = Wrapf(ErrTimeout, "registry[%s]", "consul")
	assert.Equal(t, "registry[consul]: timeout", wrapped.Error())
}

func TestWithCode(t *testing.T) {
	assert.NoError(t, WithCode(nil, "CODE"))

	coded := WithCode(ErrAlreadyExists, "DUPLICATE_KEY")
	assert.Equal(t, "[DUPLICATE_KEY] already exists", coded.Error())
	assert.Equal(t, "DUPLICATE_KEY", GetCode(Wrap(coded, "create")))
	assert.True(t, Is(coded, ErrAlreadyExists))
	assert.Empty(t, GetCode(errors.New("plain")))
}

func TestCombine(t *testing.T) {
	assert.NoError(t, Combine())
	assert.NoError(t, Combine(nil, nil))

	single := errors.New("one")
	assert.Same(t, single, Combine(nil, single))

	err := Combine(ErrTimeout, nil, ErrUnavailable)
	require.Error(t, err)
	assert.True(t, Is(err, ErrTimeout))
	assert.True(t, Is(err, ErrUnavailable))
	assert.Equal(t, "timeout (and 1 more errors)", err.Error())
}

func TestMust(t *testing.T) {
	assert.Equal(t, 3, Must(3, nil))
	assert.Panics(t, func() { Must(0, ErrInternal) })
}
