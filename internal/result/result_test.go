package result

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOk_IsValid(t *testing.T) {
	r := Ok(42, NewWarning(-10, "heads up"))

	assert.True(t, r.Valid())
	assert.False(t, r.Invalid())
	assert.Equal(t, 42, r.Value)
	assert.Len(t, r.Warnings, 1)
	assert.NoError(t, r.Err())
}

func TestFail_IsInvalid(t *testing.T) {
	r := Fail[int](NewError(KindShapeMismatch, -200, "tuple count %d != %d", 10, 12))

	assert.True(t, r.Invalid())
	require.Error(t, r.Err())
	assert.Contains(t, r.Err().Error(), "tuple count 10 != 12")
	assert.True(t, errors.Is(r.Err(), ErrShapeMismatch))
	assert.False(t, errors.Is(r.Err(), ErrAlreadyExists))
}

func TestIsKind_WrappedError(t *testing.T) {
	base := NewError(KindPathResolution, -100, "missing %q", "A/B")
	wrapped := fmt.Errorf("resolve input: %w", base)

	assert.True(t, IsKind(wrapped, KindPathResolution))
	assert.False(t, IsKind(wrapped, KindInvalidParent))
	assert.False(t, IsKind(errors.New("plain"), KindPathResolution))
	assert.True(t, errors.Is(wrapped, ErrPathResolution))
}

func TestAsError(t *testing.T) {
	base := NewError(KindAlreadyExists, -301, "occupied")
	assert.Same(t, base, AsError(base, -1))

	wrapped := AsError(fmt.Errorf("create: %w", base), -1)
	assert.Equal(t, KindAlreadyExists, wrapped.Kind)
	assert.Equal(t, -301, wrapped.Code)
	assert.Contains(t, wrapped.Message, "create:")

	plain := AsError(errors.New("boom"), -999)
	assert.Equal(t, KindExecution, plain.Kind)
	assert.Equal(t, -999, plain.Code)

	assert.Nil(t, AsError(nil, -1))
}

func TestFromError(t *testing.T) {
	assert.True(t, FromError[Void](nil, -1).Valid())

	r := FromError[Void](errors.New("boom"), -7)
	require.True(t, r.Invalid())
	assert.Equal(t, -7, r.Errors[0].Code)
}

func TestCancelled(t *testing.T) {
	r := OkVoid()
	assert.False(t, r.Cancelled())

	r.AddWarning(CancelledWarning("stopped after %d tuples", 5))
	assert.True(t, r.Cancelled())
	assert.True(t, r.Valid(), "cancellation never invalidates a result")
}

func TestMergeAndConvert(t *testing.T) {
	a := OkVoid(NewWarning(-1, "a"))
	b := Fail[Void](NewError(KindUnsupported, -2, "b"))
	c := OkVoid(NewWarning(-3, "c"))

	merged := Merge(a, b, c)
	assert.True(t, merged.Invalid())
	assert.Len(t, merged.Errors, 1)
	require.Len(t, merged.Warnings, 2)
	assert.Equal(t, "a", merged.Warnings[0].Message)
	assert.Equal(t, "c", merged.Warnings[1].Message)

	converted := Convert(merged, "payload")
	assert.Equal(t, "payload", converted.Value)
	assert.Len(t, converted.Errors, 1)
	assert.Len(t, converted.Warnings, 2)
}

func TestErrorIs_MatchesSentinelByCode(t *testing.T) {
	sentinel := NewError(KindInvalidArgument, -402, "argument out of range")
	converted := AsError(fmt.Errorf("%w: \"x\" = 0", sentinel), -1)

	assert.NotSame(t, sentinel, converted)
	assert.True(t, errors.Is(converted, sentinel))
	assert.True(t, errors.Is(Fail[int](converted).Err(), sentinel))
	assert.False(t, errors.Is(converted, NewError(KindInvalidArgument, -401, "wrong type")))
	assert.True(t, errors.Is(converted, ErrInvalidArgument))
}
