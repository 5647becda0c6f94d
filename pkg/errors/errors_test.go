package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCloneAndWrapMatchTemplate(t *testing.T) {
	clone := Clone(ErrNoStudents, "No students found for the given filters.")
	require.True(t, errors.Is(clone, ErrNoStudents))
	require.Equal(t, http.StatusNotFound, clone.Status)
	require.Equal(t, "no students provided", ErrNoStudents.Message)

	cause := fmt.Errorf("unexpected EOF")
	wrapped := Wrap(cause, ErrMalformedPayload.Code, ErrMalformedPayload.Status, ErrMalformedPayload.Message)
	require.True(t, errors.Is(wrapped, ErrMalformedPayload))
	require.True(t, errors.Is(wrapped, cause))
	require.False(t, errors.Is(wrapped, ErrRenderFailed))
	require.Equal(t, "malformed report payload: unexpected EOF", wrapped.Error())
}

func TestFromError(t *testing.T) {
	require.Nil(t, FromError(nil))
	require.Same(t, ErrRenderFailed, FromError(fmt.Errorf("batch: %w", ErrRenderFailed)))

	internal := FromError(errors.New("boom"))
	require.Equal(t, ErrInternal.Code, internal.Code)
	require.Equal(t, http.StatusInternalServerError, internal.Status)
}
