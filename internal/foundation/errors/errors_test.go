package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "conf/build.json").
			Build()

		assert.Equal(t, CategoryConfig, err.Category())
		assert.Equal(t, SeverityFatal, err.Severity())
		assert.Equal(t, "invalid configuration", err.Message())

		file, ok := err.Context().GetString("file")
		require.True(t, ok)
		assert.Equal(t, "conf/build.json", file)
	})

	t.Run("Error detection", func(t *testing.T) {
		err := ConfigError("test error").Build()

		assert.True(t, IsClassified(err))
		assert.True(t, HasCategory(err, CategoryConfig))
		assert.True(t, HasSeverity(err, SeverityFatal))
		assert.True(t, err.IsFatal())
	})

	t.Run("Detection through wrapping", func(t *testing.T) {
		inner := StorageError("bucket gone").Warning().Build()
		wrapped := fmt.Errorf("publish: %w", inner)

		assert.True(t, HasCategory(wrapped, CategoryStorage))
		assert.Equal(t, SeverityWarning, GetSeverity(wrapped))
	})

	t.Run("Unclassified defaults", func(t *testing.T) {
		err := errors.New("plain")
		assert.Equal(t, CategoryInternal, GetCategory(err))
		assert.Equal(t, SeverityError, GetSeverity(err))
	})
}

func TestErrorBuilder(t *testing.T) {
	original := errors.New("connection refused")
	err := WrapError(original, CategoryMail, "send failed").
		Warning().
		WithContext("recipient", "a@example.com").
		WithContextMap(ErrorContext{"file": "example.html"}).
		Build()

	assert.Equal(t, SeverityWarning, err.Severity())
	require.ErrorIs(t, err, original)
	assert.Equal(t, original, err.Cause())
	assert.Contains(t, err.Error(), "[mail:warning] send failed: connection refused")

	rcpt, _ := err.Context().GetString("recipient")
	assert.Equal(t, "a@example.com", rcpt)
	file, _ := err.Context().GetString("file")
	assert.Equal(t, "example.html", file)
}

func TestWithContextDoesNotMutateOriginal(t *testing.T) {
	base := RenderError("missing css").Build()
	extended := base.WithContext("page", "example")

	_, ok := base.Context().Get("page")
	assert.False(t, ok)
	page, ok := extended.Context().GetString("page")
	require.True(t, ok)
	assert.Equal(t, "example", page)
}

func TestErrorIs(t *testing.T) {
	a := NewError(CategoryRender, "missing css").Build()
	b := NewError(CategoryRender, "missing css").WithContext("page", "x").Build()
	c := NewError(CategoryStyle, "missing css").Build()

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, c))
}

func TestLogAttrsSorted(t *testing.T) {
	err := NewError(CategoryStorage, "x").
		WithContext("key", "a.html").
		WithContext("bucket", "mails").
		Build()

	attrs := err.LogAttrs()
	require.Len(t, attrs, 3)
	assert.Equal(t, "category", attrs[0].Key)
	assert.Equal(t, "bucket", attrs[1].Key)
	assert.Equal(t, "key", attrs[2].Key)
}
