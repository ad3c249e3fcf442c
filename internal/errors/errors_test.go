package errors

import (
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder(t *testing.T) {
	base := NewStd("connection refused")
	err := New(fmt.Errorf("submitting detection: %w", base)).
		Component("reporter").
		Category(CategoryNetwork).
		Context("attempt", 1).
		Build()

	assert.Equal(t, "submitting detection: connection refused", err.Error())
	assert.Equal(t, "reporter", err.GetComponent())
	assert.Equal(t, "network", err.GetCategory())
	assert.Equal(t, 1, err.GetContext()["attempt"])
	assert.False(t, err.Timestamp.IsZero())

	assert.True(t, Is(err, base), "the wrapped chain must stay traversable")
}

func TestBuilderDefaults(t *testing.T) {
	err := Newf("something %s", "broke").Build()

	assert.Equal(t, CategoryGeneric, err.Category)
	assert.Equal(t, ComponentUnknown, err.GetComponent())
	assert.Empty(t, err.GetContext())
}

func TestNetworkContext(t *testing.T) {
	err := Newf("timed out").
		NetworkContext("http://localhost:8000/api/v2/records", 5*time.Second).
		Build()

	ctx := err.GetContext()
	assert.Equal(t, "http://localhost:8000/api/v2/records", ctx["url"])
	assert.Equal(t, 5.0, ctx["timeout_seconds"])

	// zero timeout is omitted
	err = Newf("timed out").NetworkContext("http://localhost", 0).Build()
	assert.NotContains(t, err.GetContext(), "timeout_seconds")
}

func TestIsMatchesComponentAndCategory(t *testing.T) {
	a := Newf("a").Component("camera").Category(CategoryHardware).Build()
	b := Newf("b").Component("camera").Category(CategoryHardware).Build()
	c := Newf("c").Component("datastore").Category(CategoryDatabase).Build()

	assert.True(t, Is(a, b), "same component and category compare equal")
	assert.False(t, Is(a, c))
}

func TestAs(t *testing.T) {
	err := fmt.Errorf("outer: %w", Newf("inner").Component("api").Build())

	var enhanced *EnhancedError
	require.True(t, As(err, &enhanced))
	assert.Equal(t, "api", enhanced.GetComponent())
}

func TestUnwrapChain(t *testing.T) {
	err := New(fmt.Errorf("reading from serial link: %w", io.EOF)).
		Component("hardware").
		Category(CategoryHardware).
		Build()

	assert.True(t, Is(err, io.EOF))
}

func TestValidationError(t *testing.T) {
	err := ValidationError("confidence must be between 0 and 100")
	assert.Equal(t, CategoryValidation, err.Category)
	assert.Equal(t, "confidence must be between 0 and 100", err.Error())
}
