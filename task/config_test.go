package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, 10_000, cfg.MaxStates)
	assert.Equal(t, Store, cfg.TransitionRepresentation)
	assert.Equal(t, PickFirst, cfg.PickFlawedAbstractState)
	assert.False(t, cfg.Diversify)
}

func TestNewConfig_OptionsOverrideInOrder(t *testing.T) {
	cfg := NewConfig(
		WithMaxStates(5),
		WithMaxStates(42),
		WithDiversify(),
		WithMaxTime(time.Second),
	)
	assert.Equal(t, 42, cfg.MaxStates)
	assert.True(t, cfg.Diversify)
	assert.Equal(t, time.Second, cfg.MaxTime)
}

func TestWithMaxStates_PanicsOnInvalid(t *testing.T) {
	assert.Panics(t, func() { WithMaxStates(0) })
	assert.Panics(t, func() { WithMaxStates(-1) })
}

func TestMapError(t *testing.T) {
	assert.Equal(t, Success, MapError(nil))
	assert.Equal(t, SearchUnsupported, MapError(ErrUnsupportedFeature))
	assert.Equal(t, SearchInputError, MapError(ErrInvalidConfig))
	assert.Equal(t, SearchCriticalError, MapError(ErrOverflow))
}
