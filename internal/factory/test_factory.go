package factory

import (
	"time"

	"github.com/bashkah/partyroom/internal/coordinator"
	"github.com/bashkah/partyroom/internal/dependencies/mocks"
	"github.com/bashkah/partyroom/internal/store/memory"
	"github.com/bashkah/partyroom/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked
// dependencies and short coordinator timers
func NewTestApp() *TestApp {
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	coordCfg := coordinator.Config{
		VoteTimeout: 50 * time.Millisecond,
		RevealDelay: 10 * time.Millisecond,
		AutoAdvance: true,
	}
	app := newWithDependencies(memory.New(), mockClock, mockRandom, coordCfg, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
