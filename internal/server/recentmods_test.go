package server

import (
	"testing"
	"time"

	"github.com/jacobsa/timeutil"
	"github.com/stretchr/testify/assert"
)

func TestRecentMods_TakeReturnsRecordedClient(t *testing.T) {
	clock := timeutil.NewSimulatedClock(time.Unix(0, 0))
	mods := newRecentMods(clock, time.Second)

	mods.record("a.txt", "client-1")

	clientID, ok := mods.take("a.txt")
	assert.True(t, ok)
	assert.Equal(t, "client-1", clientID)
}

func TestRecentMods_TakeIsOneShot(t *testing.T) {
	clock := timeutil.NewSimulatedClock(time.Unix(0, 0))
	mods := newRecentMods(clock, time.Second)

	mods.record("a.txt", "client-1")
	mods.take("a.txt")

	_, ok := mods.take("a.txt")
	assert.False(t, ok, "a consumed entry must not be returned twice")
}

func TestRecentMods_TakeOfUnrecordedPathFails(t *testing.T) {
	clock := timeutil.NewSimulatedClock(time.Unix(0, 0))
	mods := newRecentMods(clock, time.Second)

	_, ok := mods.take("never-written.txt")
	assert.False(t, ok)
}

func TestRecentMods_ExpiredEntryIsDropped(t *testing.T) {
	clock := timeutil.NewSimulatedClock(time.Unix(0, 0))
	mods := newRecentMods(clock, time.Second)

	mods.record("a.txt", "client-1")
	clock.AdvanceTime(2 * time.Second)

	_, ok := mods.take("a.txt")
	assert.False(t, ok, "an entry past its deadline must be treated as unattributed")
}
