package kiosk

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScreen(t *testing.T) {
	tests := []struct {
		input   string
		want    Screen
		wantErr bool
	}{
		{input: "intro", want: ScreenIntro},
		{input: "/", want: ScreenIntro},
		{input: "get-ready", want: ScreenGetReady},
		{input: "/getReady", want: ScreenGetReady},
		{input: "/finalscore", want: ScreenFinalScore},
		{input: "globe", want: ScreenGlobe},
		{input: "", wantErr: true},
		{input: "/pitlane", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseScreen(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownScreen)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNavigator_WatchSeesLatestScreen(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
	nav := NewNavigator(clock)

	updates, unwatch := nav.Watch()
	first := <-updates
	assert.Equal(t, ScreenIntro, first.Screen)

	nav.Go(ScreenHome)
	clock.Advance(time.Second)
	nav.Go(ScreenGetReady)
	nav.setCountdown(3)

	latest := <-updates
	assert.Equal(t, ScreenGetReady, latest.Screen)
	assert.Equal(t, "/getReady", latest.Path)
	assert.Equal(t, 3, latest.CountdownLights)
	assert.True(t, latest.EnteredAt.Equal(clock.Now()))

	unwatch()
	_, open := <-updates
	assert.False(t, open)
	unwatch()
}
