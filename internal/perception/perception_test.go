package perception

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sukyun02/2026-autonomous-driving/internal/control"
)

type failingSource struct{}

func (failingSource) Lane(context.Context) (control.LaneDirection, error) {
	return control.LaneForward, errors.New("camera busy")
}

func (failingSource) TrafficLight(context.Context) (control.TrafficLight, error) {
	return control.LightGreen, errors.New("camera busy")
}

func TestReadLaneAndLight_FailuresAreUnknown(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, control.LaneNone, ReadLane(ctx, failingSource{}))
	assert.Equal(t, control.LightNone, ReadLight(ctx, failingSource{}))
	assert.Equal(t, control.LaneNone, ReadLane(ctx, nil))
	assert.Equal(t, control.LightNone, ReadLight(ctx, nil))
}

func TestStatic(t *testing.T) {
	ctx := context.Background()
	s := Static{Direction: control.LaneLeft, Light: control.LightRed}

	assert.Equal(t, control.LaneLeft, ReadLane(ctx, s))
	assert.Equal(t, control.LightRed, ReadLight(ctx, s))
}

func TestScript_Cycles(t *testing.T) {
	ctx := context.Background()
	s := NewScript(
		Reading{Lane: control.LaneForward},
		Reading{Lane: control.LaneLeft, Light: control.LightRed},
	)

	var lanes []control.LaneDirection
	var lights []control.TrafficLight
	for i := 0; i < 4; i++ {
		lanes = append(lanes, ReadLane(ctx, s))
		lights = append(lights, ReadLight(ctx, s))
	}

	assert.Equal(t, []control.LaneDirection{control.LaneForward, control.LaneLeft, control.LaneForward, control.LaneLeft}, lanes)
	assert.Equal(t, []control.TrafficLight{control.LightNone, control.LightRed, control.LightNone, control.LightRed}, lights)
}

func TestScript_Empty(t *testing.T) {
	s := NewScript()
	assert.Equal(t, control.LaneNone, ReadLane(context.Background(), s))
	assert.Equal(t, control.LightNone, ReadLight(context.Background(), s))
}

func TestParseLaneAndLight(t *testing.T) {
	lane, err := ParseLane(" Left ")
	require.NoError(t, err)
	assert.Equal(t, control.LaneLeft, lane)

	lane, err = ParseLane("")
	require.NoError(t, err)
	assert.Equal(t, control.LaneNone, lane)

	_, err = ParseLane("backwards")
	assert.Error(t, err)

	light, err := ParseLight("YELLOW")
	require.NoError(t, err)
	assert.Equal(t, control.LightYellow, light)

	_, err = ParseLight("purple")
	assert.Error(t, err)
}

func TestParseScript(t *testing.T) {
	s, err := ParseScript("forward, forward/red ,right/green")
	require.NoError(t, err)
	assert.Equal(t, []Reading{
		{Lane: control.LaneForward},
		{Lane: control.LaneForward, Light: control.LightRed},
		{Lane: control.LaneRight, Light: control.LightGreen},
	}, s.readings)

	_, err = ParseScript("forward/pink")
	assert.Error(t, err)
}
