package control

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFleet(t *testing.T) {
	r := NewRegistry(DefaultFleet()...)

	drones := r.List()
	require.Len(t, drones, 2)
	assert.Equal(t, "Drone #1", drones[0].Name)
	assert.Equal(t, StatusActive, drones[0].Status)
	assert.Equal(t, 85, drones[0].Battery)
	assert.Equal(t, "Zone A", drones[0].Zone)
	assert.Equal(t, StatusIdle, drones[1].Status)
}

func TestDispatch(t *testing.T) {
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	r := NewRegistry(DefaultFleet()...)
	r.now = func() time.Time { return now }

	tests := []struct {
		action Action
		want   Status
	}{
		{ActionStop, StatusIdle},
		{ActionRecalibrate, StatusCalibrating},
		{ActionStart, StatusActive},
	}
	for _, tc := range tests {
		d, err := r.Dispatch("1", tc.action, "op")
		require.NoError(t, err)
		assert.Equal(t, tc.want, d.Status)
		assert.Equal(t, tc.action, d.LastCommand)
		assert.Equal(t, now, d.UpdatedAt)
	}

	assert.Equal(t, StatusActive, r.List()[0].Status)
}

func TestDispatchErrors(t *testing.T) {
	r := NewRegistry(DefaultFleet()...)

	_, err := r.Dispatch("9", ActionStart, "op")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.Dispatch("1", Action("self-destruct"), "op")
	assert.Error(t, err)
	assert.Equal(t, StatusActive, r.List()[0].Status)
}
