package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{"pending to confirmed", StatusPending, StatusConfirmed, true},
		{"pending to cancelled", StatusPending, StatusCancelled, true},
		{"confirmed to cancelled", StatusConfirmed, StatusCancelled, true},
		{"cancelled back to confirmed", StatusCancelled, StatusConfirmed, true},
		{"confirmed to confirmed", StatusConfirmed, StatusConfirmed, false},
		{"cancelled to cancelled", StatusCancelled, StatusCancelled, false},
		{"nothing goes back to pending", StatusConfirmed, StatusPending, false},
		{"cancelled to pending", StatusCancelled, StatusPending, false},
		{"unknown source", Status("done"), StatusConfirmed, false},
		{"unknown target", StatusPending, Status("done"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestValidDate(t *testing.T) {
	assert.True(t, ValidDate("2025-09-10"))
	assert.True(t, ValidDate("2028-02-29"))

	assert.False(t, ValidDate("2025-13-01"))
	assert.False(t, ValidDate("2025-02-30"))
	assert.False(t, ValidDate("10/09/2025"))
	assert.False(t, ValidDate(""))
}

func TestValidTime(t *testing.T) {
	assert.True(t, ValidTime("00:00"))
	assert.True(t, ValidTime("14:30"))
	assert.True(t, ValidTime("23:59"))

	assert.False(t, ValidTime("24:00"))
	assert.False(t, ValidTime("9:00am"))
	assert.False(t, ValidTime(""))
}
