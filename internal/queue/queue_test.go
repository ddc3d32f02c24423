package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mediakit/convert/pkg/models"
)

func TestClampPriority(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want uint8
	}{
		{"negative clamps to zero", -1, 0},
		{"very negative clamps to zero", -1000, 0},
		{"zero passes", 0, 0},
		{"normal passes", models.JobPriorityNormal, 5},
		{"high passes", models.JobPriorityHigh, 10},
		{"above range clamps to ten", 11, 10},
		{"wraparound value clamps to ten", 256, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clampPriority(tt.in))
		})
	}
}
