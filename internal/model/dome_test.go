package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomeCapacity(t *testing.T) {
	assert.Equal(t, 50, Dome{Rows: 5, SeatsInRow: 10}.Capacity())
	assert.Equal(t, 20, Dome{Rows: 1, SeatsInRow: 20}.Capacity())
	assert.Equal(t, 0, Dome{}.Capacity())
}

func TestDomeContains(t *testing.T) {
	d := Dome{Rows: 5, SeatsInRow: 10}
	tests := []struct {
		name      string
		row, seat int
		want      bool
	}{
		{"first seat", 1, 1, true},
		{"last seat", 5, 10, true},
		{"row zero", 0, 1, false},
		{"row past end", 6, 1, false},
		{"seat zero", 1, 0, false},
		{"seat past end", 1, 11, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Contains(tt.row, tt.seat))
		})
	}
}

func TestShowThemeProjections(t *testing.T) {
	s := Show{Themes: []Theme{{ID: 2, Name: "Stars"}, {ID: 7, Name: "Planets"}}}
	assert.Equal(t, []uint64{2, 7}, s.ThemeIDs())
	assert.Equal(t, []string{"Stars", "Planets"}, s.ThemeNames())
	assert.Empty(t, Show{}.ThemeIDs())
}
