package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProjectValidate(t *testing.T) {
	start := Day(2024, 1, 1)
	before := Day(2023, 12, 31)

	tests := []struct {
		name    string
		project Project
		wantErr string
	}{
		{"valid", Project{ShortID: "WEB01", Name: "Website", StartDate: start}, ""},
		{"long short id", Project{ShortID: "LAUNCH2024", Name: "Launch", StartDate: start}, ""},
		{"target on start", Project{ShortID: "WEB01", Name: "W", StartDate: start, TargetDate: &start}, ""},
		{"missing short id", Project{Name: "W", StartDate: start}, "short ID is required"},
		{"lowercase", Project{ShortID: "web01", Name: "W", StartDate: start}, "uppercase"},
		{"too short", Project{ShortID: "AB1", Name: "W", StartDate: start}, "uppercase"},
		{"no digits", Project{ShortID: "PHYSICS", Name: "W", StartDate: start}, "uppercase"},
		{"blank name", Project{ShortID: "WEB01", Name: "  ", StartDate: start}, "name is required"},
		{"no start", Project{ShortID: "WEB01", Name: "W"}, "start date is required"},
		{"target before start", Project{ShortID: "WEB01", Name: "W", StartDate: start, TargetDate: &before}, "precedes start date 2024-01-01"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.project.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidProject)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestNormalizeShortID(t *testing.T) {
	assert.Equal(t, "WEB01", NormalizeShortID(" web01 "))
}

func TestDisplayID(t *testing.T) {
	assert.Equal(t, "WEB01", (&Project{ID: "550e8400-e29b-41d4-a716-446655440000", ShortID: "WEB01"}).DisplayID())
	assert.Equal(t, "550e8400", (&Project{ID: "550e8400-e29b-41d4-a716-446655440000"}).DisplayID())
	assert.Equal(t, "abc", (&Project{ID: "abc"}).DisplayID())
}
