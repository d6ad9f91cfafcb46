package buildinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Not parallel: mutates package variables.
func TestRelease(t *testing.T) {
	origVersion, origCommit := Version, Commit
	t.Cleanup(func() { Version, Commit = origVersion, origCommit })

	tests := []struct {
		name    string
		version string
		commit  string
		want    string
	}{
		{"version wins", "v1.2.0", "0123456789abcdef", "v1.2.0"},
		{"short commit", "", "0123456789abcdef", "0123456"},
		{"tiny commit", "", "abc", "abc"},
		{"nothing set", "", "", "dev"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Version, Commit = tt.version, tt.commit
			assert.Equal(t, tt.want, Release())
		})
	}
}
