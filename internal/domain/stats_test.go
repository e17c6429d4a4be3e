package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRepository(t *testing.T) {
	testCases := []struct {
		name        string
		input       string
		expected    Repository
		expectError bool
	}{
		{
			name:     "happy path - owner and name",
			input:    "octocat/Hello-World",
			expected: Repository{Owner: "octocat", Name: "Hello-World"},
		},
		{
			name:     "surrounding whitespace is trimmed",
			input:    "  octocat/Hello-World\n",
			expected: Repository{Owner: "octocat", Name: "Hello-World"},
		},
		{name: "error case - empty", input: "", expectError: true},
		{name: "error case - no slash", input: "octocat", expectError: true},
		{name: "error case - empty owner", input: "/Hello-World", expectError: true},
		{name: "error case - empty name", input: "octocat/", expectError: true},
		{name: "error case - too many segments", input: "octocat/Hello-World/issues", expectError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo, err := ParseRepository(tc.input)
			if tc.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "expected owner/name")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, repo)
			assert.Equal(t, "octocat/Hello-World", repo.String())
		})
	}
}
