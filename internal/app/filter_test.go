package app

import (
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/require"

	"github.com/vleray/parley/internal/domain"
)

// The dictionary uses distinctive words to avoid partial collisions.
func TestContentFilterCensor(t *testing.T) {
	filter, err := NewContentFilter([]string{"badger", "snake"}, '*')
	require.NoError(t, err)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain word",
			input:    "the badger is here",
			expected: "the ****** is here",
		},
		{
			name:     "uppercase",
			input:    "BADGER alert",
			expected: "****** alert",
		},
		{
			name:     "leet and punctuation noise",
			input:    "a b.4.d.g.e.r appeared",
			expected: "a *********** appeared",
		},
		{
			name:     "multiple words",
			input:    "snake meets badger",
			expected: "***** meets ******",
		},
		{
			name:     "nothing to censor",
			input:    "perfectly fine text",
			expected: "perfectly fine text",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, filter.Censor(tt.input))
		})
	}
}

func TestContentFilterCensorIdempotent(t *testing.T) {
	req := require.New(t)
	filter, err := NewContentFilter([]string{"badger"}, '*')
	req.NoError(err)

	for _, input := range []string{"badger", "a badger walks", "clean text", "b@dger"} {
		once := filter.Censor(input)
		req.Equal(once, filter.Censor(once))
	}
}

func TestContentFilterEmptyWordListPassesThrough(t *testing.T) {
	filter, err := NewContentFilter(nil, '*')
	require.NoError(t, err)
	require.Equal(t, "anything at all", filter.Censor("anything at all"))
}

func TestContentFilterNickname(t *testing.T) {
	req := require.New(t)
	filter, err := NewContentFilter([]string{"badger"}, '*')
	req.NoError(err)

	t.Run("empty input gets a numeric default", func(t *testing.T) {
		got := filter.Nickname("")
		req.NotEmpty(got)
		for _, r := range got {
			req.True(unicode.IsDigit(r), "default nickname should be a timestamp token, got %q", got)
		}
	})

	t.Run("overlong input capped", func(t *testing.T) {
		got := filter.Nickname(strings.Repeat("x", 40))
		req.Len([]rune(got), domain.MaxNicknameLen)
	})

	t.Run("censored before capping", func(t *testing.T) {
		req.Equal("****** fan", filter.Nickname("badger fan"))
	})
}

func TestContentFilterBody(t *testing.T) {
	req := require.New(t)
	filter, err := NewContentFilter([]string{"badger"}, '*')
	req.NoError(err)

	req.Equal("no ****** here", filter.Body("no badger here"))

	got := filter.Body(strings.Repeat("y", domain.MaxMessageLen+50))
	req.Len([]rune(got), domain.MaxMessageLen)
}
