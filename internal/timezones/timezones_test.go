package timezones

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guildkeeper/internal/domain"
)

func TestResolve(t *testing.T) {
	idx := Default()
	tests := []struct {
		input string
		want  string
	}{
		{input: "America/New_York", want: "America/New_York"},
		{input: "america/new york", want: "America/New_York"},
		{input: "new york", want: "America/New_York"},
		{input: "  Tokyo ", want: "Asia/Tokyo"},
		{input: "port-au-prince", want: "America/Port-au-Prince"},
		{input: "North_Dakota/Center", want: ""},
		{input: "UTC", want: "UTC"},
		{input: "Europe/Amsterdam", want: "Europe/Amsterdam"},
		{input: "eastern", want: "US/Eastern"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := idx.Resolve(tt.input)
			if tt.want == "" {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_Invalid(t *testing.T) {
	for _, in := range []string{"", "atlantis", "Mars/Olympus"} {
		_, err := Default().Resolve(in)
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve, in)
	}
}

func TestAutocomplete(t *testing.T) {
	idx := Default()

	got := idx.Autocomplete("new")
	require.NotEmpty(t, got)
	names := make([]string, len(got))
	for i, z := range got {
		names[i] = z.Name()
	}
	assert.Contains(t, names, "America/New_York")

	region := idx.Autocomplete("argentina")
	require.NotEmpty(t, region)
	for _, z := range region {
		assert.Equal(t, "America/Argentina", z.Region)
	}

	assert.Len(t, idx.Autocomplete(""), MaxChoices)
	assert.LessOrEqual(t, len(idx.Autocomplete("a")), MaxChoices)
	assert.Empty(t, idx.Autocomplete("zzz"))
	assert.Equal(t, "New York", Zone{Region: "America", City: "New_York"}.Label())
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("- cities: [Foo]"))
	require.Error(t, err)
	_, err = Parse([]byte("not: [valid"))
	require.Error(t, err)
}
