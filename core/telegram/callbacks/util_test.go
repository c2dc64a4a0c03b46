package callbacks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCallbackData(t *testing.T) {
	cases := []struct {
		name, data, tag, payload string
	}{
		{"bare", "weather_in_city", "weather_in_city", ""},
		{"unique", "\fcancel", "cancel", ""},
		{"unique with payload", "\fpage|2", "page", "2"},
		{"payload with separator", "\fpick|a|b", "pick", "a|b"},
		{"spaces", " menu ", "menu", ""},
		{"empty", "", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tag, payload := ParseCallbackData(tc.data)
			assert.Equal(t, tc.tag, tag)
			assert.Equal(t, tc.payload, payload)
		})
	}
}
