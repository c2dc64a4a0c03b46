package messages

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/meteobot/meteo/advice"
	"github.com/m3rciful/meteobot/meteo/weather"
)

func TestReportContainsValuesAndAdvice(t *testing.T) {
	r := weather.Reading{Name: "Moscow", TemperatureC: 5.3, Status: "облачно"}
	text := Report("Москва", r)

	assert.Contains(t, text, "Москва")
	assert.Contains(t, text, "облачно")
	assert.Contains(t, text, "5.3")
	assert.NotContains(t, text, "Moscow")

	parts := strings.SplitN(text, "\n\n", 2)
	require.Len(t, parts, 2)
	assert.Equal(t, "Погода в городе Москва:\nоблачно\nТемпература: 5.3°C.", parts[0])

	adviceLines := strings.Split(parts[1], "\n")
	require.Len(t, adviceLines, 2)
	assert.NotEmpty(t, adviceLines[0])
	assert.Equal(t, advice.TemperatureHint(5.3), adviceLines[0])
	assert.Empty(t, adviceLines[1])
}

func TestFormatTemperature(t *testing.T) {
	assert.Equal(t, "5.3", FormatTemperature(5.3))
	assert.Equal(t, "12.0", FormatTemperature(12))
	assert.Equal(t, "-7.5", FormatTemperature(-7.5))
	assert.Equal(t, "0.0", FormatTemperature(math.Copysign(0, -1)))
}

func TestRenderStaticTemplate(t *testing.T) {
	assert.Equal(t, templates[KeyLookupFailed], Render(KeyLookupFailed))
	assert.Equal(t, Render(KeyLookupFailed), LookupFailed())
}

func TestRenderUnknownKeyPanics(t *testing.T) {
	assert.Panics(t, func() { Render(Key("nope")) })
}

func TestCancelledStartsWithReturnNotice(t *testing.T) {
	assert.True(t, strings.HasPrefix(Cancelled, "Вы вернулись в меню!\n\n"))
	assert.True(t, strings.HasSuffix(Cancelled, Menu))
}
