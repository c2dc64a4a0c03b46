// Package advice turns a weather reading into short clothing hints.
package advice

import (
	"strings"

	"github.com/m3rciful/meteobot/meteo/weather"
)

type band struct {
	below float64
	text  string
}

// bands is ordered by ascending upper bound; a temperature falls into the
// first band whose bound is strictly greater.
var bands = []band{
	{-30, "❄️❄️❄️ Крайне холодно. Оставайтесь в тёплой постели. Если Вы по каким-то причинам должны выйти на улицу - соболезную."},
	{-20, "❄️❄️ Очень холодно. Надевайте перчатки и все самое теплое."},
	{-10, "❄️ Холодно. Надевайте все теплое."},
	{0, "☁️ Холодновато, стоит взять куртку и шарф."},
	{10, "🌤 Прохладно, стоит одеться чуть потеплее."},
	{15, "🌤 Приятная погода, куртку можно оставить дома."},
	{20, "☀️ Тепло. Штаны уже будут лишними."},
	{27, "☀️☀️ Очень тепло. Футболка и шорты - можно балдеть."},
	{50, "☀️☀️☀️ Адски жарко, держитесь в тени и рядом с кондиционером."},
	{2000, "🌝 Друже, что вы забыли на Солнце?."},
}

const (
	// Beyond is returned for temperatures at or above the last band.
	Beyond = "Друже, тут я могу только посочувствовать."
	// Umbrella is the rain hint.
	Umbrella = "☔️ Возьмите с собой зонт."

	rainRoot = "дожд"
)

// TemperatureHint returns the hint for a temperature in Celsius.
func TemperatureHint(c float64) string {
	for _, b := range bands {
		if c < b.below {
			return b.text
		}
	}
	return Beyond
}

// RainHint returns Umbrella when the condition mentions rain, "" otherwise.
func RainHint(status string) string {
	if strings.Contains(strings.ToLower(status), rainRoot) {
		return Umbrella
	}
	return ""
}

// Hint joins the temperature and rain hints. The separator is kept even when
// there is no rain.
func Hint(r weather.Reading) string {
	return TemperatureHint(r.TemperatureC) + "\n" + RainHint(r.Status)
}
