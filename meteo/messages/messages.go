// Package messages holds the bot's fixed Russian texts and renders weather
// reports.
package messages

import (
	"fmt"
	"strconv"

	"github.com/m3rciful/meteobot/meteo/advice"
	"github.com/m3rciful/meteobot/meteo/weather"
)

// Key selects a template.
type Key string

const (
	// KeyLookupFailed is the generic failure reply; it takes no arguments.
	KeyLookupFailed Key = "weather_lookup_failed"
	// KeyWeatherReport takes place name, status and temperature, in that order.
	KeyWeatherReport Key = "weather_report"
)

var templates = map[Key]string{
	KeyLookupFailed:  "К сожалению такого города не найдено! Выйдите в меню и попробуйте снова.",
	KeyWeatherReport: "Погода в городе %s:\n%s\nТемпература: %s°C.",
}

// Render formats the template registered under key. An unregistered key is
// a programming error and panics.
func Render(key Key, args ...any) string {
	tmpl, ok := templates[key]
	if !ok {
		panic(fmt.Sprintf("messages: unknown template %q", key))
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}

// FormatTemperature prints a temperature with exactly one decimal.
func FormatTemperature(c float64) string {
	if c == 0 {
		// drop the sign of negative zero
		c = 0
	}
	return strconv.FormatFloat(c, 'f', 1, 64)
}

// Report renders a successful lookup followed by the advice block. name is
// passed separately because city lookups echo the user's input.
func Report(name string, r weather.Reading) string {
	return Render(KeyWeatherReport, name, r.Status, FormatTemperature(r.TemperatureC)) +
		"\n\n" + advice.Hint(r)
}

// LookupFailed is the reply shown for every failed lookup.
func LookupFailed() string {
	return Render(KeyLookupFailed)
}
