// Package weather fetches current conditions from an OpenWeatherMap-compatible
// provider and normalizes them into a Reading.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/meteobot/core/logger"
)

const (
	// DefaultBaseURL is the public OpenWeatherMap endpoint.
	DefaultBaseURL = "https://api.openweathermap.org"
	// DefaultLang makes the provider describe conditions in Russian.
	DefaultLang    = "ru"
	defaultTimeout = 10 * time.Second

	currentWeatherPath = "/data/2.5/weather"
	zeroKelvin         = 273.15
	maxBodyBytes       = 1 << 20
)

// Reading is the normalized result of a lookup.
type Reading struct {
	// Name is the place name resolved by the provider.
	Name string
	// TemperatureC is rounded to one decimal place.
	TemperatureC float64
	Status       string
}

// Options configures a Client.
type Options struct {
	BaseURL string
	APIKey  string
	Lang    string
	Timeout time.Duration
	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client issues single-attempt lookups against the provider.
type Client struct {
	baseURL string
	apiKey  string
	lang    string
	http    *http.Client
}

// New constructs a Client, filling unset options with defaults.
func New(opts Options) *Client {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	lang := strings.TrimSpace(opts.Lang)
	if lang == "" {
		lang = DefaultLang
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: base,
		apiKey:  opts.APIKey,
		lang:    lang,
		http:    hc,
	}
}

// ByCity looks up current weather for a city name.
func (c *Client) ByCity(ctx context.Context, city string) (Reading, error) {
	query := "q=" + strings.ReplaceAll(url.QueryEscape(city), "+", "%20")
	return c.fetch(ctx, "by_city", query)
}

// ByCoordinates looks up current weather for a geolocation.
func (c *Client) ByCoordinates(ctx context.Context, lat, lon float64) (Reading, error) {
	v := url.Values{}
	v.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	v.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	return c.fetch(ctx, "by_coordinates", v.Encode())
}

func (c *Client) fetch(ctx context.Context, op, query string) (Reading, error) {
	start := time.Now()
	reading, err := c.do(ctx, op, query)
	attrs := []slog.Attr{
		slog.String("mode", op),
		slog.Duration("duration", time.Since(start)),
	}
	if err != nil {
		var werr *Error
		if errors.As(err, &werr) && werr.StatusCode != 0 {
			attrs = append(attrs, slog.Int("http_code", werr.StatusCode))
		}
		attrs = append(attrs,
			slog.String("status", "fail"),
			slog.String("error_kind", KindOf(err).String()),
			slog.Any("err", err),
		)
		logger.LogEvent(ctx, logger.SVCWeather, slog.LevelWarn, "weather.lookup", attrs...)
		return Reading{}, err
	}
	attrs = append(attrs,
		slog.String("status", "ok"),
		slog.String("place", reading.Name),
		slog.Float64("temp_c", reading.TemperatureC),
	)
	logger.LogEvent(ctx, logger.SVCWeather, slog.LevelDebug, "weather.lookup", attrs...)
	return reading, nil
}

func (c *Client) do(ctx context.Context, op, query string) (Reading, error) {
	params := url.Values{}
	params.Set("appid", c.apiKey)
	params.Set("lang", c.lang)
	endpoint := c.baseURL + currentWeatherPath + "?" + query + "&" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Reading{}, &Error{Kind: KindUnknown, Op: op, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Reading{}, &Error{Kind: KindConnection, Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return Reading{}, &Error{Kind: KindUnknown, Op: op, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Reading{}, &Error{Kind: KindConnection, Op: op, Err: fmt.Errorf("read body: %w", err)}
	}
	reading, err := parseReading(body)
	if err != nil {
		return Reading{}, &Error{Kind: KindParse, Op: op, Err: err}
	}
	return reading, nil
}

type currentWeather struct {
	Name *string `json:"name"`
	Main *struct {
		Temp *float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		Description *string `json:"description"`
	} `json:"weather"`
}

func parseReading(body []byte) (Reading, error) {
	var payload currentWeather
	if err := json.Unmarshal(body, &payload); err != nil {
		return Reading{}, fmt.Errorf("decode payload: %w", err)
	}
	switch {
	case payload.Name == nil:
		return Reading{}, errors.New("missing field name")
	case payload.Main == nil || payload.Main.Temp == nil:
		return Reading{}, errors.New("missing field main.temp")
	case len(payload.Weather) == 0 || payload.Weather[0].Description == nil:
		return Reading{}, errors.New("missing field weather[0].description")
	}
	return Reading{
		Name:         *payload.Name,
		TemperatureC: KelvinToCelsius(*payload.Main.Temp),
		Status:       *payload.Weather[0].Description,
	}, nil
}

// KelvinToCelsius converts and rounds to one decimal place.
func KelvinToCelsius(k float64) float64 {
	return math.Round((k-zeroKelvin)*10) / 10
}
