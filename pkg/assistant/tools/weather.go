package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"

	"github.com/neonpi/anton/pkg/core/types"
)

const openWeatherBaseURL = "https://api.openweathermap.org"

// WeatherExecutor answers get_weather via the OpenWeatherMap
// current-weather endpoint.
type WeatherExecutor struct {
	apiKey          string
	baseURL         string
	defaultLocation string
	httpClient      *http.Client
}

// WeatherOption configures a WeatherExecutor.
type WeatherOption func(*WeatherExecutor)

// WithWeatherBaseURL overrides the API endpoint, for tests.
func WithWeatherBaseURL(base string) WeatherOption {
	return func(e *WeatherExecutor) { e.baseURL = base }
}

// WithWeatherHTTPClient overrides the HTTP client.
func WithWeatherHTTPClient(client *http.Client) WeatherOption {
	return func(e *WeatherExecutor) { e.httpClient = client }
}

// NewWeatherExecutor builds the weather tool. defaultLocation is used
// when the model omits one.
func NewWeatherExecutor(apiKey, defaultLocation string, opts ...WeatherOption) *WeatherExecutor {
	e := &WeatherExecutor{
		apiKey:          apiKey,
		baseURL:         openWeatherBaseURL,
		defaultLocation: defaultLocation,
		httpClient:      &http.Client{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *WeatherExecutor) Name() string { return "get_weather" }

func (e *WeatherExecutor) Definition() types.Tool {
	return types.NewTool("get_weather", "Get the current weather for a location",
		&types.JSONSchema{
			Type: "object",
			Properties: map[string]types.JSONSchema{
				"location": {Type: "string", Description: "City name or location"},
			},
			Required: []string{"location"},
		})
}

type openWeatherResponse struct {
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

func (e *WeatherExecutor) Execute(ctx context.Context, args map[string]any) string {
	location := stringArg(args, "location", e.defaultLocation)

	if e.apiKey == "" {
		return "Weather service not configured. Add OPENWEATHER_API_KEY to .env"
	}

	q := url.Values{}
	q.Set("q", location)
	q.Set("appid", e.apiKey)
	q.Set("units", "imperial")
	reqURL := e.baseURL + "/data/2.5/weather?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Sprintf("Weather error: %v", err)
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Sprintf("Weather error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Sprintf("Couldn't get weather for %s", location)
	}

	var data openWeatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return fmt.Sprintf("Weather error: %v", err)
	}

	desc := "unknown conditions"
	if len(data.Weather) > 0 {
		desc = data.Weather[0].Description
	}
	return fmt.Sprintf("Weather in %s: %d°F (feels like %d°F), %s, %d%% humidity",
		location,
		int(math.Round(data.Main.Temp)),
		int(math.Round(data.Main.FeelsLike)),
		desc,
		data.Main.Humidity)
}
