package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const defaultWeatherURL = "https://wttr.in"

// WeatherClient fetches a one-line weather summary from a wttr.in
// compatible service.
type WeatherClient struct {
	BaseURL  string
	Language string
	Client   *http.Client
}

// Current returns a short description such as "Soleado +24°C".
func (w WeatherClient) Current(ctx context.Context, city string) (string, error) {
	base := w.BaseURL
	if base == "" {
		base = defaultWeatherURL
	}
	lang := w.Language
	if lang == "" {
		lang = "es"
	}
	client := w.Client
	if client == nil {
		client = http.DefaultClient
	}

	u := fmt.Sprintf("%s/%s?format=%s&lang=%s",
		strings.TrimRight(base, "/"), url.PathEscape(city), url.QueryEscape("%C %t"), lang)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("weather service returned %d", resp.StatusCode)
	}

	summary := strings.TrimSpace(string(body))
	if summary == "" {
		return "", fmt.Errorf("empty weather response")
	}
	return summary, nil
}
