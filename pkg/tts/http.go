package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// chunkSize is the copy buffer for streamed audio bodies.
const chunkSize = 1024

// jsonPoster sends JSON synthesis requests, retrying temporary API errors.
type jsonPoster struct {
	provider   string
	client     *http.Client
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger

	// header sets auth and accept headers on each attempt.
	header func(h http.Header)
	// parseError converts a non-200 response.
	parseError func(resp *http.Response) error
}

// post sends payload to url and returns the audio body, copied in chunks.
func (p *jsonPoster) post(ctx context.Context, url string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, WrapError(p.provider, fmt.Errorf("marshal payload: %w", err))
	}

	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(p.retryDelay * time.Duration(attempt)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, WrapError(p.provider, fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")
		p.header(req.Header)

		resp, err := p.client.Do(req)
		if err != nil {
			lastErr = WrapError(p.provider, err)
			if ctx.Err() != nil {
				return nil, lastErr
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = p.parseError(resp)
			resp.Body.Close()
			var apiErr *APIError
			if errors.As(lastErr, &apiErr) && apiErr.Temporary() && attempt < p.maxRetries {
				p.logger.Warn("retrying request",
					"attempt", attempt+1,
					"status", resp.StatusCode,
				)
				continue
			}
			return nil, lastErr
		}

		audio, err := readChunks(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, WrapError(p.provider, fmt.Errorf("read response: %w", err))
		}
		if len(audio) == 0 {
			return nil, WrapError(p.provider, fmt.Errorf("empty audio body"))
		}
		return audio, nil
	}

	return nil, lastErr
}

func readChunks(r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := io.CopyBuffer(&buf, r, make([]byte, chunkSize)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
