package web

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/JxsueMd16/mad-ia/pkg/hub"
	"github.com/JxsueMd16/mad-ia/pkg/tools"
	"github.com/JxsueMd16/mad-ia/pkg/voice"
)

// TextRequest is the body of POST /api/text.
type TextRequest struct {
	Text string `json:"text"`
}

// sessionKey returns the caller's session id, issuing a new cookie when the
// request carries none or a malformed one.
func (s *Server) sessionKey(c *fiber.Ctx) string {
	if v := c.Cookies(SessionCookie); v != "" {
		if _, err := uuid.Parse(v); err == nil {
			return v
		}
	}
	key := uuid.NewString()
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    key,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(30 * 24 * time.Hour),
	})
	return key
}

func (s *Server) handleIndex(c *fiber.Ctx) error {
	s.sessionKey(c)
	c.Type("html", "utf-8")
	return c.Send(indexHTML)
}

// handleAudio answers a multipart upload in field "audio".
func (s *Server) handleAudio(c *fiber.Ctx) error {
	fh, err := c.FormFile("audio")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, MissingAudioText)
	}

	f, err := fh.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, MissingAudioText)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, MissingAudioText)
	}

	reply, err := s.pipeline.HandleAudio(c.UserContext(), s.sessionKey(c), voice.Upload{
		Data:     data,
		Filename: fh.Filename,
	})
	if errors.Is(err, voice.ErrEmptyUpload) {
		return fiber.NewError(fiber.StatusBadRequest, MissingAudioText)
	}
	if err != nil {
		return err
	}
	return c.JSON(reply)
}

func (s *Server) handleText(c *fiber.Ctx) error {
	var req TextRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		return fiber.NewError(fiber.StatusBadRequest, MissingTextText)
	}

	reply, err := s.pipeline.HandleText(c.UserContext(), s.sessionKey(c), req.Text)
	if err != nil {
		return err
	}
	return c.JSON(reply)
}

func (s *Server) handleReset(c *fiber.Ctx) error {
	if err := s.pipeline.Reset(c.UserContext(), s.sessionKey(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(s.checks))}

	for _, name := range s.order {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
		err := s.checks[name](ctx)
		cancel()

		if err != nil {
			s.logger.Warn("health check failed", "check", name, "error", err)
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			continue
		}
		resp.Checks[name] = "ok"
	}

	if resp.Status != "ok" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}

func (s *Server) handleListTools(c *fiber.Ctx) error {
	if s.registry == nil {
		return c.JSON([]tools.Declaration{})
	}
	return c.JSON(s.registry.Declarations())
}

// StageLatency is a latency breakdown in milliseconds.
type StageLatency struct {
	ASR   int64 `json:"asr_ms"`
	LLM   int64 `json:"llm_ms"`
	TTS   int64 `json:"tts_ms"`
	Total int64 `json:"total_ms"`
}

// MetricsResponse is the body of GET /api/metrics.
type MetricsResponse struct {
	Turns    int            `json:"turns"`
	Outcomes map[string]int `json:"outcomes"`
	NoAudio  int            `json:"no_audio"`
	Average  StageLatency   `json:"average"`
	Last     StageLatency   `json:"last"`
}

func stageLatency(m voice.Metrics) StageLatency {
	return StageLatency{
		ASR:   m.ASRLatency.Milliseconds(),
		LLM:   m.LLMLatency.Milliseconds(),
		TTS:   m.TTSLatency.Milliseconds(),
		Total: m.TotalLatency.Milliseconds(),
	}
}

func (s *Server) handleMetrics(c *fiber.Ctx) error {
	sum := s.pipeline.Metrics().Summary()
	return c.JSON(MetricsResponse{
		Turns:    sum.Turns,
		Outcomes: sum.Outcomes,
		NoAudio:  sum.NoAudio,
		Average:  stageLatency(sum.Average),
		Last:     stageLatency(sum.Last),
	})
}

// handleTurnsWS streams turn events until the client disconnects.
func (s *Server) handleTurnsWS(c *websocket.Conn) {
	client := hub.NewClient(s.turns, c)
	if client == nil {
		c.Close()
		return
	}
	client.Run()
}
