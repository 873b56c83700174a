package http

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) analyzeHandler(c *fiber.Ctx) error {
	var req AnalyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "BAD_REQUEST",
			Error:   "Invalid request body: " + err.Error(),
		})
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "BAD_REQUEST",
			Error:   "url is required",
		})
	}

	if s.llmProvider != "" {
		c.Locals("llm_provider", s.llmProvider)
		c.Locals("llm_model", s.llmModel)
	}

	ctx := c.UserContext()
	if timeout := s.config.AnalysisTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	res := s.analyzer.AnalyzeSubsidy(ctx, req.URL)
	status := fiber.StatusOK
	if res.Failed() {
		status = fiber.StatusUnprocessableEntity
	}
	return c.Status(status).JSON(res)
}

func (s *Server) healthHandler(c *fiber.Ctx) error {
	// Shallow health: process is up
	if c.Query("deep") != "true" {
		return c.JSON(HealthResponse{Status: "ok"})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	redisStatus := "disabled"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "error"
		} else {
			redisStatus = "ok"
		}
	}

	rodStatus := "disabled"
	if s.config.Rod.Enabled {
		rodStatus = "enabled"
	}

	llmStatus := "unconfigured"
	if s.llmProvider != "" {
		llmStatus = s.llmProvider
	}

	status := "ok"
	code := fiber.StatusOK
	if redisStatus == "error" {
		status = "error"
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(HealthResponse{
		Status: status,
		Redis:  redisStatus,
		Rod:    rodStatus,
		LLM:    llmStatus,
	})
}
