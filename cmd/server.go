package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Abraxas-365/supportdesk/category"
	appcontext "github.com/Abraxas-365/supportdesk/context"
	"github.com/Abraxas-365/supportdesk/orchestator"
	"github.com/Abraxas-365/supportdesk/pkg/config"
	"github.com/Abraxas-365/supportdesk/pkg/errx"
	"github.com/Abraxas-365/supportdesk/pkg/logx"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

const anonymousHeader = "X-Anonymous-ID"

// newServer creates the Fiber app with middleware and routes
func newServer(a *application) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Support Desk Router",
		DisableStartupMessage: true,
		ErrorHandler:          globalErrorHandler(a.cfg),
		BodyLimit:             1 * 1024 * 1024,
		IdleTimeout:           120 * time.Second,
	})

	setupMiddleware(app, a.cfg)
	registerRoutes(app, a)
	return app
}

// ============================================================================
// Routes
// ============================================================================

type routeRequest struct {
	Message        string `json:"message"`
	Previous       string `json:"previous_category,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
}

type createConversationRequest struct {
	UserID string `json:"user_id"`
	Title  string `json:"title"`
}

func registerRoutes(app *fiber.App, a *application) {
	orch := a.orch

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		health := fiber.Map{
			"status": "healthy",
			"stats":  orch.Stats(),
		}

		if err := orch.Health(c.Context()); err != nil {
			health["status"] = "degraded"
			health["error"] = err.Error()
		}

		return c.JSON(health)
	})

	api := app.Group("/api/v1")

	// Keyword sets of the domain categories
	api.Get("/categories", func(c *fiber.Ctx) error {
		sets := a.manifestReg.KeywordSetsOrDefault()
		categories := make([]fiber.Map, 0, len(category.Domains()))
		for _, cat := range category.Domains() {
			entry := fiber.Map{
				"name":     cat.String(),
				"keywords": sets[cat],
			}
			if ck := a.manifestReg.GetByCategory(cat); ck != nil && ck.Description != "" {
				entry["description"] = ck.Description
			}
			categories = append(categories, entry)
		}
		return c.JSON(fiber.Map{
			"categories": categories,
			"strategy":   a.cfg.Router.Strategy,
		})
	})

	// Classify without answering
	api.Post("/route", func(c *fiber.Ctx) error {
		var req routeRequest
		if err := c.BodyParser(&req); err != nil {
			return orchestator.NewInvalidRequestError("Invalid request body")
		}
		previous, err := category.Parse(req.Previous)
		if err != nil {
			return orchestator.NewInvalidRequestError(err.Error())
		}

		classify := orchestator.ClassifyRequest{
			Message:        req.Message,
			Previous:       previous,
			ConversationID: req.ConversationID,
		}
		if id := c.Get(anonymousHeader); id != "" {
			classify.User = &appcontext.User{ID: id}
		}

		result, err := orch.ClassifyMessage(c.Context(), classify)
		if err != nil {
			return err
		}
		return c.JSON(result)
	})

	// ========================================================================
	// Chat Endpoints
	// ========================================================================

	chat := api.Group("/chat", newRateLimiter(a.cfg))

	chat.Post("/", func(c *fiber.Ctx) error {
		var req orchestator.ChatRequest
		if err := c.BodyParser(&req); err != nil {
			return orchestator.NewInvalidRequestError("Invalid request body")
		}
		applyAnonymousUser(c, &req)

		resp, err := orch.HandleChat(c.Context(), req)
		if err != nil {
			return err
		}

		c.Set(anonymousHeader, resp.UserID)
		return c.JSON(resp)
	})

	// ========================================================================
	// Conversation Endpoints
	// ========================================================================

	conversations := api.Group("/conversations")

	conversations.Post("/", func(c *fiber.Ctx) error {
		var req createConversationRequest
		if err := c.BodyParser(&req); err != nil {
			return orchestator.NewInvalidRequestError("Invalid request body")
		}
		userID := req.UserID
		if userID == "" {
			userID = c.Get(anonymousHeader)
		}
		if userID == "" {
			return orchestator.NewInvalidRequestError("user_id is required")
		}

		conv, err := orch.CreateConversation(c.Context(), userID, req.Title)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(conv)
	})

	conversations.Get("/", func(c *fiber.Ctx) error {
		userID := c.Query("user_id")
		if userID == "" {
			userID = c.Query("anonymous_id")
		}
		if userID == "" {
			userID = c.Get(anonymousHeader)
		}

		limit := c.QueryInt("limit", 20)
		offset := c.QueryInt("offset", 0)

		list, err := orch.ListConversations(c.Context(), userID, limit, offset)
		if err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"conversations": list,
			"count":         len(list),
			"limit":         limit,
			"offset":        offset,
		})
	})

	conversations.Get("/:id", func(c *fiber.Ctx) error {
		if c.QueryBool("messages") {
			conv, err := orch.GetConversationWithMessages(c.Context(), c.Params("id"))
			if err != nil {
				return err
			}
			return c.JSON(conv)
		}

		conv, err := orch.GetConversation(c.Context(), c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(conv)
	})

	conversations.Get("/:id/messages", func(c *fiber.Ctx) error {
		messages, err := orch.GetMessages(c.Context(), c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"conversation_id": c.Params("id"),
			"messages":        messages,
			"count":           len(messages),
		})
	})

	conversations.Delete("/:id", func(c *fiber.Ctx) error {
		if err := orch.DeleteConversation(c.Context(), c.Params("id")); err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"message":         "Conversation deleted",
			"conversation_id": c.Params("id"),
		})
	})

	conversations.Post("/:id/export", func(c *fiber.Ctx) error {
		location, err := orch.ExportConversation(c.Context(), c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"conversation_id": c.Params("id"),
			"location":        location,
		})
	})

	// ========================================================================
	// Anonymous Users
	// ========================================================================

	api.Get("/anonymous-id", func(c *fiber.Ctx) error {
		id := orchestator.NewAnonymousID()
		logx.WithField("anonymous_id", id).Debug("Generated new anonymous ID")
		return c.JSON(fiber.Map{"anonymous_id": id})
	})
}

// applyAnonymousUser takes the user id from the X-Anonymous-ID header when
// the body carries none
func applyAnonymousUser(c *fiber.Ctx, req *orchestator.ChatRequest) {
	if req.User != nil && req.User.ID != "" {
		return
	}
	id := c.Get(anonymousHeader)
	if id == "" {
		return
	}
	if req.User == nil {
		req.User = &appcontext.User{}
	}
	req.User.ID = id
}

// ============================================================================
// Setup & Configuration
// ============================================================================

func setupMiddleware(app *fiber.App, cfg *config.Config) {
	// Recover from panics
	app.Use(recover.New(recover.Config{
		EnableStackTrace: cfg.IsDevelopment(),
	}))

	// Request ID
	app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
	}))

	// CORS
	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, X-Request-ID, X-Anonymous-ID",
		AllowMethods:  "GET, POST, DELETE, OPTIONS",
		ExposeHeaders: "X-Request-ID, X-Anonymous-ID",
	}))

	// Request logging
	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
		Output:     os.Stderr,
	}))
}

// newRateLimiter limits chat requests per client; a non-positive limit
// disables it
func newRateLimiter(cfg *config.Config) fiber.Handler {
	if cfg.Server.RateLimit <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	window := cfg.Server.RateLimitWindow
	if window <= 0 {
		window = time.Minute
	}

	return limiter.New(limiter.Config{
		Max:        cfg.Server.RateLimit,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			if id := c.Get(anonymousHeader); id != "" {
				return id
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":  "Too many requests",
				"status": fiber.StatusTooManyRequests,
			})
		},
	})
}

func globalErrorHandler(cfg *config.Config) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		fields := logx.Fields{
			"path":       c.Path(),
			"method":     c.Method(),
			"request_id": c.GetRespHeader("X-Request-ID"),
		}

		if e, ok := errx.As(err); ok {
			entry := logx.WithFields(fields).WithError(err)
			if e.HTTPStatus >= fiber.StatusInternalServerError {
				entry.Error("Request failed")
			} else {
				entry.Debug("Request rejected")
			}

			body := fiber.Map{
				"error":  e.Message,
				"code":   e.Code,
				"status": e.HTTPStatus,
			}
			if len(e.Details) > 0 && (cfg.IsDevelopment() || e.HTTPStatus < fiber.StatusInternalServerError) {
				body["details"] = e.Details
			}
			return c.Status(e.HTTPStatus).JSON(body)
		}

		if e, ok := err.(*fiber.Error); ok {
			return c.Status(e.Code).JSON(fiber.Map{
				"error":  e.Message,
				"status": e.Code,
			})
		}

		logx.WithFields(fields).Errorf("Request error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":  "Internal Server Error",
			"status": fiber.StatusInternalServerError,
		})
	}
}

// startServer listens until SIGINT or SIGTERM, then drains connections
func startServer(app *fiber.App, cfg *config.Config) error {
	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	errCh := make(chan error, 1)
	go func() {
		logx.Infof("🚀 Server listening on %s", addr)
		logx.Infof("📡 Health check: http://localhost%s/health", addr)
		errCh <- app.Listen(addr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	logx.Info("🛑 Shutting down server...")

	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if err := app.ShutdownWithTimeout(timeout); err != nil {
		logx.Errorf("Server forced to shutdown: %v", err)
		return err
	}

	logx.Info("✅ Server exited gracefully")
	return nil
}
