// Package main provides the Relay API server implementation.
package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/relaycrm/relay/pkg/eventbus"
	"github.com/relaycrm/relay/pkg/persistence"
	"github.com/relaycrm/relay/pkg/registry"
	"github.com/relaycrm/relay/pkg/services"
	"github.com/relaycrm/relay/pkg/sessions"
	"github.com/relaycrm/relay/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	sessions    *sessions.Store
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
	sessions *sessions.Store,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		registry:    registry,
		eventBus:    eventBus,
		sessions:    sessions,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	customerService := services.NewCustomer(a.persistence)
	pipelineService := services.NewPipeline(a.persistence)
	libraryService := services.NewLibrary(a.persistence)
	workflowService := services.NewWorkflow(a.persistence, a.registry, a.eventBus)
	intakeService := services.NewIntake(a.logger, customerService, workflowService, a.sessions, a.eventBus)

	stream := web.NewMessageStream(a.logger)
	if err := stream.Attach(a.eventBus); err != nil {
		a.logger.Error("Failed to attach message stream to event bus", "error", err)
	}

	handlers := web.NewAPIHandlers(
		customerService,
		pipelineService,
		libraryService,
		workflowService,
		intakeService,
		a.sessions,
		a.validate,
		a.registry,
		stream,
	)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Relay API")
	})

	web.RegisterRoutes(app, handlers)

	return app
}

func (a *API) Start(ctx context.Context, port int) error {
	app := a.App()

	// The SSE stream consumes conversation events from the bus.
	if err := a.eventBus.Subscribe(ctx); err != nil {
		return err
	}

	return app.Listen(":" + strconv.Itoa(port))
}
