// Package main provides the Caravel API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/caravel-hq/caravel/pkg/auth"
	"github.com/caravel-hq/caravel/pkg/eventbus"
	"github.com/caravel-hq/caravel/pkg/jobqueue"
	"github.com/caravel-hq/caravel/pkg/persistence"
	"github.com/caravel-hq/caravel/pkg/registry"
	"github.com/caravel-hq/caravel/pkg/runner"
	"github.com/caravel-hq/caravel/pkg/services"
	"github.com/caravel-hq/caravel/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	jobQueue    jobqueue.Queue
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
	jobQueue jobqueue.Queue,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		registry:    registry,
		eventBus:    eventBus,
		jobQueue:    jobQueue,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	campaignService := services.NewCampaign(a.persistence)
	patternService := services.NewPattern(a.persistence, a.registry)
	testRunner := runner.NewRunner(a.persistence, a.registry, a.logger, runner.WithPublisher(a.eventBus))

	handlers := web.NewAPIHandlers(campaignService, patternService, testRunner, a.jobQueue, a.validate, a.registry)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Caravel API")
	})

	app.Get("/health", handlers.HealthCheck)
	app.Get("/actions", handlers.GetActions)

	api := app.Group("/", auth.Middleware())

	campaigns := api.Group("/campaigns")
	campaigns.Get("/", handlers.GetCampaigns)
	campaigns.Post("/", handlers.CreateCampaign)
	campaigns.Get("/:id", handlers.GetCampaign)
	campaigns.Patch("/:id", handlers.UpdateCampaign)
	campaigns.Delete("/:id", handlers.DeleteCampaign)

	patterns := api.Group("/patterns")
	patterns.Get("/", handlers.GetPatterns)
	patterns.Post("/", handlers.CreatePattern)
	patterns.Get("/:id", handlers.GetPattern)
	patterns.Patch("/:id", handlers.UpdatePattern)
	patterns.Delete("/:id", handlers.DeletePattern)

	patterns.Post("/:id/steps", handlers.CreateStep)
	patterns.Patch("/:id/steps/:stepId", handlers.UpdateStep)
	patterns.Delete("/:id/steps/:stepId", handlers.DeleteStep)
	patterns.Put("/:id/steps/reorder", handlers.ReorderSteps)

	patterns.Post("/:id/test", handlers.RunTest)
	patterns.Get("/:id/results", handlers.GetTestResults)

	jobs := api.Group("/jobs")
	jobs.Get("/", handlers.GetJobs)
	jobs.Get("/:id", handlers.GetJob)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
