package webui

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/agothe/agothe/core/sse"
	"github.com/dave-gray101/v2keyauth"
	fiber "github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/keyauth"
)

type IntentUpdateRequest struct {
	Intent []float64 `json:"intent"`
}

type LearningRequest struct {
	Reward *float64 `json:"reward"`
}

type EntangleRequest struct {
	Key      string   `json:"key"`
	Strength *float64 `json:"strength"`
}

type CollapseRequest struct {
	IntentPhase float64 `json:"intentPhase"`
}

type EvolutionRequest struct {
	Generations  int     `json:"generations"`
	MutationRate float64 `json:"mutation_rate"`
}

type SimilarRequest struct {
	Intent []float64 `json:"intent"`
	Limit  int       `json:"limit"`
}

func (a *App) registerRoutes(webapp *fiber.App) {
	env := a.config.Environment

	if len(a.config.ApiKeys) > 0 {
		kaConfig, err := getKeyAuthConfig(a.config.ApiKeys)
		if err != nil {
			panic(err)
		}
		webapp.Use(v2keyauth.New(*kaConfig))
	}

	webapp.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "Agothe quantum API is alive"})
	})

	webapp.Get("/sse", func(c *fiber.Ctx) error {
		a.manager.Handle(c, sse.NewClient())
		return nil
	})

	webapp.Get("/api/status", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"overview": env.Overview()})
	})

	webapp.Get("/api/agents", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"agents": env.ListAgents()})
	})

	webapp.Get("/api/agents/:id", func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return badRequest(c, err)
		}
		details, err := env.AgentDetails(id)
		if err != nil {
			return errorJSONMessage(c, http.StatusNotFound, err.Error())
		}
		return c.JSON(details)
	})

	webapp.Post("/api/agents/:id/intent", func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return badRequest(c, err)
		}
		payload := IntentUpdateRequest{}
		if err := c.BodyParser(&payload); err != nil {
			return badRequest(c, err)
		}
		return c.JSON(env.UpdateIntent(id, payload.Intent))
	})

	webapp.Post("/api/agents/:id/learn", func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return badRequest(c, err)
		}
		payload := LearningRequest{}
		if err := c.BodyParser(&payload); err != nil {
			return badRequest(c, err)
		}
		return c.JSON(env.TriggerLearning(id, payload.Reward))
	})

	webapp.Post("/api/agents/:a/entangle/:b", func(c *fiber.Ctx) error {
		first, err := c.ParamsInt("a")
		if err != nil {
			return badRequest(c, err)
		}
		second, err := c.ParamsInt("b")
		if err != nil {
			return badRequest(c, err)
		}
		payload := EntangleRequest{}
		if err := c.BodyParser(&payload); err != nil {
			return badRequest(c, err)
		}
		strength := 0.5
		if payload.Strength != nil {
			strength = *payload.Strength
		}
		return c.JSON(env.EntangleAgents(first, second, payload.Key, strength))
	})

	webapp.Post("/api/collapse", func(c *fiber.Ctx) error {
		payload := CollapseRequest{}
		if err := c.BodyParser(&payload); err != nil {
			return badRequest(c, err)
		}
		return c.JSON(env.SimulateCollapse(payload.IntentPhase))
	})

	webapp.Post("/api/evolution", func(c *fiber.Ctx) error {
		payload := EvolutionRequest{Generations: 1, MutationRate: 0.1}
		if err := c.BodyParser(&payload); err != nil {
			return badRequest(c, err)
		}
		result, err := env.RunEvolution(payload.Generations, payload.MutationRate)
		if err != nil {
			return errorJSONMessage(c, http.StatusBadRequest, err.Error())
		}
		return c.JSON(result)
	})

	webapp.Post("/api/agents/similar", func(c *fiber.Ctx) error {
		payload := SimilarRequest{Limit: 3}
		if err := c.BodyParser(&payload); err != nil {
			return badRequest(c, err)
		}
		matches, err := env.SimilarAgents(c.Context(), payload.Intent, payload.Limit)
		if err != nil {
			return errorJSONMessage(c, http.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"matches": matches})
	})

	webapp.Put("/api/agents/:id/activate", func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return badRequest(c, err)
		}
		return c.JSON(env.Activate(id))
	})

	webapp.Put("/api/agents/:id/deactivate", func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return badRequest(c, err)
		}
		return c.JSON(env.Deactivate(id))
	})
}

func getKeyAuthConfig(apiKeys []string) (*v2keyauth.Config, error) {
	customLookup, err := v2keyauth.MultipleKeySourceLookup(
		[]string{"header:Authorization", "header:x-api-key"},
		keyauth.ConfigDefault.AuthScheme,
	)
	if err != nil {
		return nil, err
	}

	return &v2keyauth.Config{
		CustomKeyLookup: customLookup,
		Next:            func(c *fiber.Ctx) bool { return false },
		Validator:       apiKeyValidator(apiKeys),
		ErrorHandler:    apiKeyErrorHandler,
		AuthScheme:      "Bearer",
	}, nil
}

func apiKeyValidator(apiKeys []string) func(*fiber.Ctx, string) (bool, error) {
	return func(c *fiber.Ctx, key string) (bool, error) {
		for _, valid := range apiKeys {
			if subtle.ConstantTimeCompare([]byte(key), []byte(valid)) == 1 {
				return true, nil
			}
		}
		return false, v2keyauth.ErrMissingOrMalformedAPIKey
	}
}

func apiKeyErrorHandler(c *fiber.Ctx, err error) error {
	if errors.Is(err, v2keyauth.ErrMissingOrMalformedAPIKey) {
		c.Set("WWW-Authenticate", "Bearer")
	}
	return errorJSONMessage(c, http.StatusUnauthorized, "invalid or missing api key")
}
