package web

import "github.com/gofiber/fiber/v3"

// RegisterRoutes mounts the full REST surface under /api plus the health
// endpoint at the root.
func RegisterRoutes(app *fiber.App, h *APIHandlers) {
	app.Get("/health", h.HealthCheck)

	api := app.Group("/api")

	customers := api.Group("/customers")
	customers.Get("/", h.GetCustomers)
	customers.Post("/", h.CreateCustomer)
	customers.Get("/:id", h.GetCustomer)
	customers.Put("/:id", h.UpdateCustomer)
	customers.Patch("/:id", h.UpdateCustomer)
	customers.Delete("/:id", h.DeleteCustomer)

	pipeline := api.Group("/pipeline")
	pipeline.Get("/stages", h.GetStages)
	pipeline.Post("/stages", h.CreateStage)
	pipeline.Patch("/stages/:id", h.UpdateStage)
	pipeline.Delete("/stages/:id", h.DeleteStage)
	pipeline.Get("/board", h.GetBoard)
	pipeline.Post("/move-customer", h.MoveCustomer)

	prompts := api.Group("/prompt-library")
	prompts.Get("/", h.GetPrompts)
	prompts.Post("/", h.CreatePrompt)
	prompts.Get("/:id", h.GetPrompt)
	prompts.Put("/:id", h.UpdatePrompt)
	prompts.Delete("/:id", h.DeletePrompt)

	knowledge := api.Group("/knowledge-base")
	knowledge.Get("/", h.GetKnowledge)
	knowledge.Post("/", h.SaveKnowledgeEntry)
	knowledge.Get("/:id", h.GetKnowledgeEntry)
	knowledge.Put("/:id", h.SaveKnowledgeEntry)
	knowledge.Delete("/:id", h.DeleteKnowledgeEntry)

	media := api.Group("/media")
	media.Get("/", h.GetMedia)
	media.Post("/", h.SaveMediaAsset)
	media.Get("/:id", h.GetMediaAsset)
	media.Put("/:id", h.SaveMediaAsset)
	media.Delete("/:id", h.DeleteMediaAsset)

	workflows := api.Group("/workflows")
	workflows.Get("/", h.GetWorkflows)
	workflows.Post("/", h.CreateWorkflow)
	workflows.Get("/:id", h.GetWorkflow)
	workflows.Put("/:id", h.UpdateWorkflow)
	workflows.Delete("/:id", h.DeleteWorkflow)
	workflows.Post("/:id/activate", h.ActivateWorkflow)
	workflows.Post("/:id/deactivate", h.DeactivateWorkflow)
	workflows.Post("/:id/execute", h.ExecuteWorkflow)

	api.Get("/nodes", h.GetNodeTypes)

	conversations := api.Group("/conversations")
	conversations.Get("/:customerId/session", h.GetSession)
	conversations.Post("/:customerId/takeover", h.TakeoverConversation)
	conversations.Post("/:customerId/resume", h.ResumeConversation)

	messages := api.Group("/messages")
	messages.Post("/inbound/:channel", h.ReceiveInboundMessage)

	if h.stream != nil {
		messages.Get("/events/stream", h.stream.Handler)
	}
}
