// Package web provides HTTP handlers and REST API endpoints for the CRM,
// pipeline, content libraries and workflow management.
package web

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/relaycrm/relay/pkg/models"
	"github.com/relaycrm/relay/pkg/persistence"
	"github.com/relaycrm/relay/pkg/registry"
	"github.com/relaycrm/relay/pkg/services"
	"github.com/relaycrm/relay/pkg/sessions"
)

type APIHandlers struct {
	customerService *services.Customer
	pipelineService *services.Pipeline
	libraryService  *services.Library
	workflowService *services.Workflow
	intakeService   *services.Intake
	sessionStore    *sessions.Store
	validator       *validator.Validate
	registry        *registry.Registry
	stream          *MessageStream
}

func NewAPIHandlers(
	customerService *services.Customer,
	pipelineService *services.Pipeline,
	libraryService *services.Library,
	workflowService *services.Workflow,
	intakeService *services.Intake,
	sessionStore *sessions.Store,
	validator *validator.Validate,
	registry *registry.Registry,
	stream *MessageStream,
) *APIHandlers {
	return &APIHandlers{
		customerService: customerService,
		pipelineService: pipelineService,
		libraryService:  libraryService,
		workflowService: workflowService,
		intakeService:   intakeService,
		sessionStore:    sessionStore,
		validator:       validator,
		registry:        registry,
		stream:          stream,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.workflowService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Relay API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Relay API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

// Customers

func (h *APIHandlers) GetCustomers(c fiber.Ctx) error {
	req, err := h.parseListCustomersRequest(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	page, err := h.customerService.List(c.Context(), *req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(page)
}

// parseListCustomersRequest parses and validates query parameters for listing
// customers. The fields parameter drives the dynamic column projection.
func (h *APIHandlers) parseListCustomersRequest(c fiber.Ctx) (*services.ListCustomersRequest, error) {
	req := &services.ListCustomersRequest{}

	if fields := c.Query("fields"); fields != "" {
		for _, field := range strings.Split(fields, ",") {
			if field = strings.TrimSpace(field); field != "" {
				req.Fields = append(req.Fields, field)
			}
		}
	}

	req.Search = c.Query("search")

	if stageID := c.Query("stage_id"); stageID != "" {
		req.Filters = map[string]any{"stage_id": stageID}
	}

	if channel := c.Query("channel"); channel != "" {
		if req.Filters == nil {
			req.Filters = map[string]any{}
		}

		req.Filters["channel"] = channel
	}

	if pageStr := c.Query("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil {
			return nil, err
		}

		req.Page = page
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, err
		}

		req.Limit = limit
	}

	return req, nil
}

func (h *APIHandlers) GetCustomer(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Customer ID is required")
	}

	customer, err := h.customerService.FetchByID(c.Context(), id)
	if err != nil {
		if persistence.IsCustomerNotFound(err) {
			return notFound(c, "Customer not found")
		}

		return internalError(c, err)
	}

	return c.JSON(customer)
}

func (h *APIHandlers) CreateCustomer(c fiber.Ctx) error {
	var req CreateCustomerRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	customer := &models.Customer{
		Name:         req.Name,
		Phone:        req.Phone,
		Email:        req.Email,
		Channel:      models.Channel(req.Channel),
		StageID:      req.StageID,
		Tags:         req.Tags,
		CustomFields: req.CustomFields,
	}

	created, err := h.customerService.Create(c.Context(), customer)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateCustomer(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Customer ID is required")
	}

	var fields map[string]any
	if err := c.Bind().JSON(&fields); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	updated, err := h.customerService.Update(c.Context(), id, fields)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteCustomer(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Customer ID is required")
	}

	if err := h.customerService.Delete(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Pipeline

func (h *APIHandlers) GetStages(c fiber.Ctx) error {
	stages, err := h.pipelineService.ListStages(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(stages)
}

func (h *APIHandlers) CreateStage(c fiber.Ctx) error {
	var stage models.Stage
	if err := c.Bind().JSON(&stage); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	created, err := h.pipelineService.CreateStage(c.Context(), &stage)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateStage(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Stage ID is required")
	}

	var stage models.Stage
	if err := c.Bind().JSON(&stage); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	updated, err := h.pipelineService.UpdateStage(c.Context(), id, &stage)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteStage(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Stage ID is required")
	}

	if err := h.pipelineService.DeleteStage(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetBoard(c fiber.Ctx) error {
	board, err := h.pipelineService.FetchBoard(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(board)
}

func (h *APIHandlers) MoveCustomer(c fiber.Ctx) error {
	var req MoveCustomerRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	moved, err := h.pipelineService.MoveCustomer(c.Context(), req.CustomerID, req.StageID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(moved)
}

// Prompt library

func (h *APIHandlers) GetPrompts(c fiber.Ctx) error {
	prompts, err := h.libraryService.ListPrompts(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(prompts)
}

func (h *APIHandlers) GetPrompt(c fiber.Ctx) error {
	prompt, err := h.libraryService.FetchPrompt(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(prompt)
}

func (h *APIHandlers) CreatePrompt(c fiber.Ctx) error {
	var prompt models.Prompt
	if err := c.Bind().JSON(&prompt); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	created, err := h.libraryService.CreatePrompt(c.Context(), &prompt)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdatePrompt(c fiber.Ctx) error {
	var prompt models.Prompt
	if err := c.Bind().JSON(&prompt); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	updated, err := h.libraryService.UpdatePrompt(c.Context(), c.Params("id"), &prompt)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeletePrompt(c fiber.Ctx) error {
	if err := h.libraryService.DeletePrompt(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Knowledge base

func (h *APIHandlers) GetKnowledge(c fiber.Ctx) error {
	entries, err := h.libraryService.ListKnowledge(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(entries)
}

func (h *APIHandlers) GetKnowledgeEntry(c fiber.Ctx) error {
	entry, err := h.libraryService.FetchKnowledge(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(entry)
}

func (h *APIHandlers) SaveKnowledgeEntry(c fiber.Ctx) error {
	var entry models.KnowledgeBaseEntry
	if err := c.Bind().JSON(&entry); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if id := c.Params("id"); id != "" {
		entry.ID = id
	}

	saved, err := h.libraryService.SaveKnowledge(c.Context(), &entry)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(saved)
}

func (h *APIHandlers) DeleteKnowledgeEntry(c fiber.Ctx) error {
	if err := h.libraryService.DeleteKnowledge(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Media library

func (h *APIHandlers) GetMedia(c fiber.Ctx) error {
	assets, err := h.libraryService.ListMedia(c.Context(), c.Query("folder"))
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(assets)
}

func (h *APIHandlers) GetMediaAsset(c fiber.Ctx) error {
	asset, err := h.libraryService.FetchMedia(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(asset)
}

func (h *APIHandlers) SaveMediaAsset(c fiber.Ctx) error {
	var asset models.MediaAsset
	if err := c.Bind().JSON(&asset); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if id := c.Params("id"); id != "" {
		asset.ID = id
	}

	saved, err := h.libraryService.SaveMedia(c.Context(), &asset)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(saved)
}

func (h *APIHandlers) DeleteMediaAsset(c fiber.Ctx) error {
	if err := h.libraryService.DeleteMedia(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Workflows

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.workflowService.List(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(workflows)
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.workflowService.FetchByID(c.Context(), id)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return notFound(c, "Workflow not found")
		}

		return internalError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	workflow := &models.Workflow{
		Name:        req.Name,
		Description: req.Description,
		Variables:   req.Variables,
		Nodes:       req.Nodes,
		Connections: req.Connections,
	}

	created, err := h.workflowService.Create(c.Context(), workflow)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req UpdateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	existing, err := h.workflowService.FetchByID(c.Context(), id)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return notFound(c, "Workflow not found")
		}

		return internalError(c, err)
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}

	if req.Description != nil {
		existing.Description = *req.Description
	}

	if req.Variables != nil {
		existing.Variables = req.Variables
	}

	if req.Nodes != nil {
		existing.Nodes = req.Nodes
	}

	if req.Connections != nil {
		existing.Connections = req.Connections
	}

	updated, err := h.workflowService.Update(c.Context(), id, existing)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	if err := h.workflowService.Delete(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ActivateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	activated, err := h.workflowService.Activate(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(activated)
}

func (h *APIHandlers) DeactivateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	deactivated, err := h.workflowService.Deactivate(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(deactivated)
}

func (h *APIHandlers) ExecuteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req ExecuteWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	var customer *models.Customer

	if req.CustomerID != "" {
		var err error

		customer, err = h.customerService.FetchByID(c.Context(), req.CustomerID)
		if err != nil {
			return handleServiceError(c, err)
		}
	}

	if err := h.workflowService.Execute(c.Context(), id, req.TriggerData, customer); err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"workflow_id": id,
		"status":      "triggered",
	})
}

// Node palette

func (h *APIHandlers) GetNodeTypes(c fiber.Ctx) error {
	factories := h.registry.AvailableNodes()
	types := make([]NodeTypeResponse, 0, len(factories))

	for _, factory := range factories {
		types = append(types, NodeTypeResponse{
			Type:        factory.ID(),
			Name:        factory.Name(),
			Description: factory.Description(),
			Schema:      factory.Schema(),
		})
	}

	return c.JSON(types)
}

// Conversations

func (h *APIHandlers) GetSession(c fiber.Ctx) error {
	session, err := h.sessionStore.Get(c.Context(), c.Params("customerId"))
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(session)
}

func (h *APIHandlers) TakeoverConversation(c fiber.Ctx) error {
	customerID := c.Params("customerId")
	if customerID == "" {
		return badRequest(c, "Customer ID is required")
	}

	var req HandoffRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.sessionStore.SetStatus(c.Context(), customerID, sessions.StatusWithAgent, req.Reason); err != nil {
		return internalError(c, err)
	}

	session, err := h.sessionStore.Get(c.Context(), customerID)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(session)
}

func (h *APIHandlers) ResumeConversation(c fiber.Ctx) error {
	customerID := c.Params("customerId")
	if customerID == "" {
		return badRequest(c, "Customer ID is required")
	}

	if err := h.sessionStore.Resume(c.Context(), customerID); err != nil {
		return internalError(c, err)
	}

	session, err := h.sessionStore.Get(c.Context(), customerID)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(session)
}

// Messages

func (h *APIHandlers) ReceiveInboundMessage(c fiber.Ctx) error {
	channel := c.Params("channel")
	if channel == "" {
		return badRequest(c, "Channel is required")
	}

	var req InboundMessageRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.intakeService.HandleInbound(c.Context(), services.InboundRequest{
		Channel: models.Channel(channel),
		From:    req.From,
		Name:    req.Name,
		Text:    req.Text,
		MediaID: req.MediaID,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(result)
}
