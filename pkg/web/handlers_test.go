package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaycrm/relay/pkg/eventbus"
	"github.com/relaycrm/relay/pkg/models"
	"github.com/relaycrm/relay/pkg/nodes/messagetrigger"
	"github.com/relaycrm/relay/pkg/nodes/templatenode"
	"github.com/relaycrm/relay/pkg/persistence/file"
	"github.com/relaycrm/relay/pkg/registry"
	"github.com/relaycrm/relay/pkg/services"
	"github.com/relaycrm/relay/pkg/sessions"
	"github.com/relaycrm/relay/pkg/web"
)

type stubPublisher struct{}

func (p *stubPublisher) Publish(_ context.Context, _ string, _ eventbus.Event) error {
	return nil
}

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	persist := file.NewPersistence(t.TempDir())

	reg := registry.NewRegistry(slog.Default())
	reg.RegisterNode(messagetrigger.NewMessageTriggerNodeFactory())
	reg.RegisterNode(templatenode.NewTemplateNodeFactory())

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := sessions.NewStore(client, time.Hour)
	publisher := &stubPublisher{}

	customerService := services.NewCustomer(persist)
	pipelineService := services.NewPipeline(persist)
	libraryService := services.NewLibrary(persist)
	workflowService := services.NewWorkflow(persist, reg, publisher)
	intakeService := services.NewIntake(slog.Default(), customerService, workflowService, store, publisher)

	handlers := web.NewAPIHandlers(
		customerService,
		pipelineService,
		libraryService,
		workflowService,
		intakeService,
		store,
		validator.New(validator.WithRequiredStructEnabled()),
		reg,
		web.NewMessageStream(slog.Default()),
	)

	app := fiber.New()
	web.RegisterRoutes(app, handlers)

	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	responseBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	return resp, responseBody
}

func createTestCustomer(t *testing.T, app *fiber.App, name, phone string) models.Customer {
	t.Helper()

	resp, body := doJSON(t, app, http.MethodPost, "/api/customers", web.CreateCustomerRequest{
		Name:         name,
		Phone:        phone,
		Channel:      "whatsapp",
		CustomFields: map[string]any{"plan": "pro"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var customer models.Customer
	require.NoError(t, json.Unmarshal(body, &customer))

	return customer
}

func TestCustomerEndpoints(t *testing.T) {
	app := setupTestApp(t)

	created := createTestCustomer(t, app, "Ana", "+5511999990001")
	assert.NotEmpty(t, created.ID)

	resp, body := doJSON(t, app, http.MethodGet, "/api/customers/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var fetched models.Customer
	require.NoError(t, json.Unmarshal(body, &fetched))
	assert.Equal(t, "Ana", fetched.Name)

	// Dynamic column projection.
	resp, body = doJSON(t, app, http.MethodGet, "/api/customers/?fields=name,plan", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page services.CustomerPage
	require.NoError(t, json.Unmarshal(body, &page))
	require.Len(t, page.Customers, 1)
	assert.Equal(t, "pro", page.Customers[0]["plan"])
	assert.NotContains(t, page.Customers[0], "phone")

	resp, _ = doJSON(t, app, http.MethodPatch, "/api/customers/"+created.ID, map[string]any{"name": "Ana Maria"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodDelete, "/api/customers/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/customers/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateCustomer_Validation(t *testing.T) {
	app := setupTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/customers", web.CreateCustomerRequest{
		Phone:   "+55",
		Channel: "whatsapp",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "name is required")

	resp, _ = doJSON(t, app, http.MethodPost, "/api/customers", web.CreateCustomerRequest{
		Name:    "Ana",
		Phone:   "+55",
		Channel: "sms",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "channel must be whatsapp or telegram")
}

func TestPipelineEndpoints(t *testing.T) {
	app := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/pipeline/stages", models.Stage{Name: "Lead", Position: 0})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var stage models.Stage
	require.NoError(t, json.Unmarshal(body, &stage))

	customer := createTestCustomer(t, app, "Ana", "+5511999990001")

	resp, body = doJSON(t, app, http.MethodPost, "/api/pipeline/move-customer", web.MoveCustomerRequest{
		CustomerID: customer.ID,
		StageID:    stage.ID,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var moved models.Customer
	require.NoError(t, json.Unmarshal(body, &moved))
	assert.Equal(t, stage.ID, moved.StageID)

	resp, body = doJSON(t, app, http.MethodGet, "/api/pipeline/board", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var board services.Board
	require.NoError(t, json.Unmarshal(body, &board))
	require.Len(t, board.Stages, 1)
	require.Len(t, board.Stages[0].Customers, 1)
	assert.Equal(t, customer.ID, board.Stages[0].Customers[0].ID)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/pipeline/move-customer", web.MoveCustomerRequest{
		CustomerID: customer.ID,
		StageID:    "missing-stage",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPromptEndpoints(t *testing.T) {
	app := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/prompt-library", models.Prompt{
		Name:         "Support tone",
		SystemPrompt: "You are a polite support agent.",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var prompt models.Prompt
	require.NoError(t, json.Unmarshal(body, &prompt))

	resp, body = doJSON(t, app, http.MethodPut, "/api/prompt-library/"+prompt.ID, models.Prompt{
		Name:         "Support tone v2",
		SystemPrompt: "You are a polite support agent.",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, _ = doJSON(t, app, http.MethodDelete, "/api/prompt-library/"+prompt.ID, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/prompt-library/"+prompt.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMediaEndpoints(t *testing.T) {
	app := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/media", models.MediaAsset{
		Name:   "Logo",
		Folder: "branding",
		URL:    "https://cdn.example.com/logo.png",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = doJSON(t, app, http.MethodGet, "/api/media/?folder=branding", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var assets []models.MediaAsset
	require.NoError(t, json.Unmarshal(body, &assets))
	assert.Len(t, assets, 1)

	resp, body = doJSON(t, app, http.MethodGet, "/api/media/?folder=missing", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &assets))
	assert.Empty(t, assets)
}

func testWorkflowRequest() web.CreateWorkflowRequest {
	return web.CreateWorkflowRequest{
		Name:        "Welcome flow",
		Description: "Greets new customers",
		Nodes: []*models.WorkflowNode{
			{
				ID:       "trigger-1",
				Type:     models.NodeTypeMessageTrigger,
				Category: models.CategoryTypeTrigger,
				Config:   map[string]any{"match": "keyword", "keywords": []any{"hi"}},
				Name:     "Inbound message",
				Enabled:  true,
			},
			{
				ID:       "tpl-1",
				Type:     models.NodeTypeTemplate,
				Category: models.CategoryTypeAction,
				Config:   map[string]any{"template": "Welcome!"},
				Name:     "Render",
				Enabled:  true,
			},
		},
		Connections: []*models.Connection{
			{ID: "c1", SourcePort: "trigger-1:message", TargetPort: "tpl-1:main"},
		},
	}
}

func TestWorkflowEndpoints(t *testing.T) {
	app := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/workflows", testWorkflowRequest())
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var workflow models.Workflow
	require.NoError(t, json.Unmarshal(body, &workflow))
	assert.Equal(t, models.WorkflowStatusDraft, workflow.Status)

	resp, body = doJSON(t, app, http.MethodPost, "/api/workflows/"+workflow.ID+"/activate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var activated models.Workflow
	require.NoError(t, json.Unmarshal(body, &activated))
	assert.Equal(t, models.WorkflowStatusActive, activated.Status)

	resp, body = doJSON(t, app, http.MethodPost, "/api/workflows/"+workflow.ID+"/execute", web.ExecuteWorkflowRequest{
		TriggerData: map[string]any{"text": "manual"},
	})
	assert.Equal(t, http.StatusAccepted, resp.StatusCode, string(body))

	resp, _ = doJSON(t, app, http.MethodGet, "/api/workflows/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWorkflowCreate_UnknownNodeType(t *testing.T) {
	app := setupTestApp(t)

	req := testWorkflowRequest()
	req.Nodes[1].Type = "teleport"

	resp, body := doJSON(t, app, http.MethodPost, "/api/workflows", req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))
}

func TestNodeTypesEndpoint(t *testing.T) {
	app := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/api/nodes", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var types []web.NodeTypeResponse
	require.NoError(t, json.Unmarshal(body, &types))
	require.Len(t, types, 2)
	assert.Equal(t, models.NodeTypeTemplate, types[0].Type, "palette is sorted by type")
	assert.Equal(t, models.NodeTypeMessageTrigger, types[1].Type)
	assert.NotEmpty(t, types[0].Name)
}

func TestInboundWebhook(t *testing.T) {
	app := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/api/workflows", testWorkflowRequest())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var workflow models.Workflow
	require.NoError(t, json.Unmarshal(body, &workflow))

	resp, _ = doJSON(t, app, http.MethodPost, "/api/workflows/"+workflow.ID+"/activate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodPost, "/api/messages/inbound/whatsapp", web.InboundMessageRequest{
		From: "+5511999990001",
		Name: "Ana",
		Text: "hi there",
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode, string(body))

	var result services.InboundResult
	require.NoError(t, json.Unmarshal(body, &result))
	assert.True(t, result.Automated)
	assert.Equal(t, []string{workflow.ID}, result.Triggered)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/messages/inbound/sms", web.InboundMessageRequest{
		From: "+5511999990001",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestConversationEndpoints(t *testing.T) {
	app := setupTestApp(t)

	customer := createTestCustomer(t, app, "Ana", "+5511999990001")

	resp, body := doJSON(t, app, http.MethodPost, "/api/conversations/"+customer.ID+"/takeover", web.HandoffRequest{
		Reason: "customer asked for a human",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var session sessions.Session
	require.NoError(t, json.Unmarshal(body, &session))
	assert.Equal(t, sessions.StatusWithAgent, session.Status)

	resp, body = doJSON(t, app, http.MethodPost, "/api/conversations/"+customer.ID+"/resume", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, json.Unmarshal(body, &session))
	assert.Equal(t, sessions.StatusAutomated, session.Status)
}

func TestHealthCheck(t *testing.T) {
	app := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, string(body))
}
