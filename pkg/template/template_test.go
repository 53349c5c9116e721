package template

import (
	"testing"

	"github.com/relaycrm/relay/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext() Context {
	return Context{
		Trigger: map[string]any{
			"name": "Amy",
			"text": "where is my order?",
		},
		Customer: map[string]any{
			"name":    "Amy Chen",
			"balance": 42.5,
		},
		CustomFields: map[string]any{
			"tier": "gold",
		},
		CustomObjects: map[string]map[string]map[string]any{
			"order": {
				"ord-1": {"status": "shipped", "total": float64(99)},
			},
		},
		Knowledge: map[string]string{
			"faq-returns": "Returns are free within 30 days.",
		},
		AI: map[string]any{
			"reply":      "On its way!",
			"confidence": 0.93,
		},
		MediaURLs: map[string]string{
			"m-1": "https://cdn.example.com/m-1.png",
		},
		FolderURLs: map[string][]string{
			"catalog": {"https://cdn.example.com/a.png", "https://cdn.example.com/b.png"},
		},
	}
}

func TestRender_AllNamespaces(t *testing.T) {
	rc := testContext()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trigger", "Hi {{trigger.name}}", "Hi Amy"},
		{"customer", "Balance: {{db.customer.balance}}", "Balance: 42.5"},
		{"custom fields", "Tier {{custom_fields.tier}}", "Tier gold"},
		{"custom object", "Order is {{custom_object.order.ord-1.status}}", "Order is shipped"},
		{"knowledge base", "{{kb.faq-returns}}", "Returns are free within 30 days."},
		{"ai", "{{ai.reply}} ({{ai.confidence}})", "On its way! (0.93)"},
		{"media", "See [[MEDIA:m-1]]", "See https://cdn.example.com/m-1.png"},
		{"whitespace tolerated", "Hi {{ trigger.name }}", "Hi Amy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Render(tt.input, rc, FailOpen)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Text)
			assert.Empty(t, result.Unresolved)
		})
	}
}

func TestRender_FolderToken(t *testing.T) {
	result, err := Render("[[FOLDER:catalog]]", testContext(), FailOpen)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.png\nhttps://cdn.example.com/b.png", result.Text)
}

func TestRender_FailOpenLeavesTokenVerbatim(t *testing.T) {
	rc := Context{
		Trigger:  map[string]any{"name": "Amy"},
		Customer: map[string]any{},
	}

	result, err := Render("Hi {{trigger.name}}, balance {{db.customer.balance}}", rc, FailOpen)
	require.NoError(t, err)
	assert.Equal(t, "Hi Amy, balance {{db.customer.balance}}", result.Text)
	assert.Equal(t, []string{"{{db.customer.balance}}"}, result.Unresolved)
}

func TestRender_FailClosedErrors(t *testing.T) {
	rc := Context{Trigger: map[string]any{}}

	_, err := Render("Hi {{trigger.name}}", rc, FailClosed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "{{trigger.name}}")
}

func TestRender_UnresolvedBehaviorUniformAcrossNamespaces(t *testing.T) {
	rc := Context{} // every namespace empty

	tokens := []string{
		"{{trigger.x}}",
		"{{db.customer.x}}",
		"{{custom_fields.x}}",
		"{{custom_object.order.ord-9.status}}",
		"{{kb.missing}}",
		"{{ai.reply}}",
		"{{api.node.body}}",
		"[[MEDIA:nope]]",
		"[[FOLDER:nope]]",
	}

	for _, token := range tokens {
		result, err := Render(token, rc, FailOpen)
		require.NoError(t, err)
		assert.Equal(t, token, result.Text, "fail open must leave %s verbatim", token)

		_, err = Render(token, rc, FailClosed)
		require.Error(t, err, "fail closed must reject %s", token)
	}
}

func TestRender_PartialCustomObjectDoesNotCrash(t *testing.T) {
	rc := testContext()

	// Known type, unselected record: needs-selection, not a crash.
	result, err := Render("{{custom_object.order.unselected.status}}", rc, FailOpen)
	require.NoError(t, err)
	assert.Equal(t, "{{custom_object.order.unselected.status}}", result.Text)
}

func TestRender_UnknownNamespaceLeftVerbatim(t *testing.T) {
	result, err := Render("{{mystery.path}}", testContext(), FailOpen)
	require.NoError(t, err)
	assert.Equal(t, "{{mystery.path}}", result.Text)
}

func TestFromExecution(t *testing.T) {
	ectx := models.NewExecutionContext("exec-1", "wf-1")
	ectx.TriggerData["text"] = "hello"
	ectx.Customer["name"] = "Amy"
	ectx.AI["reply"] = "hi"
	ectx.RecordResult("lookup", models.NodeResult{
		NodeID: "lookup",
		Data:   map[string]any{"status": "ok"},
	})

	rc := FromExecution(ectx)

	out, err := RenderString("{{trigger.text}}/{{db.customer.name}}/{{ai.reply}}/{{api.lookup.status}}", rc, FailClosed)
	require.NoError(t, err)
	assert.Equal(t, "hello/Amy/hi/ok", out)
}

func TestAssetRefs(t *testing.T) {
	mediaIDs, folders := AssetRefs("See [[MEDIA:m-1]] and [[FOLDER:promos]] plus [[MEDIA:m-2]]")
	assert.Equal(t, []string{"m-1", "m-2"}, mediaIDs)
	assert.Equal(t, []string{"promos"}, folders)

	mediaIDs, folders = AssetRefs("no tokens here {{trigger.text}}")
	assert.Empty(t, mediaIDs)
	assert.Empty(t, folders)
}

func TestHasPlaceholders(t *testing.T) {
	assert.True(t, HasPlaceholders("hi {{trigger.name}}"))
	assert.True(t, HasPlaceholders("[[MEDIA:m-1]]"))
	assert.False(t, HasPlaceholders("plain text"))
}
