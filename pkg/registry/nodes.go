package registry

import (
	"github.com/jonboulle/clockwork"

	"github.com/relaycrm/relay/pkg/llm"
	"github.com/relaycrm/relay/pkg/messaging"
	"github.com/relaycrm/relay/pkg/nodes/ai"
	"github.com/relaycrm/relay/pkg/nodes/condition"
	"github.com/relaycrm/relay/pkg/nodes/delay"
	"github.com/relaycrm/relay/pkg/nodes/guardrail"
	"github.com/relaycrm/relay/pkg/nodes/handoff"
	"github.com/relaycrm/relay/pkg/nodes/messagetrigger"
	"github.com/relaycrm/relay/pkg/nodes/sendmessage"
	"github.com/relaycrm/relay/pkg/nodes/templatenode"
	"github.com/relaycrm/relay/pkg/nodes/updatedb"
	"github.com/relaycrm/relay/pkg/persistence"
	"github.com/relaycrm/relay/pkg/sessions"
)

// NodeDeps carries the shared services node factories are bound to.
type NodeDeps struct {
	Clock       clockwork.Clock
	LLM         llm.Client
	Senders     *messaging.Senders
	Sessions    *sessions.Store
	Persistence persistence.Persistence
}

// RegisterDefaultNodes registers all built-in node factories with the registry.
func (r *Registry) RegisterDefaultNodes(deps NodeDeps) {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}

	r.RegisterNode(messagetrigger.NewMessageTriggerNodeFactory())
	r.RegisterNode(ai.NewAINodeFactory(deps.LLM, deps.Persistence.PromptRepository()))
	r.RegisterNode(condition.NewConditionNodeFactory(deps.Clock))
	r.RegisterNode(delay.NewDelayNodeFactory(deps.Clock))
	r.RegisterNode(handoff.NewHandoffNodeFactory(deps.Sessions))
	r.RegisterNode(sendmessage.NewSendMessageNodeFactory(deps.Senders, deps.Persistence.MediaRepository()))
	r.RegisterNode(guardrail.NewGuardrailNodeFactory())
	r.RegisterNode(updatedb.NewUpdateDBNodeFactory(deps.Persistence.CustomerRepository()))
	r.RegisterNode(templatenode.NewTemplateNodeFactory())
}
