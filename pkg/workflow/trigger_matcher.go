package workflow

import (
	"log/slog"

	"github.com/relaycrm/relay/pkg/models"
	"github.com/relaycrm/relay/pkg/nodes/messagetrigger"
)

// TriggerMatcher matches inbound messages against the trigger nodes of
// active workflows.
type TriggerMatcher struct {
	logger *slog.Logger
}

// MatchResult pairs a workflow with the trigger node that matched.
type MatchResult struct {
	Workflow    *models.Workflow
	TriggerNode *models.WorkflowNode
}

func NewTriggerMatcher(logger *slog.Logger) *TriggerMatcher {
	return &TriggerMatcher{
		logger: logger.With("module", "trigger_matcher"),
	}
}

// Match returns every workflow whose enabled message trigger accepts the
// inbound message. A workflow matches at most once, on its first matching
// trigger node.
func (tm *TriggerMatcher) Match(msg *models.InboundMessage, workflows []*models.Workflow) []MatchResult {
	var results []MatchResult

	for _, wf := range workflows {
		if !wf.IsActive() {
			continue
		}

		for _, node := range wf.TriggerNodes() {
			if node.Type != models.NodeTypeMessageTrigger {
				continue
			}

			trigger, err := messagetrigger.NewMessageTriggerNode(node.ID, node.Config)
			if err != nil {
				tm.logger.Warn("Skipping trigger node with invalid configuration",
					"workflow_id", wf.ID,
					"node_id", node.ID,
					"error", err)

				continue
			}

			if trigger.Matches(msg) {
				results = append(results, MatchResult{Workflow: wf, TriggerNode: node})

				tm.logger.Debug("Inbound message matched workflow",
					"workflow_id", wf.ID,
					"node_id", node.ID,
					"channel", msg.Message.Channel)

				break
			}
		}
	}

	tm.logger.Info("Completed trigger matching",
		"channel", msg.Message.Channel,
		"workflows_checked", len(workflows),
		"matches_found", len(results))

	return results
}
