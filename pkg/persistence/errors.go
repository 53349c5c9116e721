package persistence

import "errors"

var (
	ErrWorkflowNotFound  = errors.New("workflow not found")
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrStageNotFound     = errors.New("stage not found")
	ErrPromptNotFound    = errors.New("prompt not found")
	ErrKnowledgeNotFound = errors.New("knowledge entry not found")
	ErrMediaNotFound     = errors.New("media asset not found")

	ErrInvalidWorkflowID = errors.New("invalid workflow ID")
	ErrInvalidCustomerID = errors.New("invalid customer ID")
	ErrConnectionFailed  = errors.New("database connection failed")
)

// IsNotFound reports whether err is any of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound) ||
		errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrStageNotFound) ||
		errors.Is(err, ErrPromptNotFound) ||
		errors.Is(err, ErrKnowledgeNotFound) ||
		errors.Is(err, ErrMediaNotFound)
}

func IsWorkflowNotFound(err error) bool { return errors.Is(err, ErrWorkflowNotFound) }

func IsCustomerNotFound(err error) bool { return errors.Is(err, ErrCustomerNotFound) }

func IsConnectionFailed(err error) bool { return errors.Is(err, ErrConnectionFailed) }
