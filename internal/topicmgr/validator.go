package topicmgr

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// Topic names are hierarchical: scope.module.action, e.g. ws.client.ready.
	topicNamePattern  = regexp.MustCompile(`^[a-z][a-z0-9]*(\.[a-z][a-z0-9]*)*$`)
	moduleNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

	reservedPrefixes  = []string{"system.", "internal.", "debug."}
	frameworkPrefixes = []string{"ws.", "presence.", "server."}
)

// Validator provides validation for topic definitions
type Validator struct{}

// NewValidator creates a new topic validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateDefinition validates a topic definition
func (v *Validator) ValidateDefinition(topic Topic) error {
	if topic == nil {
		return fmt.Errorf("topic cannot be nil")
	}

	if err := v.ValidateName(topic.Name()); err != nil {
		return fmt.Errorf("invalid topic name: %w", err)
	}

	if strings.TrimSpace(topic.Description()) == "" {
		return fmt.Errorf("topic description cannot be empty")
	}

	if strings.TrimSpace(topic.Pattern()) == "" {
		return fmt.Errorf("topic pattern cannot be empty")
	}

	switch topic.Scope() {
	case ScopeFramework:
		if err := v.validateFrameworkTopic(topic); err != nil {
			return fmt.Errorf("framework topic validation failed: %w", err)
		}
	case ScopeModule:
		if err := v.validateModuleTopic(topic); err != nil {
			return fmt.Errorf("module topic validation failed: %w", err)
		}
	default:
		return fmt.Errorf("invalid topic scope: %s", topic.Scope())
	}

	return nil
}

// ValidateName checks if a topic name follows the naming convention
func (v *Validator) ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}

	if len(name) > 100 {
		return fmt.Errorf("name too long (max 100 characters)")
	}

	if !topicNamePattern.MatchString(name) {
		return fmt.Errorf("name must follow pattern: scope.module.action (lowercase, alphanumeric, dots only)")
	}

	for _, prefix := range reservedPrefixes {
		if strings.HasPrefix(name, prefix) {
			return fmt.Errorf("name cannot start with reserved prefix: %s", prefix)
		}
	}

	return nil
}

func (v *Validator) validateFrameworkTopic(topic Topic) error {
	if topic.Module() != "" {
		return fmt.Errorf("framework topics should not have a module")
	}

	for _, prefix := range frameworkPrefixes {
		if strings.HasPrefix(topic.Name(), prefix) {
			return nil
		}
	}

	return fmt.Errorf("framework topic must start with a valid prefix: %v", frameworkPrefixes)
}

func (v *Validator) validateModuleTopic(topic Topic) error {
	module := strings.TrimSpace(topic.Module())
	if module == "" {
		return fmt.Errorf("module topics must specify a module")
	}

	if len(module) > 50 {
		return fmt.Errorf("module name too long (max 50 characters)")
	}

	if !moduleNamePattern.MatchString(module) {
		return fmt.Errorf("module name must be lowercase alphanumeric with underscores")
	}

	return nil
}
