package metrics

import (
	"context"

	"customfields/internal/domain"
	"customfields/internal/domain/customfield"
)

// RecordDefinitionChange counts one committed definition change.
func (m *Metrics) RecordDefinitionChange(action string) {
	m.safeExecute("RecordDefinitionChange", func() {
		m.DefinitionChangesTotal.WithLabelValues(action).Inc()
	})
}

// RecordValueValidation counts a value validation request by outcome.
func (m *Metrics) RecordValueValidation(valid bool) {
	result := "invalid"
	if valid {
		result = "valid"
	}
	m.safeExecute("RecordValueValidation", func() {
		m.ValueValidationsTotal.WithLabelValues(result).Inc()
	})
}

// RegisterHooks counts committed definition changes by lifecycle event.
func (m *Metrics) RegisterHooks(hooks *domain.HookRegistry[*customfield.Definition]) {
	for _, event := range []domain.HookEvent{domain.AfterCreate, domain.AfterUpdate, domain.AfterDelete, domain.AfterReplace} {
		hooks.On(event, func(context.Context, *customfield.Definition) error {
			m.RecordDefinitionChange(string(event))
			return nil
		})
	}
}
