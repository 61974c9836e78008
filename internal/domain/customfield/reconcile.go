package customfield

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"customfields/internal/core/apperror"
	"customfields/internal/core/id"
	"customfields/internal/domain"
	"customfields/pkg/logger"
)

// ReplacePlan is the diff between the stored and the desired collection.
type ReplacePlan struct {
	ToDelete []*Definition
	ToUpdate []UpdatePair
	ToInsert []*Definition
}

// UpdatePair couples a stored definition with its replacement.
type UpdatePair struct {
	Existing *Definition
	Desired  *Definition
}

// PlanReplace partitions by id: stored ids missing from desired are deleted,
// ids present in both are updated and the rest are inserted.
// Desired entries keep their relative order in ToUpdate and ToInsert.
func PlanReplace(existing, desired []*Definition) ReplacePlan {
	stored := make(map[string]*Definition, len(existing))
	for _, d := range existing {
		stored[d.ID] = d
	}
	wanted := make(map[string]struct{}, len(desired))

	var plan ReplacePlan
	for _, d := range desired {
		wanted[d.ID] = struct{}{}
		if prev, ok := stored[d.ID]; ok {
			plan.ToUpdate = append(plan.ToUpdate, UpdatePair{Existing: prev, Desired: d})
		} else {
			plan.ToInsert = append(plan.ToInsert, d)
		}
	}
	for _, d := range existing {
		if _, ok := wanted[d.ID]; !ok {
			plan.ToDelete = append(plan.ToDelete, d)
		}
	}
	return plan
}

// prepareReplace sets order from position and ids for new entries.
// Returns working copies; the caller's slice is not modified.
func prepareReplace(desired []*Definition) ([]*Definition, error) {
	out := make([]*Definition, len(desired))
	seen := make(map[string]int, len(desired))
	for i, d := range desired {
		if d == nil {
			return nil, apperror.NewValidation(fmt.Sprintf("Custom field at position %d should not be null", i)).
				WithDetail("index", i)
		}
		cp := d.Clone()
		cp.Order = i + 1
		if id.IsBlank(cp.ID) {
			cp.ID = id.NewString()
		}
		if prev, dup := seen[cp.ID]; dup {
			return nil, apperror.NewValidation(
				fmt.Sprintf("Custom field id %s is used at positions %d and %d", cp.ID, prev, i)).
				WithDetail("id", cp.ID)
		}
		seen[cp.ID] = i
		out[i] = cp
	}
	return out, nil
}

// ReplaceAll makes desired the complete, ordered collection of the tenant.
//
// Validation of every item happens before the first write; any invalid item
// aborts the whole call. Deletes, updates and inserts then run in one atomic
// unit. Record values of deleted definitions and removed options are cleaned
// up after commit; failures there are returned as RECORD_CLEANUP_FAILED
// together with the committed collection.
func (s *Service) ReplaceAll(ctx context.Context, desired []*Definition) ([]*Definition, error) {
	ctx, span := startSpan(ctx, "customfield.ReplaceAll")
	defer span.End()

	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}
	items, err := prepareReplace(desired)
	if err != nil {
		return nil, err
	}

	var (
		plan  ReplacePlan
		saved []*Definition
	)
	err = s.store.RunAtomic(ctx, tenantID, func(ctx context.Context) error {
		existing, err := s.store.FindAll(ctx, tenantID)
		if err != nil {
			return fmt.Errorf("load definitions: %w", err)
		}
		// fresh copies: the store may retry this unit
		work := make([]*Definition, len(items))
		for i, d := range items {
			work[i] = d.Clone()
		}
		plan = PlanReplace(existing, work)
		if err := s.validatePlan(plan); err != nil {
			return err
		}
		saved, err = s.applyPlan(ctx, tenantID, plan, len(items))
		return err
	})
	if err != nil {
		return nil, normalizeStoreErr(err)
	}

	logger.Info(ctx, "custom fields replaced",
		"deleted", len(plan.ToDelete), "updated", len(plan.ToUpdate), "inserted", len(plan.ToInsert))
	for _, d := range plan.ToDelete {
		s.runHook(ctx, domain.AfterDelete, d)
	}
	for _, d := range saved {
		s.runHook(ctx, domain.AfterReplace, d)
	}

	if err := s.cleanupReplace(ctx, tenantID, plan, saved); err != nil {
		return saved, err
	}
	return saved, nil
}

func (s *Service) validatePlan(plan ReplacePlan) error {
	for _, p := range plan.ToUpdate {
		if err := s.validator.ValidateUpdate(p.Existing, p.Desired); err != nil {
			return withItem(normalizeValidationErr(err), p.Desired)
		}
	}
	for _, d := range plan.ToInsert {
		if err := s.validator.Validate(d); err != nil {
			return withItem(normalizeValidationErr(err), d)
		}
	}
	return nil
}

func (s *Service) applyPlan(ctx context.Context, tenantID string, plan ReplacePlan, size int) ([]*Definition, error) {
	for _, d := range plan.ToDelete {
		applied, err := s.store.Delete(ctx, tenantID, d.ID)
		if err != nil {
			return nil, fmt.Errorf("delete %s: %w", d.ID, err)
		}
		if !applied {
			return nil, apperror.NewNotFound(EntityName, d.ID)
		}
	}

	byOrder := make([]*Definition, size)
	for _, p := range plan.ToUpdate {
		updated, err := s.update(ctx, tenantID, p.Existing, p.Desired, p.Desired.Order)
		if err != nil {
			return nil, err
		}
		byOrder[updated.Order-1] = updated
	}
	for _, d := range plan.ToInsert {
		inserted, err := s.insert(ctx, tenantID, d, d.Order)
		if err != nil {
			return nil, err
		}
		byOrder[inserted.Order-1] = inserted
	}
	return byOrder, nil
}

func (s *Service) cleanupReplace(ctx context.Context, tenantID string, plan ReplacePlan, saved []*Definition) error {
	var (
		failed []string
		errs   []error
	)
	for _, d := range plan.ToDelete {
		if err := s.records.DeleteAllValues(ctx, tenantID, d); err != nil {
			logger.Warn(ctx, "record values cleanup failed", "id", d.ID, "error", err)
			failed = append(failed, d.ID)
			errs = append(errs, err)
		}
	}

	after := make(map[string]*Definition, len(saved))
	for _, d := range saved {
		after[d.ID] = d
	}
	for _, p := range plan.ToUpdate {
		if err := s.cleanupOptions(ctx, tenantID, p.Existing, after[p.Existing.ID]); err != nil {
			failed = append(failed, p.Existing.ID)
			errs = append(errs, err)
		}
	}

	if len(failed) == 0 {
		return nil
	}
	return apperror.NewCleanupFailed(
		fmt.Sprintf("Custom fields were saved but record values could not be cleaned up for: %s", strings.Join(failed, ", ")),
		errors.Join(errs...)).
		WithDetail("ids", failed)
}

func withItem(err error, d *Definition) error {
	if appErr, ok := apperror.AsAppError(err); ok {
		return appErr.WithDetail("id", d.ID).WithDetail("order", d.Order)
	}
	return err
}
