package customfield

import (
	"context"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"customfields/internal/core/apperror"
	"customfields/internal/core/id"
	"customfields/internal/core/numerator"
	"customfields/internal/core/tenant"
	"customfields/internal/domain"
	"customfields/pkg/logger"
)

var tracer = otel.Tracer("customfields/customfield")

// Service implements the custom field operations for the tenant found in ctx.
type Service struct {
	store     Store
	records   RecordService
	validator *DefinitionValidator
	values    *ValueValidator
	assignor  *Assignor
	hooks     *domain.HookRegistry[*Definition]
	limits    Limits
}

// ServiceConfig configures the service.
type ServiceConfig struct {
	Store     Store
	Allocator numerator.Allocator

	// Records defaults to NoOpRecordService.
	Records RecordService

	Limits Limits
}

// NewService creates a new custom field service.
func NewService(cfg ServiceConfig) *Service {
	records := cfg.Records
	if records == nil {
		records = NoOpRecordService{}
	}
	limits := cfg.Limits.WithDefaults()
	return &Service{
		store:     cfg.Store,
		records:   records,
		validator: NewDefinitionValidator(limits),
		values:    NewValueValidator(limits),
		assignor:  NewAssignor(cfg.Store, cfg.Allocator),
		hooks:     domain.NewHookRegistry[*Definition](),
		limits:    limits,
	}
}

// Hooks returns the hook registry for external registration.
// Hooks run after commit; their errors are logged only.
func (s *Service) Hooks() *domain.HookRegistry[*Definition] {
	return s.hooks
}

// Limits returns the effective limits.
func (s *Service) Limits() Limits {
	return s.limits
}

// Create validates d, assigns id, refId, order and option ids, and stores it.
func (s *Service) Create(ctx context.Context, d *Definition) (*Definition, error) {
	ctx, span := startSpan(ctx, "customfield.Create")
	defer span.End()

	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(d); err != nil {
		return nil, normalizeValidationErr(err)
	}
	d = d.Clone()
	if id.IsBlank(d.ID) {
		d.ID = id.NewString()
	}

	var saved *Definition
	err = s.store.RunAtomic(ctx, tenantID, func(ctx context.Context) error {
		order, err := s.assignor.NextOrder(ctx, tenantID)
		if err != nil {
			return err
		}
		saved, err = s.insert(ctx, tenantID, d.Clone(), order)
		return err
	})
	if err != nil {
		return nil, normalizeStoreErr(err)
	}

	logger.Info(ctx, "custom field created", "id", saved.ID, "ref_id", saved.RefID, "type", saved.Type)
	s.runHook(ctx, domain.AfterCreate, saved)
	return saved, nil
}

// Get returns one definition.
func (s *Service) Get(ctx context.Context, defID string) (*Definition, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}
	d, err := s.store.FindByID(ctx, tenantID, defID)
	if err != nil {
		return nil, normalizeGetErr(err, defID)
	}
	return d, nil
}

// List returns a page of definitions ordered by order unless filter says otherwise.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Definition], error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return domain.ListResult[*Definition]{}, err
	}
	filter = filter.Normalize(s.limits.MaxPageSize)

	items, total, err := s.store.FindByFilter(ctx, tenantID, filter)
	if err != nil {
		return domain.ListResult[*Definition]{}, normalizeStoreErr(err)
	}
	if items == nil {
		items = []*Definition{}
	}
	return domain.ListResult[*Definition]{
		Items:      items,
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

// Update replaces definition defID with d. Type and text format cannot change;
// order is kept and refId is reissued when the name changes.
func (s *Service) Update(ctx context.Context, defID string, d *Definition) error {
	ctx, span := startSpan(ctx, "customfield.Update")
	defer span.End()

	tenantID, err := requireTenant(ctx)
	if err != nil {
		return err
	}

	var existing, updated *Definition
	err = s.store.RunAtomic(ctx, tenantID, func(ctx context.Context) error {
		found, err := s.store.FindByID(ctx, tenantID, defID)
		if err != nil {
			return normalizeGetErr(err, defID)
		}
		if err := s.validator.ValidateUpdate(found, d); err != nil {
			return normalizeValidationErr(err)
		}
		existing = found
		updated, err = s.update(ctx, tenantID, found, d.Clone(), found.Order)
		return err
	})
	if err != nil {
		return normalizeStoreErr(err)
	}

	logger.Info(ctx, "custom field updated", "id", updated.ID, "ref_id", updated.RefID)
	s.runHook(ctx, domain.AfterUpdate, updated)

	if err := s.cleanupOptions(ctx, tenantID, existing, updated); err != nil {
		return apperror.NewCleanupFailed(
			fmt.Sprintf("Custom field %s was updated but its option values could not be cleaned up", defID), err).
			WithDetail("ids", []string{defID})
	}
	return nil
}

// Delete removes a definition, closes the order gap and then drops its record values.
// A failure of the last step is reported but the definition stays deleted.
func (s *Service) Delete(ctx context.Context, defID string) error {
	ctx, span := startSpan(ctx, "customfield.Delete")
	defer span.End()

	tenantID, err := requireTenant(ctx)
	if err != nil {
		return err
	}

	var existing *Definition
	err = s.store.RunAtomic(ctx, tenantID, func(ctx context.Context) error {
		found, err := s.store.FindByID(ctx, tenantID, defID)
		if err != nil {
			return normalizeGetErr(err, defID)
		}
		existing = found
		applied, err := s.store.Delete(ctx, tenantID, defID)
		if err != nil {
			return fmt.Errorf("delete %s: %w", defID, err)
		}
		if !applied {
			return apperror.NewNotFound(EntityName, defID)
		}
		return s.assignor.Renumber(ctx, tenantID)
	})
	if err != nil {
		return normalizeStoreErr(err)
	}

	logger.Info(ctx, "custom field deleted", "id", defID, "ref_id", existing.RefID)
	s.runHook(ctx, domain.AfterDelete, existing)

	if err := s.records.DeleteAllValues(ctx, tenantID, existing); err != nil {
		logger.Warn(ctx, "record values cleanup failed", "id", defID, "error", err)
		return apperror.NewCleanupFailed(
			fmt.Sprintf("Custom field %s was deleted but its record values could not be removed", defID), err).
			WithDetail("ids", []string{defID})
	}
	return nil
}

// ValidateRecordValues checks values keyed by refId. All problems are
// collected into one VALIDATION_ERROR with an "errors" detail.
func (s *Service) ValidateRecordValues(ctx context.Context, values map[string]any) error {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}

	defs, err := s.store.FindAll(ctx, tenantID)
	if err != nil {
		return normalizeStoreErr(err)
	}
	byRefID := make(map[string]*Definition, len(defs))
	for _, d := range defs {
		byRefID[d.RefID] = d
	}

	errs := s.values.ValidateAll(values, byRefID)
	if len(errs) == 0 {
		return nil
	}
	msg := errs[0].Message
	if len(errs) > 1 {
		msg = fmt.Sprintf("%d custom field values are invalid", len(errs))
	}
	return apperror.NewValidation(msg).WithDetail("errors", errs)
}

// GetStatistic counts records using the definition.
func (s *Service) GetStatistic(ctx context.Context, defID string) (*Statistic, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}
	d, err := s.store.FindByID(ctx, tenantID, defID)
	if err != nil {
		return nil, normalizeGetErr(err, defID)
	}
	count, err := s.records.RetrieveStatistic(ctx, tenantID, d)
	if err != nil {
		return nil, apperror.NewInternal(err).WithDetail("id", defID)
	}
	return &Statistic{FieldID: d.ID, EntityType: d.EntityType, Count: count}, nil
}

// GetOptionStatistic counts records that selected one option of a select field.
func (s *Service) GetOptionStatistic(ctx context.Context, defID, optionID string) (*OptionStatistic, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}
	d, err := s.store.FindByID(ctx, tenantID, defID)
	if err != nil {
		return nil, normalizeGetErr(err, defID)
	}
	if !d.Type.IsSelectable() {
		return nil, apperror.NewBusinessRule(apperror.CodeBusinessRule,
			fmt.Sprintf("Custom field %s of type %s has no options", defID, d.Type))
	}
	if _, ok := d.OptionByID(optionID); !ok {
		return nil, apperror.NewBusinessRule(apperror.CodeBusinessRule,
			fmt.Sprintf("Option %s does not exist in custom field %s", optionID, defID))
	}
	count, err := s.records.RetrieveOptionStatistic(ctx, tenantID, d, optionID)
	if err != nil {
		return nil, apperror.NewInternal(err).WithDetail("id", defID)
	}
	return &OptionStatistic{
		OptionID:      optionID,
		CustomFieldID: d.ID,
		EntityType:    d.EntityType,
		Count:         count,
	}, nil
}

// --- write steps shared with ReplaceAll; callers run them inside RunAtomic ---

func (s *Service) insert(ctx context.Context, tenantID string, d *Definition, order int) (*Definition, error) {
	d.Order = order
	if err := s.assignor.AssignRefID(ctx, tenantID, d); err != nil {
		return nil, err
	}
	if err := s.assignor.AssignOptionIDs(ctx, tenantID, d, nil); err != nil {
		return nil, err
	}
	s.assignor.Stamp(ctx, d, nil)

	saved, err := s.store.Save(ctx, tenantID, d)
	if err != nil {
		return nil, fmt.Errorf("save %s: %w", d.ID, err)
	}
	return saved, nil
}

func (s *Service) update(ctx context.Context, tenantID string, existing, d *Definition, order int) (*Definition, error) {
	d.ID = existing.ID
	d.Order = order
	if d.Name == existing.Name {
		d.RefID = existing.RefID
	} else if err := s.assignor.AssignRefID(ctx, tenantID, d); err != nil {
		return nil, err
	}
	if err := s.assignor.AssignOptionIDs(ctx, tenantID, d, existing); err != nil {
		return nil, err
	}
	s.assignor.Stamp(ctx, d, existing.Metadata)

	applied, err := s.store.Update(ctx, tenantID, d)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", d.ID, err)
	}
	if !applied {
		return nil, apperror.NewNotFound(EntityName, d.ID)
	}
	return d, nil
}

// cleanupOptions tells the record service about removed options and changed defaults.
func (s *Service) cleanupOptions(ctx context.Context, tenantID string, before, after *Definition) error {
	if !before.Type.IsSelectable() {
		return nil
	}
	var removed []string
	for _, optID := range before.OptionIDs() {
		if _, ok := after.OptionByID(optID); !ok {
			removed = append(removed, optID)
		}
	}
	newDefaults := after.DefaultOptionIDs()
	oldDefaults := before.DefaultOptionIDs()
	slices.Sort(newDefaults)
	slices.Sort(oldDefaults)
	if len(removed) == 0 && slices.Equal(oldDefaults, newDefaults) {
		return nil
	}

	if err := s.records.DeleteOptionValues(ctx, tenantID, before.RefID, removed, newDefaults); err != nil {
		logger.Warn(ctx, "option values cleanup failed", "id", before.ID, "removed", removed, "error", err)
		return err
	}
	return nil
}

func (s *Service) runHook(ctx context.Context, event domain.HookEvent, d *Definition) {
	if err := s.hooks.Run(ctx, event, d); err != nil {
		logger.Warn(ctx, "custom field hook failed", "event", string(event), "id", d.ID, "error", err)
	}
}

// --- helpers ---

func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, name)
	if tenantID := tenant.GetTenantID(ctx); tenantID != "" {
		span.SetAttributes(attribute.String("tenant.id", tenantID))
	}
	return ctx, span
}

func requireTenant(ctx context.Context) (string, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return "", apperror.NewValidation("Tenant is required").WithCause(err)
	}
	return tenantID, nil
}

func normalizeValidationErr(err error) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewValidation(err.Error())
}

func normalizeGetErr(err error, defID string) error {
	if err == nil {
		return nil
	}
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(EntityName, defID)
	}
	return normalizeStoreErr(err)
}

// normalizeStoreErr keeps AppErrors found in the chain and hides the rest.
func normalizeStoreErr(err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := apperror.AsAppError(err); ok {
		return appErr
	}
	return apperror.NewInternal(err)
}
