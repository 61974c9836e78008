package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/klauspost/compress/zstd"

	appctx "customfields/internal/core/context"
	"customfields/internal/core/id"
	"customfields/internal/core/tenant"
	"customfields/internal/domain"
	"customfields/internal/domain/customfield"
	"customfields/pkg/logger"
)

// AuditAction represents the type of audited operation.
type AuditAction string

const (
	AuditActionCreate  AuditAction = "create"
	AuditActionUpdate  AuditAction = "update"
	AuditActionDelete  AuditAction = "delete"
	AuditActionReplace AuditAction = "replace"
)

// CompressionAlgo specifies the compression algorithm used.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

const auditTable = "custom_field_audit"

// DefaultCompressThreshold is the change set size above which payloads are compressed.
const DefaultCompressThreshold = 10 * 1024

// AuditEntry represents a single audit log entry.
type AuditEntry struct {
	ID                id.ID           `db:"id" json:"id"`
	TenantID          string          `db:"tenant_id" json:"-"`
	DefinitionID      string          `db:"definition_id" json:"definitionId"`
	Action            AuditAction     `db:"action" json:"action"`
	UserID            string          `db:"user_id" json:"userId,omitempty"`
	Username          string          `db:"username" json:"username,omitempty"`
	Changes           json.RawMessage `db:"changes" json:"changes,omitempty"`
	ChangesCompressed []byte          `db:"changes_compressed" json:"-"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo" json:"-"`
	CreatedAt         time.Time       `db:"created_at" json:"createdAt"`
}

// AuditService records definition changes in custom_field_audit.
type AuditService struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int // bytes
}

// NewAuditService creates a new audit service.
func NewAuditService(txManager *TxManager) (*AuditService, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &AuditService{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: DefaultCompressThreshold,
	}, nil
}

// Close releases the zstd decoder.
func (s *AuditService) Close() {
	s.decoder.Close()
}

// Log records an audit entry.
func (s *AuditService) Log(ctx context.Context, entry AuditEntry) error {
	entry = s.prepare(ctx, entry)

	sql, args, err := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Insert(auditTable).
		Columns(
			"id", "tenant_id", "definition_id", "action", "user_id", "username",
			"changes", "changes_compressed", "compression_algo", "created_at",
		).
		Values(
			entry.ID, entry.TenantID, entry.DefinitionID, entry.Action, entry.UserID, entry.Username,
			nullableJSON(entry.Changes), entry.ChangesCompressed, entry.CompressionAlgo, entry.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build audit insert: %w", err)
	}

	if _, err := s.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return MapError("insert audit entry", err)
	}
	return nil
}

// LogDefinition records a snapshot of d. Deletes keep the last state under
// "before", everything else the new state under "after".
func (s *AuditService) LogDefinition(ctx context.Context, action AuditAction, d *customfield.Definition) error {
	key := "after"
	if action == AuditActionDelete {
		key = "before"
	}
	changes, err := json.Marshal(map[string]any{key: d})
	if err != nil {
		return fmt.Errorf("marshal changes: %w", err)
	}

	return s.Log(ctx, AuditEntry{
		TenantID:     tenant.GetTenantID(ctx),
		DefinitionID: d.ID,
		Action:       action,
		Changes:      changes,
	})
}

// RegisterHooks records every committed definition change.
func (s *AuditService) RegisterHooks(hooks *domain.HookRegistry[*customfield.Definition]) {
	hook := func(action AuditAction) domain.Hook[*customfield.Definition] {
		return func(ctx context.Context, d *customfield.Definition) error {
			return s.LogDefinition(ctx, action, d)
		}
	}
	hooks.OnAfterCreate(hook(AuditActionCreate))
	hooks.OnAfterUpdate(hook(AuditActionUpdate))
	hooks.OnAfterDelete(hook(AuditActionDelete))
	hooks.OnAfterReplace(hook(AuditActionReplace))
}

// History retrieves the newest entries for one definition.
func (s *AuditService) History(ctx context.Context, tenantID, definitionID string, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	sql, args, err := historyQuery(tenantID, definitionID, limit).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build history query: %w", err)
	}

	var entries []AuditEntry
	if err := pgxscan.Select(ctx, s.txManager.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, MapError("query history", err)
	}

	for i := range entries {
		if err := s.decompress(&entries[i]); err != nil {
			logger.Warn(ctx, "audit entry unreadable", "id", entries[i].ID, "error", err)
			return nil, err
		}
	}
	return entries, nil
}

// prepare fills defaults and compresses large change sets.
func (s *AuditService) prepare(ctx context.Context, entry AuditEntry) AuditEntry {
	if actor := appctx.ResolveActor(ctx); !actor.IsZero() {
		if entry.UserID == "" {
			entry.UserID = actor.ID
		}
		if entry.Username == "" {
			entry.Username = actor.DisplayName
		}
	}
	if entry.ID == (id.ID{}) {
		entry.ID = id.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	entry.CompressionAlgo = CompressionNone
	if len(entry.Changes) > s.compressThreshold {
		entry.ChangesCompressed = s.encoder.EncodeAll(entry.Changes, nil)
		entry.Changes = nil
		entry.CompressionAlgo = CompressionZstd
	}
	return entry
}

func (s *AuditService) decompress(e *AuditEntry) error {
	if e.CompressionAlgo != CompressionZstd || len(e.ChangesCompressed) == 0 {
		return nil
	}
	decompressed, err := s.decoder.DecodeAll(e.ChangesCompressed, nil)
	if err != nil {
		return fmt.Errorf("decompress changes: %w", err)
	}
	e.Changes = decompressed
	e.ChangesCompressed = nil
	return nil
}

func historyQuery(tenantID, definitionID string, limit int) squirrel.SelectBuilder {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select(
			"id", "tenant_id", "definition_id", "action", "user_id", "username",
			"changes", "changes_compressed", "compression_algo", "created_at",
		).
		From(auditTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "definition_id": definitionID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit))
}

// nullableJSON keeps compressed entries from writing an empty jsonb value.
func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
