package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"customfields/internal/core/apperror"
	"customfields/internal/core/tenant"
	"customfields/internal/domain/customfield"
	"customfields/internal/infrastructure/storage/memory"
)

// offlineTenant scopes definitions loaded into the throwaway store.
const offlineTenant = "cfctl"

// ValidateCommand creates the validate command.
func ValidateCommand() *cobra.Command {
	var definitionsFile, valuesFile string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a definitions file offline",
		Long: `Run a definitions file through the full replace pipeline against an
in-memory store and print the resulting definitions. With --values, the
record values (an object keyed by refId) are validated against them too.

Examples:
  cfctl validate --file defs.json
  cfctl validate --file defs.json --values values.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runValidate(cmd.Context(), cmd, definitionsFile, valuesFile)
			if err != nil && apperror.IsAppError(err) {
				_ = writeError(cmd.OutOrStdout(), err)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&definitionsFile, "file", "", "JSON array of custom field definitions")
	cmd.Flags().StringVar(&valuesFile, "values", "", "JSON object of record values keyed by refId")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runValidate(ctx context.Context, cmd *cobra.Command, definitionsFile, valuesFile string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = tenant.WithTenantID(ctx, offlineTenant)

	var defs []*customfield.Definition
	if err := readJSON(definitionsFile, &defs); err != nil {
		return err
	}

	store := memory.NewStore()
	svc := customfield.NewService(customfield.ServiceConfig{Store: store, Allocator: store})
	saved, err := svc.ReplaceAll(ctx, defs)
	if err != nil {
		return err
	}

	if valuesFile != "" {
		var values map[string]any
		if err := readJSON(valuesFile, &values); err != nil {
			return err
		}
		if err := svc.ValidateRecordValues(ctx, values); err != nil {
			return err
		}
	}

	return writeJSON(cmd.OutOrStdout(), saved)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperror.NewValidation(fmt.Sprintf("%s is not valid JSON", path)).
			WithDetail("error", err.Error())
	}
	return nil
}
