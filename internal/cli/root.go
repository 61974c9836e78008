// Package cli implements the cfctl operator commands.
package cli

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"customfields/internal/core/apperror"
)

// RootCommand creates the cfctl root command with all subcommands attached.
func RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "cfctl",
		Short:         "Operate custom field definitions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(MigrateCommand(), ValidateCommand(), SlugCommand())
	return root
}

// errorOutput is the JSON form of a failed operation.
type errorOutput struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeError prints err as JSON; non-AppErrors become INTERNAL_ERROR.
func writeError(w io.Writer, err error) error {
	out := errorOutput{Code: apperror.CodeInternal, Message: err.Error()}
	if appErr, ok := apperror.AsAppError(err); ok {
		out = errorOutput{Code: appErr.Code, Message: appErr.Message, Details: appErr.Details}
	}
	return writeJSON(w, out)
}
