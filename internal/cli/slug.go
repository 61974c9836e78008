package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"customfields/internal/domain/customfield"
)

// SlugCommand creates the slug command.
func SlugCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "slug <name...>",
		Short: "Print the slug and first refId generated for names",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range args {
				slug := customfield.Slug(name)
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n",
					name, slug, customfield.RefID(slug, 1)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
