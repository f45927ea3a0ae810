package commands

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"github.com/systmms/rotatefn/pkg/harness"
)

func NewValidateCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <document>",
		Short: "Validate a local test document",
		Long: `Check that a test document (JSON or YAML) has the required shape:
a non-empty region and an ordered invocations array. Nothing is
executed; events stay opaque.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := harness.LoadTestDocumentFile[json.RawMessage](args[0])
			if err != nil {
				return err
			}

			opts.Logger.Info("Document is valid: region %s, %d invocation(s)", doc.Region, len(doc.Invocations))
			return nil
		},
	}

	return cmd
}
