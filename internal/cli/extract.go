package cli

import (
	"fmt"

	"neuromatch/internal/common"

	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract plain text from a résumé or job description file",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

func init() {
	extractCmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, logger, err := contextDeps(cmd)
	if err != nil {
		return err
	}
	output, _ := cmd.Flags().GetString("output")

	fp := common.NewFileProcessor(logger, cfg.App.MaxFileSize)
	text, err := fp.ReadDocument(args[0])
	if err != nil {
		return err
	}

	if output == "" {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
		return err
	}
	if err := fp.ValidateOutputFile(output); err != nil {
		return err
	}
	if err := fp.WriteFile(output, text); err != nil {
		return err
	}
	logger.Info("Extracted text written", "file", output, "chars", len([]rune(text)))
	return nil
}
