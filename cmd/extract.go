package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jobflow/internal/faults"
	"github.com/spigell/jobflow/internal/resume"
)

var extractCmd = &cobra.Command{
	Use:   "extract FILE",
	Short: "Extract plain text from a .pdf or .docx resume",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		e := setup()

		text, err := e.client.ExtractText(context.Background(), resume.NewFile(fs, args[0]))
		if err != nil {
			e.logger.Fatal("extracting resume text", zap.Error(err), zap.Stringer("kind", faults.KindOf(err)))
		}

		fmt.Fprintln(cmd.OutOrStdout(), text)
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
}
