package cli

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"contest-scoring-service/internal/app"
	"contest-scoring-service/internal/config"
	"github.com/spf13/cobra"
)

// NewReportCmd prints the official results report as JSON.
func NewReportCmd(configPath *string) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the results report (rankings, standings, recognitions) as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return runReport(cmd.Context(), *configPath, w)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the report to a file instead of stdout")
	return cmd
}

func runReport(ctx context.Context, configPath string, w io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	return writeReport(ctx, cfg, w)
}

func writeReport(ctx context.Context, cfg config.Config, w io.Writer) error {
	log := newLogger(cfg)
	st, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	opts := serviceOptions(cfg, log, nil)
	service := app.NewContestService(app.NewAnswerKeyStore(st.keys, opts...), st.participants, opts...)
	report, err := service.Report(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
