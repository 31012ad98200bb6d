package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yungbote/linguapath-backend/internal/app"
	"github.com/yungbote/linguapath-backend/internal/modules/reports"
	"github.com/yungbote/linguapath-backend/internal/platform/envutil"
	"github.com/yungbote/linguapath-backend/internal/platform/logger"
	"github.com/yungbote/linguapath-backend/internal/services"
)

type appOpener func(ctx context.Context) (*app.App, error)

// openApp wires the same stack as the server without tracing or a listener.
func openApp(ctx context.Context) (*app.App, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "production"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	cfg, err := app.LoadConfig(log)
	if err != nil {
		return nil, err
	}
	return app.Build(ctx, log, cfg)
}

func newRootCmd(open appOpener) *cobra.Command {
	root := &cobra.Command{
		Use:           "reportctl",
		Short:         "Seed curricula, inspect progress reports and evict cached reports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newSeedCmd(open), newReportCmd(open), newEvictCmd(open))
	return root
}

func newSeedCmd(open appOpener) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import a YAML curriculum document",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open curriculum: %w", err)
			}
			defer f.Close()
			doc, err := services.ParseCurriculum(f)
			if err != nil {
				return err
			}
			a, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			sum, err := a.Services.CurriculumImport.ImportCurriculum(cmd.Context(), doc)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), sum)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "curriculum YAML file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newReportCmd(open appOpener) *cobra.Command {
	var userID, programID string
	var concepts, summary bool
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a user's program report as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !summary && strings.TrimSpace(programID) == "" {
				return fmt.Errorf("--program is required unless --summary is set")
			}
			a, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			svc := a.Services.Reports
			var out any
			switch {
			case summary:
				out, err = svc.UserSummary(cmd.Context(), userID)
			case concepts:
				out, err = svc.ProgramConcepts(cmd.Context(), userID, programID)
			default:
				out, err = svc.ProgramReport(cmd.Context(), userID, programID)
			}
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "user id")
	cmd.Flags().StringVarP(&programID, "program", "p", "", "program id")
	cmd.Flags().BoolVar(&concepts, "concepts", false, "print the concept mapping report instead")
	cmd.Flags().BoolVar(&summary, "summary", false, "print the user summary instead")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newEvictCmd(open appOpener) *cobra.Command {
	var userID, unitID, subconceptID string
	cmd := &cobra.Command{
		Use:   "evict",
		Short: "Evict the cached reports a write to the unit or subconcept would invalidate",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(unitID) == "" && strings.TrimSpace(subconceptID) == "" {
				return fmt.Errorf("one of --unit or --subconcept is required")
			}
			a, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			ev := reports.WriteEvent{
				Kind:         reports.WriteUnitCompletion,
				UserID:       userID,
				UnitID:       unitID,
				SubconceptID: subconceptID,
			}
			if subconceptID != "" {
				ev.Kind = reports.WriteAttempt
			}
			keys := a.Services.Invalidator.Invalidate(cmd.Context(), ev)
			return writeJSON(cmd.OutOrStdout(), map[string]any{"evicted": keys})
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "user id")
	cmd.Flags().StringVar(&unitID, "unit", "", "unit id")
	cmd.Flags().StringVar(&subconceptID, "subconcept", "", "subconcept id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
