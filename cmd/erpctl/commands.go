package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/erp-api/internal/hierarchy"
	"github.com/noah-isme/erp-api/internal/models"
	"github.com/noah-isme/erp-api/internal/repository"
	"github.com/noah-isme/erp-api/internal/service"
	"github.com/noah-isme/erp-api/pkg/config"
	"github.com/noah-isme/erp-api/pkg/database"
	"github.com/noah-isme/erp-api/pkg/logger"
	"github.com/noah-isme/erp-api/pkg/validation"
)

// systemActor is recorded as the actor for maintenance runs.
const systemActor = "system"

type hierarchyMaintainer interface {
	RebuildHierarchy(ctx context.Context, actorID string, meta models.LoginRequest) ([]hierarchy.Change, []hierarchy.Violation, error)
	CheckHierarchy(ctx context.Context) ([]hierarchy.Violation, error)
}

type staleReminder interface {
	RemindStale(ctx context.Context, olderThan time.Duration, limit int) (int, error)
}

type backend struct {
	users     hierarchyMaintainer
	approvals staleReminder
	close     func()
}

// connectFunc builds the services a command needs. Tests swap it for stubs.
type connectFunc func() (*backend, error)

func newRootCmd(connect connectFunc) *cobra.Command {
	if connect == nil {
		connect = connectDatabase
	}
	var asJSON bool

	root := &cobra.Command{
		Use:           "erpctl",
		Short:         "Maintenance commands for the ERP approval API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&asJSON, "json", false, "print results as JSON")

	hierarchyCmd := &cobra.Command{
		Use:   "hierarchy",
		Short: "Inspect and repair user hierarchy levels",
	}
	hierarchyCmd.AddCommand(&cobra.Command{
		Use:   "rebuild",
		Short: "Recompute every hierarchy_level from the parent links",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := connect()
			if err != nil {
				return err
			}
			defer b.close()
			changes, violations, err := b.users.RebuildHierarchy(cmd.Context(), systemActor, models.LoginRequest{UserAgent: "erpctl"})
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]interface{}{"changes": changes, "violations": violations})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %d user(s)\n", len(changes))
			for _, ch := range changes {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s: %s -> %s\n", ch.ID, levelString(ch.Previous), levelString(ch.Level))
			}
			printViolations(cmd.OutOrStdout(), violations)
			return nil
		},
	})
	hierarchyCmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Report stored levels that disagree with the parent links",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := connect()
			if err != nil {
				return err
			}
			defer b.close()
			violations, err := b.users.CheckHierarchy(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				if err := writeJSON(cmd.OutOrStdout(), violations); err != nil {
					return err
				}
			} else {
				printViolations(cmd.OutOrStdout(), violations)
			}
			if len(violations) > 0 {
				return fmt.Errorf("%d hierarchy violation(s) found", len(violations))
			}
			return nil
		},
	})

	var olderThan time.Duration
	var limit int
	remindCmd := &cobra.Command{
		Use:   "remind",
		Short: "Send reminders for approvals pending longer than --older-than",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := connect()
			if err != nil {
				return err
			}
			defer b.close()
			sent, err := b.approvals.RemindStale(cmd.Context(), olderThan, limit)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sent %d reminder(s)\n", sent)
			return nil
		},
	}
	remindCmd.Flags().DurationVar(&olderThan, "older-than", 24*time.Hour, "minimum age of the pending approval")
	remindCmd.Flags().IntVar(&limit, "limit", 100, "maximum reminders to send")

	root.AddCommand(hierarchyCmd, remindCmd)
	return root
}

func connectDatabase() (*backend, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	userRepo := repository.NewUserRepository(db)
	validator := validation.New(repository.NewReferenceRepository(db, repository.ReferenceTables()...))
	schemas := service.NewSchemaRegistry()
	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(repository.NewCacheRepository(nil, logr), metrics, cfg.Cache.DefaultTTL, logr, false)
	notifications := service.NewNotificationService(repository.NewNotificationRepository(db), nil, validator, schemas, cacheSvc, metrics, logr)

	return &backend{
		users: service.NewUserService(userRepo, validator, schemas, cacheSvc, logr),
		approvals: service.NewApprovalService(
			repository.NewApprovalRepository(db),
			repository.NewDocumentRepository(db),
			validator, schemas, notifications, cacheSvc, metrics, userRepo, logr,
		),
		close: func() {
			_ = db.Close()
			_ = logr.Sync()
		},
	}, nil
}

func printViolations(w io.Writer, violations []hierarchy.Violation) {
	if len(violations) == 0 {
		fmt.Fprintln(w, "hierarchy consistent")
		return
	}
	fmt.Fprintf(w, "%d violation(s):\n", len(violations))
	for _, v := range violations {
		fmt.Fprintf(w, "  %s: %s (expected %s, stored %s)\n", v.ID, v.Reason, levelString(v.Expected), levelString(v.Actual))
	}
}

func levelString(level *int) string {
	if level == nil {
		return "null"
	}
	return fmt.Sprintf("%d", *level)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
