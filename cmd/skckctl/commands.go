package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"SKCKPortal/internal/application"
	"SKCKPortal/internal/auth"
	"SKCKPortal/internal/config"
	"SKCKPortal/internal/identity"
	"SKCKPortal/internal/notification"
	"SKCKPortal/internal/review"
)

func newRoleCmd() *cobra.Command {
	role := &cobra.Command{Use: "role", Short: "Manage user roles"}

	var email, name string
	set := &cobra.Command{
		Use:   "set",
		Short: "Set the role of a user (admin or user)",
		RunE: withSession(func(ctx context.Context, s *session, cmd *cobra.Command) error {
			users := auth.NewUserService(auth.NewUserRepository(s.mongo.Database), auth.NewTokenIssuer(s.cfg), s.log)
			if err := users.SetRole(ctx, email, auth.Role(name)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", email, name)
			return nil
		}),
	}
	set.Flags().StringVar(&email, "email", "", "e-mail of the user")
	set.Flags().StringVar(&name, "role", "", "admin or user")
	_ = set.MarkFlagRequired("email")
	_ = set.MarkFlagRequired("role")

	role.AddCommand(set)
	return role
}

// readRecords decodes a JSON array of NIK records.
func readRecords(path string) ([]identity.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []identity.Record
	if err := json.NewDecoder(f).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return records, nil
}

func newNIKCmd() *cobra.Command {
	nik := &cobra.Command{Use: "nik", Short: "Manage the NIK reference data"}

	var file string
	imp := &cobra.Command{
		Use:   "import",
		Short: "Upsert NIK records from a JSON array",
		RunE: withSession(func(ctx context.Context, s *session, cmd *cobra.Command) error {
			records, err := readRecords(file)
			if err != nil {
				return err
			}
			svc := identity.NewService(identity.NewRepository(s.mongo.Database), s.log)
			n, err := svc.Import(ctx, records)
			if err != nil {
				return fmt.Errorf("imported %d of %d records: %w", n, len(records), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d of %d records\n", n, len(records))
			return nil
		}),
	}
	imp.Flags().StringVar(&file, "file", "", "path to the JSON file")
	_ = imp.MarkFlagRequired("file")

	nik.AddCommand(imp)
	return nik
}

func newOutboxCmd() *cobra.Command {
	outbox := &cobra.Command{Use: "outbox", Short: "Inspect the review notification outbox"}

	var batch int64
	dispatch := &cobra.Command{
		Use:   "dispatch",
		Short: "Deliver undelivered review notifications once",
		RunE: withSession(func(ctx context.Context, s *session, cmd *cobra.Command) error {
			db := s.mongo.Database
			mailer, err := config.MailerFor(s.cfg, s.log)
			if err != nil {
				return err
			}
			users := auth.NewUserService(auth.NewUserRepository(db), auth.NewTokenIssuer(s.cfg), s.log)
			notifications := notification.NewRepository(db)
			hub := notification.NewHub(notifications, s.cfg.Notification.DwellTime, s.log)
			defer hub.Close()
			notifier := notification.NewService(notifications, hub, mailer, users, s.log)
			defer notifier.Wait()

			svc := review.NewService(application.NewRepository(db), notifier, users, s.log)
			n, err := svc.DispatchPending(ctx, batch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "delivered %d notifications\n", n)
			return nil
		}),
	}
	dispatch.Flags().Int64Var(&batch, "batch", 500, "maximum applications to sweep")

	outbox.AddCommand(dispatch)
	return outbox
}
