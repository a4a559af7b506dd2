// Command skckctl performs operator tasks against the portal database:
// role changes, NIK reference imports and manual outbox sweeps.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"SKCKPortal/internal/bootstrap"
	"SKCKPortal/internal/config"
	"SKCKPortal/internal/logger"
)

// session is what every subcommand needs: configuration, a logger and an
// open database.
type session struct {
	cfg   *config.Config
	log   *zap.Logger
	mongo *config.MongoDBClient
}

func open(ctx context.Context) (*session, error) {
	if err := bootstrap.Loadenv(); err != nil {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Logging.Level, "console")
	if err != nil {
		return nil, err
	}
	client, err := config.ConnectMongo(ctx, cfg.Mongo)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, log: log, mongo: client}, nil
}

func (s *session) close() {
	_ = s.mongo.Client.Disconnect(context.Background())
	_ = s.log.Sync()
}

// withSession adapts a session-aware function to cobra's RunE.
func withSession(fn func(ctx context.Context, s *session, cmd *cobra.Command) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		s, err := open(ctx)
		if err != nil {
			return err
		}
		defer s.close()
		return fn(ctx, s, cmd)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "skckctl",
		Short:         "Operator tools for the SKCK portal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRoleCmd(), newNIKCmd(), newOutboxCmd())
	return root
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
