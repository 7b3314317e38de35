package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hoverpad/hoverpad/internal/config"
	"github.com/hoverpad/hoverpad/internal/logger"
	"github.com/hoverpad/hoverpad/internal/pad"
	"github.com/hoverpad/hoverpad/internal/secrets"
	"github.com/hoverpad/hoverpad/internal/session"
	"github.com/hoverpad/hoverpad/internal/storage"
	"github.com/spf13/cobra"
)

var (
	cfg          *config.Config
	log          *logger.Logger
	localStore   *storage.LocalStorage
	sessionStore *storage.SessionFileStorage
	dynamoStore  *storage.DynamoDBStorage
	sessionMgr   *session.Manager
	padService   *pad.Service
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hoverpad",
	Short: "A single encrypted note",
	Long: `hoverpad keeps one note encrypted with a passphrase.
The passphrase is held in a sealed session file and forgotten after the
configured idle timeout. Only encrypted envelopes are ever written to the pad
file or synced to DynamoDB.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if sessionMgr != nil {
			sessionMgr.Close()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	var err error
	cfg, err = config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	log = logger.NewFileLogger("cli", cfg.LogPath).SetLevel(cfg.LogLevel)
	cmd.SetContext(log.WithContext(ctx))

	localStore = storage.NewLocalStorage(cfg.PadPath)
	sessionStore = storage.NewSessionFileStorage(cfg.SessionPath, sealingKeySource(ctx))

	sessionMgr = session.NewManager(sessionStore,
		session.WithLogger(log.GetChildLogger()),
		session.WithDefaultLockAfter(cfg.LockAfter()),
	)

	var remote pad.Remote
	if cfg.Sync() {
		ds, err := storage.NewDynamoDBStorage(ctx, cfg.AWSRegion, cfg.TableName, cfg.UserID)
		if err != nil {
			// Sync stays off; local commands keep working.
			warn("DynamoDB not available: %v", err)
			log.Warn().Err(err).Msg("dynamodb unavailable")
		} else {
			dynamoStore = ds
			remote = ds
		}
	}

	padService = pad.NewService(localStore, sessionMgr, remote, log.GetChildLogger())
	return nil
}

// sealingKeySource picks Secrets Manager when a secret is configured and
// reachable, the machine-derived key otherwise.
func sealingKeySource(ctx context.Context) storage.KeySource {
	if cfg.SessionSecretName == "" {
		return storage.NewMachineKeySource()
	}

	smc, err := secrets.NewSecretsManagerClient(ctx, cfg.SessionSecretName, cfg.AWSRegion)
	if err != nil || !smc.IsAvailable(ctx) {
		log.Warn().Err(err).Str("secret", cfg.SessionSecretName).Msg("secrets manager unavailable, using machine key")
		return storage.NewMachineKeySource()
	}
	return smc
}
