package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"openchat/internal/config"
	"openchat/internal/identity"
	"openchat/internal/utils"
)

var (
	verbose      bool
	serverURL    string
	identityFile string
	timeout      time.Duration

	logger    *zap.Logger
	clientCfg config.ClientConfig
	store     *identity.Store
)

var rootCmd = &cobra.Command{
	Use:   "chatctl",
	Short: "Command line client for openchat",
	Long: `chatctl reads and writes the openchat group transcript.

Register or log in once; the identity is kept in a local file and reused
by every other command.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := zapcore.WarnLevel
		if verbose {
			level = zapcore.DebugLevel
		}
		logCfg := zap.NewDevelopmentConfig()
		logCfg.Level = zap.NewAtomicLevelAt(level)
		logCfg.OutputPaths = []string{"stderr"}
		l, err := logCfg.Build()
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		logger = l

		utils.LoadEnv(logger)
		clientCfg = config.LoadClientConfig()
		if serverURL != "" {
			clientCfg.ServerURL = serverURL
		}
		if identityFile != "" {
			clientCfg.IdentityFile = identityFile
		}
		if timeout > 0 {
			clientCfg.RequestTimeout = timeout
		}
		store = identity.NewStore(clientCfg.IdentityFile)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging on stderr")
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "", "Server URL (or set CHAT_SERVER_URL)")
	rootCmd.PersistentFlags().StringVar(&identityFile, "identity", "", "Identity file (or set CHAT_IDENTITY_FILE)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Request timeout (or set CHAT_REQUEST_TIMEOUT)")

	rootCmd.AddCommand(registerCmd, loginCmd, whoamiCmd, logoutCmd, membersCmd)
	rootCmd.AddCommand(tailCmd, sendCmd, deleteCmd, reactCmd, reactionsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
