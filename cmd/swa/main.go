package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"swa/internal/cli"
	"swa/internal/commands/auth"
	"swa/internal/commands/fetch"
	"swa/internal/config"
	"swa/internal/logging"
	"swa/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "swa",
	Short: "swa manages your flashcard session from the terminal.",
	Long:  `swa manages your flashcard session from the terminal. It keeps the session token and cookies for one origin and can end the session at any time.`,
}

var logoutCmdFlags auth.LogoutFlags
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Logout from swa.",
	Long:  `Logout from swa. This command removes the local session token, clears the session cookies and returns to the start page. With --expired the token is replaced by an expiry marker.`,
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd.Context(), func(ctx context.Context, env *cli.Env) error {
			label := "Logging out..."
			if logoutCmdFlags.Expired {
				label = "Expiring session..."
			}
			return cli.Progress(ctx, os.Stderr, label, func(ctx context.Context) error {
				return auth.Logout(ctx, env.Client, logoutCmdFlags, os.Stdout)
			})
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the local session state.",
	Long:  `Show the local session state. This command prints whether a live, expired or no session token is stored for the configured origin.`,
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd.Context(), func(ctx context.Context, env *cli.Env) error {
			return auth.Status(ctx, env.Client, os.Stdout)
		})
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the stored session token.",
}

var tokenSetCmd = &cobra.Command{
	Use:   "set [token]",
	Short: "Store a session token.",
	Long:  `Store a session token. The token is issued by the identity provider and kept as the live session record.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd.Context(), func(ctx context.Context, env *cli.Env) error {
			return auth.SetToken(ctx, env.Client, args[0], os.Stdout)
		})
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [path]",
	Short: "Fetch a page with the stored session.",
	Long:  `Fetch a page with the stored session. An unauthorized answer ends the session as expired.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd.Context(), func(ctx context.Context, env *cli.Env) error {
			return fetch.Run(ctx, env.Client, args[0], os.Stdout)
		})
	},
}

var servePort int
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the swa web server.",
	Long:  `Start the swa web server. It serves the start page, the logout endpoint and metrics.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			zap.NewExample().Fatal("load config", zap.Error(err))
		}
		if servePort != 0 {
			cfg.Port = servePort
		}
		log := logging.New(cfg.Debug)
		defer log.Sync()
		if err := server.Serve(cmd.Context(), cfg, log); err != nil {
			log.Fatal("server stopped", zap.Error(err))
		}
	},
}

// run opens the command environment and exits non-zero when fn fails.
func run(ctx context.Context, fn func(context.Context, *cli.Env) error) {
	env, err := cli.Open(ctx)
	if err != nil {
		zap.NewExample().Fatal("open", zap.Error(err))
	}
	err = fn(ctx, env)
	env.Close(ctx)
	if err != nil {
		env.Log.Fatal("command failed", zap.Error(err))
	}
}

func main() {
	tokenCmd.AddCommand(tokenSetCmd)
	rootCmd.AddCommand(logoutCmd, statusCmd, tokenCmd, fetchCmd, serveCmd)

	logoutCmd.Flags().BoolVar(
		&logoutCmdFlags.Expired, "expired", false, "Leave an expiry marker instead of removing the token",
	)
	serveCmd.Flags().IntVarP(
		&servePort, "port", "p", 0, "Port to listen on, overrides PORT",
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
