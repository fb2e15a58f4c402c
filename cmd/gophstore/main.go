package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/server"
	"github.com/dmitrijs2005/gophstore/internal/server/config"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
	"github.com/spf13/cobra"
)

var (
	configPath string
	dsn        string
	actingAs   string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newApp loads the config, applies command line overrides and connects.
// The caller must defer app.Close().
func newApp(ctx context.Context) (*server.App, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if dsn != "" {
		cfg.DatabaseDSN = dsn
	}

	a, err := server.NewApp(ctx, cfg, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// actor resolves --as to an existing user.
func actor(ctx context.Context, a *server.App) (*models.User, error) {
	if actingAs == "" {
		return nil, fmt.Errorf("%w: --as is required", common.ErrorUnauthorized)
	}
	u, err := a.Users.GetUserByEmail(ctx, actingAs)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("%w: unknown user %s", common.ErrorUnauthorized, actingAs)
	}
	return u, err
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", common.ErrorValidation, s)
	}
	return id, nil
}

// collectionFlag returns the --collection value, nil meaning the root scope.
func collectionFlag(cmd *cobra.Command) *int64 {
	if !cmd.Flags().Changed("collection") {
		return nil
	}
	id, _ := cmd.Flags().GetInt64("collection")
	return &id
}

// optionalString returns a pointer to the flag value when it was given.
func optionalString(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

var rootCmd = &cobra.Command{
	Use:          "gophstore",
	Short:        "Content-addressed key/value store",
	SilenceUsage: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Migrate(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a JSON config file")
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "PostgreSQL DSN, overrides the config")
	rootCmd.PersistentFlags().StringVar(&actingAs, "as", "", "Email of the acting user")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(collectionCmd)
	rootCmd.AddCommand(entryCmd)
	rootCmd.AddCommand(accessCmd)
	rootCmd.AddCommand(publicCmd)
}
