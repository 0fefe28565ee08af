package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/notegraph/internal/profile"
	"github.com/hrygo/notegraph/internal/version"
	"github.com/hrygo/notegraph/server"
	"github.com/hrygo/notegraph/store"
	"github.com/hrygo/notegraph/store/cache"
	"github.com/hrygo/notegraph/store/db"
)

var (
	rootCmd = &cobra.Command{
		Use:   "notegraph",
		Short: `Groups related notes into clusters and serves their display colors.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			instanceProfile, err := loadProfile()
			if err != nil {
				return err
			}
			setupLogger(cmd.ErrOrStderr(), instanceProfile)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			storeInstance, err := openStore(ctx, instanceProfile)
			if err != nil {
				return err
			}

			s, err := server.NewServer(ctx, instanceProfile, storeInstance)
			if err != nil {
				_ = storeInstance.Close()
				return errors.Wrap(err, "failed to create server")
			}

			c := make(chan os.Signal, 1)
			// Trigger graceful shutdown on SIGINT or SIGTERM.
			// The default signal sent by the `kill` command is SIGTERM,
			// which is taken as the graceful shutdown signal for many systems, eg., Kubernetes, Gunicorn.
			signal.Notify(c, os.Interrupt, syscall.SIGTERM)

			if err := s.Start(ctx); err != nil {
				if !errors.Is(err, http.ErrServerClosed) {
					_ = storeInstance.Close()
					return errors.Wrap(err, "failed to start server")
				}
			}

			printGreetings(cmd, instanceProfile)

			go func() {
				<-c
				s.Shutdown(ctx)
				cancel()
			}()

			// Wait for CTRL-C.
			<-ctx.Done()
			return nil
		},
	}

	clustersCmd = &cobra.Command{
		Use:   "clusters",
		Short: "Print the note clusters of a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := cmd.Flags().GetInt32("user")
			if err != nil {
				return err
			}
			filterExpr, err := cmd.Flags().GetString("filter")
			if err != nil {
				return err
			}

			instanceProfile, err := loadProfile()
			if err != nil {
				return err
			}
			setupLogger(cmd.ErrOrStderr(), instanceProfile)

			ctx := cmd.Context()
			storeInstance, err := openStore(ctx, instanceProfile)
			if err != nil {
				return err
			}
			defer storeInstance.Close()

			return printClusters(ctx, cmd.OutOrStdout(), storeInstance, userID, filterExpr)
		},
	}

	tokenCmd = &cobra.Command{
		Use:   "token",
		Short: "Mint an access token for a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := cmd.Flags().GetInt32("user")
			if err != nil {
				return err
			}
			ttl, err := cmd.Flags().GetDuration("ttl")
			if err != nil {
				return err
			}

			instanceProfile, err := loadProfile()
			if err != nil {
				return err
			}
			return printToken(cmd.OutOrStdout(), instanceProfile, userID, ttl)
		},
	}
)

func init() {
	viper.SetDefault("mode", "demo")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 8081)

	rootCmd.PersistentFlags().String("mode", "demo", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 8081, "port of server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver")
	rootCmd.PersistentFlags().String("dsn", "", "database source name(aka. DSN)")
	rootCmd.PersistentFlags().String("instance-url", "", "the url of your notegraph instance")
	rootCmd.PersistentFlags().String("secret", "", "secret used to sign access tokens")

	for _, key := range []string{"mode", "addr", "port", "data", "driver", "dsn", "instance-url", "secret"} {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(key)); err != nil {
			panic(err)
		}
	}

	clustersCmd.Flags().Int32("user", 0, "user id whose clusters are printed")
	clustersCmd.Flags().String("filter", "", "CEL expression selecting the relations to cluster")
	_ = clustersCmd.MarkFlagRequired("user")

	tokenCmd.Flags().Int32("user", 0, "user id the token is issued for")
	tokenCmd.Flags().Duration("ttl", 0, "token lifetime (default 7 days)")
	_ = tokenCmd.MarkFlagRequired("user")

	rootCmd.AddCommand(clustersCmd, tokenCmd)

	viper.SetEnvPrefix("notegraph")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
}

func loadProfile() (*profile.Profile, error) {
	instanceProfile := &profile.Profile{
		Mode:        viper.GetString("mode"),
		Addr:        viper.GetString("addr"),
		Port:        viper.GetInt("port"),
		Data:        viper.GetString("data"),
		Driver:      viper.GetString("driver"),
		DSN:         viper.GetString("dsn"),
		InstanceURL: viper.GetString("instance-url"),
		Secret:      viper.GetString("secret"),
	}
	instanceProfile.FromEnv()
	if err := instanceProfile.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid profile")
	}
	instanceProfile.Version = version.GetCurrentVersion(instanceProfile.Mode)
	return instanceProfile, nil
}

func setupLogger(w io.Writer, instanceProfile *profile.Profile) {
	level := slog.LevelInfo
	if instanceProfile.IsDev() {
		level = slog.LevelDebug
	}
	var handler slog.Handler
	if instanceProfile.Mode == "prod" {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))
}

// openStore connects the database, the optional Redis L2 cache, and migrates the schema.
func openStore(ctx context.Context, instanceProfile *profile.Profile) (*store.Store, error) {
	dbDriver, err := db.NewDBDriver(instanceProfile)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}

	var l2 cache.RedisCacheInterface
	if instanceProfile.IsRedisEnabled() {
		redisConfig := cache.DefaultRedisConfig()
		redisConfig.Addr = instanceProfile.RedisAddr
		redisConfig.Password = instanceProfile.RedisPassword
		redisConfig.DB = instanceProfile.RedisDB
		redisConfig.KeyPrefix = instanceProfile.RedisPrefix
		redisConfig.DefaultTTL = instanceProfile.RelationCacheTTL

		redisCache, err := cache.NewRedisCache(redisConfig)
		if err != nil {
			// The memory cache still serves a single instance.
			slog.Warn("redis unavailable, continuing without L2 cache", slog.String("error", err.Error()))
		} else {
			l2 = redisCache
		}
	}

	storeInstance := store.New(dbDriver, instanceProfile, l2)
	if err := storeInstance.Migrate(ctx); err != nil {
		_ = storeInstance.Close()
		return nil, errors.Wrap(err, "failed to migrate")
	}
	return storeInstance, nil
}

func printGreetings(cmd *cobra.Command, instanceProfile *profile.Profile) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "notegraph %s started successfully!\n", instanceProfile.Version)
	fmt.Fprintf(out, "Data directory: %s\n", instanceProfile.Data)
	fmt.Fprintf(out, "Database driver: %s\n", instanceProfile.Driver)
	fmt.Fprintf(out, "Mode: %s\n", instanceProfile.Mode)

	if len(instanceProfile.Addr) == 0 {
		fmt.Fprintf(out, "Server running on port %d\n", instanceProfile.Port)
		fmt.Fprintf(out, "Accessing from: http://localhost:%d\n", instanceProfile.Port)
	} else {
		fmt.Fprintf(out, "Server running on %s:%d\n", instanceProfile.Addr, instanceProfile.Port)
		fmt.Fprintf(out, "Accessing from: http://%s:%d\n", instanceProfile.Addr, instanceProfile.Port)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
