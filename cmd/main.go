package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"igdb_mirror_v1_202610/internal/config"
	"igdb_mirror_v1_202610/internal/middleware"
	"igdb_mirror_v1_202610/internal/model"
	"igdb_mirror_v1_202610/internal/service"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "igdb-mirror",
	Short: "Mirror the IGDB game catalog into a local database",
	Long: `igdb-mirror keeps a local copy of the IGDB catalog (platforms, companies,
genres, covers, artworks, ...) in sync with the upstream API.

Configuration is read from an optional YAML file and from environment
variables such as IGDB_CLIENT_ID, IGDB_CLIENT_SECRET and DATABASE_DSN.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the scheduled sync tasks",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var syncCmd = &cobra.Command{
	Use:   "sync <kind|all>",
	Short: "Synchronize one entity kind, or all kinds in dependency order",
	Args:  cobra.ExactArgs(1),
	RunE:  runSync,
}

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List entity kinds with local record counts",
	Args:  cobra.NoArgs,
	RunE:  runKinds,
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recent sync runs",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Inspect the upstream access token",
}

var tokenRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Exchange client credentials for a new access token and show its expiry",
	Args:  cobra.NoArgs,
	RunE:  runTokenRefresh,
}

var adminTokenCmd = &cobra.Command{
	Use:   "admin-token",
	Short: "Issue a bearer token for the admin sync API",
	Args:  cobra.NoArgs,
	RunE:  runAdminToken,
}

var (
	syncPlatformID int64
	syncFull       bool
	runsKind       string
	runsLimit      int
	adminSubject   string
	adminTTL       time.Duration
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to a YAML config file")

	syncCmd.Flags().Int64Var(&syncPlatformID, "platform", 0, "restrict the sync to one local platform id")
	syncCmd.Flags().BoolVar(&syncFull, "full", false, "ignore the incremental watermark and refetch everything")

	runsCmd.Flags().StringVar(&runsKind, "kind", "", "filter by kind")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "number of runs to show")

	adminTokenCmd.Flags().StringVar(&adminSubject, "subject", "admin", "subject recorded as the sync trigger")
	adminTokenCmd.Flags().DurationVar(&adminTTL, "ttl", 0, "token lifetime (default 12h)")

	tokenCmd.AddCommand(tokenRefreshCmd)
	rootCmd.AddCommand(serveCmd, syncCmd, kindsCmd, runsCmd, tokenCmd, adminTokenCmd)
}

// ==================== serve ====================

func runServe(cmd *cobra.Command, args []string) error {
	app, err := buildApp(cfgPath)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Tasks.Start(); err != nil {
		return err
	}
	defer app.Tasks.Stop()

	srv := &http.Server{
		Addr:    ":" + app.Config.Server.Port,
		Handler: app.Router(),
	}

	// 异步启动服务
	serveErr := make(chan error, 1)
	go func() {
		zap.S().Infof("[Server] 服务启动在 :%s", app.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("服务启动失败: %w", err)
		}
	}

	zap.S().Info("[Server] 正在关闭服务...")
	ctx, cancel := context.WithTimeout(context.Background(), app.Config.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("服务强制关闭: %w", err)
	}

	zap.S().Info("[Server] 服务已退出")
	return nil
}

// ==================== sync ====================

func runSync(cmd *cobra.Command, args []string) error {
	app, err := buildApp(cfgPath)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = middleware.WithActor(ctx, "cli")

	opts := service.SyncOptions{Full: syncFull}
	if syncPlatformID > 0 {
		opts.PlatformID = &syncPlatformID
	}

	if args[0] == "all" {
		results, err := app.Sync.SyncAll(ctx, opts)
		printJSON(cmd, results)
		return err
	}

	result, err := app.Sync.Sync(ctx, model.Kind(args[0]), opts)
	if result != nil {
		printJSON(cmd, result)
	}
	return err
}

// ==================== kinds / runs ====================

func runKinds(cmd *cobra.Command, args []string) error {
	app, err := buildApp(cfgPath)
	if err != nil {
		return err
	}
	defer app.Close()

	kinds, err := app.Sync.Kinds(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tMODE\tINCREMENTAL\tSCOPED\tCOUNT\tLAST SUCCESS")
	for _, k := range kinds {
		last := "-"
		if k.LastSuccess != nil {
			last = k.LastSuccess.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\t%v\t%v\t%d\t%s\n", k.Kind, k.Mode, k.Incremental, k.ScopeAware, k.Count, last)
	}
	return w.Flush()
}

func runRuns(cmd *cobra.Command, args []string) error {
	app, err := buildApp(cfgPath)
	if err != nil {
		return err
	}
	defer app.Close()

	runs, err := app.Sync.Runs(cmd.Context(), model.Kind(runsKind), runsLimit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tKIND\tSTATUS\tNEW\tUPDATED\tUNCHANGED\tFAILED\tSTARTED\tBY")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			r.RunID, r.Kind, r.Status, r.Created, r.Updated, r.Unchanged, r.Failed,
			r.StartedAt.Format(time.RFC3339), r.TriggeredBy)
	}
	return w.Flush()
}

// ==================== token ====================

func runTokenRefresh(cmd *cobra.Command, args []string) error {
	app, err := buildApp(cfgPath)
	if err != nil {
		return err
	}
	defer app.Close()

	if _, err := app.Tokens.Refresh(cmd.Context()); err != nil {
		return err
	}
	printJSON(cmd, app.Tokens.Inspect())
	return nil
}

// runAdminToken 只需要配置，不连接数据库
func runAdminToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	middleware.SetJWTConfig(&middleware.JWTConfig{
		SecretKey:      cfg.Auth.JWTSecret,
		AccessTokenTTL: middleware.DefaultJWTConfig().AccessTokenTTL,
		Issuer:         cfg.Auth.Issuer,
	})

	token, err := middleware.GenerateAdminToken(adminSubject, adminTTL)
	if err != nil {
		return fmt.Errorf("签发失败 (检查 AUTH_JWT_SECRET): %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

// ==================== 工具函数 ====================

func printJSON(cmd *cobra.Command, v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "encode output: %v\n", err)
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
}
