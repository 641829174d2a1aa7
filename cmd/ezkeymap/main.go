package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yok-tottii/EzKeymap/internal/api"
	"github.com/yok-tottii/EzKeymap/internal/cheatsheet"
	"github.com/yok-tottii/EzKeymap/internal/clipboard"
	"github.com/yok-tottii/EzKeymap/internal/config"
	"github.com/yok-tottii/EzKeymap/internal/i18n"
	"github.com/yok-tottii/EzKeymap/internal/logger"
	"github.com/yok-tottii/EzKeymap/internal/metrics"
	"github.com/yok-tottii/EzKeymap/internal/notification"
	"github.com/yok-tottii/EzKeymap/internal/server"
	"github.com/yok-tottii/EzKeymap/internal/storage"
	"github.com/yok-tottii/EzKeymap/internal/store"
	"github.com/yok-tottii/EzKeymap/internal/tray"
	"github.com/yok-tottii/EzKeymap/internal/wizard"
)

const version = "0.1.0"

// rootFlags are shared by every command
type rootFlags struct {
	configPath string
	headless   bool
	reseed     bool
	port       int
}

// App holds all application state
type App struct {
	logger     *logger.Logger
	config     *config.Config
	configPath string
	backend    storage.Backend
	store      *store.Store
	translator *i18n.Translator
	notifier   *notification.NotificationManager
	clipboard  *clipboard.Manager
	httpServer *server.Server
	trayMgr    *tray.Manager
}

func init() {
	// macOSのCGO呼び出しにはメインスレッドが必要
	runtime.LockOSThread()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree
func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:     "ezkeymap",
		Short:   "Keyboard shortcut manager",
		Version: version,
		Long: `
EzKeymap keeps track of keyboard shortcuts per application, warns about
conflicting key combinations and serves a local management UI.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(cmd.Context(), flags)
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file (default: ~/Library/Application Support/EzKeymap/config.json)")
	root.Flags().BoolVar(&flags.headless, "headless", false, "Run without the menu bar icon")
	root.Flags().IntVarP(&flags.port, "port", "p", -1, "HTTP port (0 = random)")
	root.Flags().BoolVar(&flags.reseed, "reseed", false, "Run the first-run setup again, adding the samples if the collection is empty")

	root.AddCommand(
		getExportCmd(flags),
		getImportCmd(flags),
		getCheckCmd(flags),
	)
	return root
}

// bootstrap loads the config and opens the store. The caller closes the
// returned App.
func bootstrap(ctx context.Context, flags *rootFlags) (*App, error) {
	app := &App{configPath: flags.configPath}
	if app.configPath == "" {
		app.configPath = config.GetConfigPath()
	}

	cfg, err := config.Load(app.configPath)
	if err != nil {
		return nil, fmt.Errorf("設定ファイルの読み込みに失敗: %w", err)
	}
	if flags.port >= 0 {
		cfg.Server.Port = flags.port
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定が不正です: %w", err)
	}
	app.config = cfg

	loggerConfig, err := cfg.LoggerConfig()
	if err != nil {
		return nil, err
	}
	app.logger, err = logger.New(loggerConfig)
	if err != nil {
		return nil, fmt.Errorf("ロガーの初期化に失敗: %w", err)
	}

	dir, err := cfg.StorageDir()
	if err != nil {
		app.Close()
		return nil, err
	}
	app.backend, err = storage.Open(cfg.Storage.Backend, dir)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("ストレージの初期化に失敗: %w", err)
	}
	app.logger.Info("ストレージ: %s (%s)", cfg.Storage.Backend, dir)

	app.translator = i18n.NewDefault(i18n.Language(cfg.GetUILanguage()))
	return app, nil
}

// openStore loads the shortcut collection
func (a *App) openStore(ctx context.Context, m *metrics.Metrics) error {
	var err error
	a.store, err = store.New(ctx, a.backend, store.WithLogger(a.logger), store.WithMetrics(m))
	if err != nil {
		return fmt.Errorf("ショートカットの読み込みに失敗: %w", err)
	}
	return nil
}

// runSetup runs the first-run setup next to the config file. With reseed
// the completion marker is removed first.
func (a *App) runSetup(ctx context.Context, reseed bool) (int, error) {
	setup, err := wizard.NewSetupWizard(filepath.Dir(a.configPath))
	if err != nil {
		return 0, err
	}
	if reseed {
		if err := setup.ResetSetup(); err != nil {
			return 0, err
		}
		a.logger.Info("セットアップをやり直します")
	}
	return setup.Run(ctx, a.store, a.config.SeedSamples)
}

// Close releases the backend and the log file
func (a *App) Close() {
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			a.logger.Error("ストレージのクローズに失敗: %v", err)
		}
	}
	a.logger.Close()
}

// runApp starts the HTTP server and blocks on the tray or a signal
func runApp(ctx context.Context, flags *rootFlags) error {
	app, err := bootstrap(ctx, flags)
	if err != nil {
		return err
	}
	defer app.Close()

	app.logger.Info("EzKeymap v%s 起動", version)

	m := metrics.New()
	if err := app.openStore(ctx, m); err != nil {
		return err
	}

	// 初回起動時のセットアップ
	if n, err := app.runSetup(ctx, flags.reseed); err != nil {
		app.logger.Warn("初回セットアップに失敗: %v", err)
	} else if n > 0 {
		app.logger.Info("サンプルショートカットを%d件登録しました", n)
	}

	app.notifier = notification.NewNotificationManager("EzKeymap", app.translator)
	app.clipboard = clipboard.NewManager()

	// HTTPサーバーの初期化
	serverConfig := server.DefaultConfig()
	serverConfig.Port = app.config.Server.Port
	serverConfig.Logger = app.logger
	app.httpServer = server.New(serverConfig)

	apiHandler := api.New(api.Deps{
		Store:             app.store,
		Backend:           app.backend,
		Config:            app.config,
		ConfigPath:        app.configPath,
		Translator:        app.translator,
		Logger:            app.logger,
		Headless:          flags.headless,
		OnSettingsChanged: app.onSettingsChanged,
		OnStorageFailure:  app.onStorageFailure,
	})

	// APIルートを登録
	apiHandler.RegisterRoutes(app.httpServer.Router())
	app.httpServer.Router().Mount("/metrics", m.Handler())

	if err := app.httpServer.Start(); err != nil {
		return fmt.Errorf("HTTPサーバーの起動に失敗: %w", err)
	}
	defer app.httpServer.Stop()

	url := app.httpServer.URL()
	app.logger.Info("管理画面: %s", url)
	if err := app.notifier.Started(url); err != nil {
		app.logger.Debug("通知の送信に失敗: %v", err)
	}

	if app.config.OpenBrowser {
		app.openManager()
	}

	if flags.headless {
		fmt.Println(url)
		waitForSignal()
		app.logger.Info("シグナルを受信しました。終了します")
		return nil
	}

	// システムトレイマネージャーの作成
	app.trayMgr = tray.NewManager(tray.Config{
		Translator:       app.translator,
		OnOpenManager:    app.openManager,
		OnCopyCheatSheet: app.copyCheatSheet,
		OnQuit:           app.handleQuit,
	})

	go func() {
		waitForSignal()
		app.trayMgr.Quit()
	}()

	// systray.Run()を呼び出し - これはブロッキング呼び出し
	app.trayMgr.Run()
	app.logger.Info("アプリケーション終了")
	return nil
}

// waitForSignal blocks until SIGINT or SIGTERM
func waitForSignal() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	signal.Stop(sigCh)
}

// openManager opens the management UI in the default browser
func (a *App) openManager() {
	url := a.httpServer.URL()
	if err := exec.Command("open", url).Start(); err != nil {
		a.logger.Error("ブラウザの起動に失敗: %v", err)
	}
}

// copyCheatSheet copies the collection as a text table
func (a *App) copyCheatSheet() {
	headers := cheatsheet.Headers{
		Application: a.translator.Translate("cheatsheet.application"),
		Shortcut:    a.translator.Translate("cheatsheet.shortcut"),
		Description: a.translator.Translate("cheatsheet.description"),
	}

	if err := a.clipboard.CopyCheatSheet(a.store.All(), headers); err != nil {
		a.logger.Error("チートシートのコピーに失敗: %v", err)
		a.notifier.ClipboardFailed(err.Error())
		return
	}
	a.logger.Info("チートシートをコピーしました (%d件)", a.store.Len())
	a.notifier.CheatSheetCopied()
}

// onSettingsChanged applies settings that take effect without a restart
func (a *App) onSettingsChanged(cfg *config.Config) {
	lang := i18n.Language(cfg.GetUILanguage())
	if a.trayMgr != nil {
		a.trayMgr.SetLanguage(lang)
	}

	if lc, err := cfg.LoggerConfig(); err == nil {
		a.logger.SetLevel(lc.Level)
	}
}

// onStorageFailure tells the user a change was not saved
func (a *App) onStorageFailure(reason string) {
	if err := a.notifier.SaveFailed(reason); err != nil {
		a.logger.Debug("通知の送信に失敗: %v", err)
	}
}

// handleQuit is called from the tray menu
func (a *App) handleQuit() {
	a.logger.Info("終了メニューが選択されました")
	if err := a.httpServer.Stop(); err != nil {
		a.logger.Error("HTTPサーバーの停止に失敗: %v", err)
	}
	a.trayMgr.Quit()
}
