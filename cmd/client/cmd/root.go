package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"

	"cardkeeper/cmd/client/cmd/types"
	"cardkeeper/cmd/client/cmd/ui"
	"cardkeeper/internal/app/client"
	"cardkeeper/internal/app/client/config"
	"cardkeeper/internal/utils/logger"
)

var (
	cfgFile    string
	debug      bool
	jsonOutput bool
	serverURL  string
	localStore string
)

var rootCmd = &cobra.Command{
	Use:   "cardkeeper",
	Short: "Cardkeeper - каталог визиток ресторанов, отелей и впечатлений",
	Long: `Cardkeeper хранит визитки заведений: контакты, теги, рейтинг, координаты.

Без адреса сервера данные живут только на этом устройстве (sqlite, badger
или память). Если задан SERVER_ADDRESS или --server, клиент работает
с сервером cardkeeper и видит карточки сообщества.`,
	PersistentPreRunE:  setupApp,
	PersistentPostRunE: closeApp,
	SilenceUsage:       true,
	SilenceErrors:      true,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		msg := client.Humanize(err)
		if msg == client.FallbackMessage {
			// ошибки ввода и флагов cobra показываем как есть
			msg = err.Error()
		}
		ui.NewPrinter(false).Error(msg)
		slog.Default().Debug("command failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func setupApp(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	// флаги командной строки важнее окружения
	if serverURL != "" {
		cfg.ServerAddress = serverURL
	}
	if localStore != "" {
		cfg.LocalStore = localStore
	}
	if debug {
		cfg.Env = logger.EnvLocal
	}

	var log *slog.Logger
	if debug {
		log = logger.New(cfg.Env)
	} else {
		log = logger.NewQuiet(cfg.Env)
	}
	slog.SetDefault(log)

	app, err := client.New(cmd.Context(), cfg, log)
	if err != nil {
		return fmt.Errorf("ошибка инициализации приложения: %w", err)
	}

	cmd.SetContext(context.WithValue(cmd.Context(), types.ClientAppKey, app))
	return nil
}

func closeApp(cmd *cobra.Command, _ []string) error {
	app, err := types.App(cmd)
	if err != nil {
		return nil
	}
	return app.Close()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "конфигурационный файл (yaml, json, toml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "включить отладочный вывод")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "вывод в формате JSON")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "адрес сервера cardkeeper (включает облачный режим)")
	rootCmd.PersistentFlags().StringVar(&localStore, "store", "", "локальное хранилище: sqlite, badger или memory")
}
