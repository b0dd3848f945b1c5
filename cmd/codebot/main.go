package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/MrPunder/codeform/internal/config"
	"github.com/MrPunder/codeform/internal/export"
	"github.com/MrPunder/codeform/internal/logger"
	"github.com/MrPunder/codeform/internal/render"
	"github.com/MrPunder/codeform/internal/telegrambot"
)

func main() {
	// Парсим флаги командной строки
	var (
		configPath string
		token      string
	)

	flag.StringVar(&configPath, "c", "", "config path")
	flag.StringVar(&token, "token", "", "telegram bot token")
	flag.Parse()

	conf, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	zapLogger, err := logger.NewZapLogger(conf.Log)
	if err != nil {
		log.Fatalf("Ошибка инициализации логгера: %v", err)
	}
	zapLogger.Info("Инициализирован логгер")

	// Флаг имеет приоритет над конфигурацией
	if token == "" {
		token = conf.Telegram.Token
	}
	if token == "" {
		zapLogger.Error("Не указан токен бота. Используйте флаг -token или CODEFORM_TELEGRAM_TOKEN")
		os.Exit(1)
	}

	var logoOpts []render.LogoOption
	if conf.Logo.AllowPrivateNetworks {
		logoOpts = append(logoOpts, render.WithPrivateNetworks())
	}
	renderer := render.NewRenderer(
		render.NewLogoLoader(conf.Logo.FetchTimeout, conf.Logo.MaxUploadBytes, zapLogger, logoOpts...),
		export.NewObjectURLs(),
		zapLogger,
	)

	bot, err := telegrambot.NewCodeBot(telegrambot.Config{Token: token}, renderer, export.NewExporter(zapLogger), zapLogger)
	if err != nil {
		zapLogger.Errorf("Ошибка создания бота: %v", err)
		os.Exit(1)
	}

	if err := bot.Start(); err != nil {
		zapLogger.Errorf("Ошибка запуска бота: %v", err)
		os.Exit(1)
	}
	zapLogger.Info("Бот запущен")

	// Ожидаем сигнала завершения
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	zapLogger.Info("Получен сигнал завершения")
	if err := bot.Stop(); err != nil {
		zapLogger.Errorf("Ошибка остановки бота: %v", err)
	}

	if err := zapLogger.Close(); err != nil {
		log.Printf("Ошибка закрытия логгера: %v", err)
	}
}
