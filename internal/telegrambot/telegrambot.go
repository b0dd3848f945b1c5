// Package telegrambot отдает QR-коды и штрихкоды в чат Telegram.
package telegrambot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MrPunder/codeform/internal/export"
	"github.com/MrPunder/codeform/internal/form"
	"github.com/MrPunder/codeform/internal/logger"
	"github.com/MrPunder/codeform/internal/models"
	"github.com/MrPunder/codeform/internal/render"
	tele "gopkg.in/telebot.v3"
)

var (
	ErrEmptyPayload = errors.New("нет текста для кодирования")
	ErrBadOption    = errors.New("неверный параметр")
)

const helpText = `Я рисую QR-коды и штрихкоды.

/qr [size=200] [fg=#000000] [bg=#ffffff] [corner=round] [logo=https://...] текст
/barcode [CODE128|EAN13|UPC|CODE39] [fg=..] [bg=..] текст`

// Config представляет конфигурацию Telegram-бота
type Config struct {
	Token   string
	Timeout time.Duration
}

// Bot представляет интерфейс для Telegram-бота
type Bot interface {
	Start() error
	Stop() error
}

// CodeBot отвечает на команды документом PNG
type CodeBot struct {
	bot      *tele.Bot
	renderer *render.Renderer
	exporter *export.Exporter
	logger   logger.Logger
	timeout  time.Duration
}

// NewCodeBot создает бота с long polling
func NewCodeBot(config Config, renderer *render.Renderer, exporter *export.Exporter, logger logger.Logger) (*CodeBot, error) {
	pref := tele.Settings{
		Token:  config.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	bot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания бота: %w", err)
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	return &CodeBot{
		bot:      bot,
		renderer: renderer,
		exporter: exporter,
		logger:   logger,
		timeout:  timeout,
	}, nil
}

// Start регистрирует команды и запускает опрос в отдельной горутине
func (cb *CodeBot) Start() error {
	cb.logger.Info("Запуск бота")

	cb.bot.Handle("/start", cb.handleHelp)
	cb.bot.Handle("/help", cb.handleHelp)
	cb.bot.Handle("/qr", cb.handleQR)
	cb.bot.Handle("/barcode", cb.handleBarcode)

	go cb.bot.Start()
	return nil
}

func (cb *CodeBot) Stop() error {
	cb.logger.Info("Остановка бота")
	cb.bot.Stop()
	return nil
}

func (cb *CodeBot) handleHelp(c tele.Context) error {
	return c.Send(helpText)
}

func (cb *CodeBot) handleQR(c tele.Context) error {
	patch, err := ParseQRCommand(c.Message().Payload)
	if err != nil {
		return c.Send(fmt.Sprintf("%v\n\n%s", err, helpText))
	}
	return cb.reply(c, patch)
}

func (cb *CodeBot) handleBarcode(c tele.Context) error {
	patch, err := ParseBarcodeCommand(c.Message().Payload)
	if err != nil {
		return c.Send(fmt.Sprintf("%v\n\n%s", err, helpText))
	}
	return cb.reply(c, patch)
}

func (cb *CodeBot) reply(c tele.Context, patch form.Patch) error {
	ctx, cancel := context.WithTimeout(context.Background(), cb.timeout)
	defer cancel()

	cb.logger.Infof("Пользователь %d запросил код", c.Sender().ID)
	if err := cb.Export(ctx, patch, ChatTarget{Ctx: c}); err != nil {
		cb.logger.Errorf("Ошибка выгрузки кода: %v", err)
		return c.Send("Не удалось нарисовать код для этого текста.")
	}
	return nil
}

// Export рисует код по patch и выгружает PNG в target
func (cb *CodeBot) Export(ctx context.Context, patch form.Patch, target export.LinkActivator) error {
	surface, _, err := form.Render(ctx, cb.renderer, cb.logger, patch)
	if err != nil {
		return err
	}
	return cb.exporter.Download(ctx, surface, target)
}

// ChatTarget отправляет ссылку на выгрузку в чат документом
type ChatTarget struct {
	Ctx tele.Context
}

func (t ChatTarget) Activate(_ context.Context, link export.Link) error {
	doc := &tele.Document{
		File:     tele.FromReader(bytes.NewReader(link.Data)),
		FileName: link.Filename,
		MIME:     link.ContentType,
	}
	return t.Ctx.Send(doc)
}

// ParseQRCommand разбирает "/qr [ключ=значение ...] текст"
func ParseQRCommand(payload string) (form.Patch, error) {
	kind := string(models.KindQR)
	patch := form.Patch{Kind: &kind}

	text, err := parseOptions(payload, &patch)
	if err != nil {
		return patch, err
	}
	patch.Payload = &text
	return patch, nil
}

// ParseBarcodeCommand разбирает "/barcode [ФОРМАТ] [ключ=значение ...] текст".
// Без формата используется CODE128.
func ParseBarcodeCommand(payload string) (form.Patch, error) {
	kind := string(models.KindBarcode)
	patch := form.Patch{Kind: &kind}

	fields := strings.Fields(payload)
	if len(fields) > 0 {
		if format, err := models.ParseBarcodeFormat(fields[0]); err == nil {
			f := string(format)
			patch.Format = &f
			payload = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(payload), fields[0]))
		}
	}

	text, err := parseOptions(payload, &patch)
	if err != nil {
		return patch, err
	}
	patch.Payload = &text
	return patch, nil
}

// parseOptions снимает ведущие ключ=значение и возвращает оставшийся текст
func parseOptions(payload string, patch *form.Patch) (string, error) {
	rest := strings.TrimSpace(payload)
	for rest != "" {
		token, tail, _ := strings.Cut(rest, " ")
		key, value, ok := strings.Cut(token, "=")
		if !ok || !knownOption(key) {
			break
		}
		if err := setOption(patch, key, value); err != nil {
			return "", err
		}
		rest = strings.TrimSpace(tail)
	}
	if rest == "" {
		return "", ErrEmptyPayload
	}
	return rest, nil
}

func knownOption(key string) bool {
	switch key {
	case "size", "fg", "bg", "corner", "logo", "logo_size":
		return true
	}
	return false
}

func setOption(patch *form.Patch, key, value string) error {
	switch key {
	case "size", "logo_size":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w %s=%s", ErrBadOption, key, value)
		}
		if key == "size" {
			patch.Size = &n
		} else {
			patch.LogoSizePercent = &n
		}
	case "fg":
		patch.Foreground = &value
	case "bg":
		patch.Background = &value
	case "corner":
		patch.CornerStyle = &value
	case "logo":
		include := true
		patch.LogoURL = &value
		patch.IncludeLogo = &include
	}
	return nil
}
