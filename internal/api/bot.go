package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "vision-inspector/internal/application"
	"vision-inspector/internal/domain/entity"
	"vision-inspector/internal/domain/port"
)

const (
	msgStart = `👋 Привет! Я веду осмотры трансформаторов и журнал найденных аномалий.

📋 Команды:
/new [трансформатор] — новый осмотр
/use <IID> — выбрать осмотр
/anomalies — текущие аномалии
/log — журнал изменений
/help — справка`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Создайте осмотр: /new T-000123
2️⃣ Отправьте эталонный снимок — детектор найдёт аномалии
3️⃣ Поправьте разметку вручную

📋 Команды:
/new [трансформатор] — новый осмотр
/use <IID> — выбрать осмотр
/anomalies — текущие аномалии
/log — журнал изменений
/add cx cy w h класс — добавить аномалию
/edit <id> cx cy w h [класс] — изменить аномалию
/delete <id> — удалить аномалию
/threshold <0..1> — порог детектора
/cancel — отменить текущую операцию

💡 Координаты — центр, ширина и высота в пикселях снимка.`

	msgAwaitingPhoto    = "📸 Отправьте эталонный снимок для осмотра."
	msgCancelled        = "❌ Операция отменена."
	msgNoInspection     = "📋 Сначала создайте осмотр (/new) или выберите существующий (/use <IID>)."
	msgSendPhoto        = "📸 Отправьте снимок или команду. /help — справка."
	msgUnknownCommand   = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing       = "⏳ Загружаю снимок и ищу аномалии..."
	msgNoAnomalies      = "✅ Аномалии не обнаружены."
	msgEmptyLog         = "📜 Журнал пуст."
	msgProcessingError  = "⚠️ Не удалось обработать изображение. Попробуйте другое фото."
	msgInternalError    = "⚠️ Внутренняя ошибка, попробуйте позже."
	msgDefaultThreshold = "🎚 Порог вне диапазона 0..1, используется порог по умолчанию."
)

const downloadTimeout = 30 * time.Second

// Bot представляет Telegram-бота
type Bot struct {
	api         *tgbotapi.BotAPI
	users       *app.UserService
	inspections *app.InspectionService
	highlighter port.Highlighter
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewBot создаёт нового бота. highlighter может быть nil, тогда размеченный снимок не отправляется.
func NewBot(token string, users *app.UserService, inspections *app.InspectionService, highlighter port.Highlighter, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("authorized on account", "username", api.Self.UserName)

	return &Bot{
		api:         api,
		users:       users,
		inspections: inspections,
		highlighter: highlighter,
		httpClient:  &http.Client{Timeout: downloadTimeout},
		logger:      logger,
	}, nil
}

// Run запускает основной цикл обработки сообщений до отмены ctx
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	user, err := b.users.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		b.logger.Error("get user", "user_id", msg.From.ID, "error", err)
		return
	}

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg, user)
		return
	}

	// Обработка фото
	if len(msg.Photo) > 0 {
		b.handlePhoto(ctx, msg, user)
		return
	}

	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	chatID := msg.Chat.ID
	args := msg.CommandArguments()

	switch msg.Command() {
	case "start":
		if _, err := b.users.Cancel(ctx, user.ID, chatID); err != nil {
			b.replyError(chatID, "start", err)
			return
		}
		b.sendMessage(chatID, msgStart)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "new":
		b.handleNew(ctx, chatID, user, strings.TrimSpace(args))

	case "use":
		iid, err := parseIID(args)
		if err != nil {
			b.replyError(chatID, "use", err)
			return
		}
		insp, err := b.inspections.Get(ctx, iid)
		if err != nil {
			b.replyError(chatID, "use", err)
			return
		}
		if _, err := b.users.SelectInspection(ctx, user.ID, chatID, iid); err != nil {
			b.replyError(chatID, "use", err)
			return
		}
		b.sendMessage(chatID, formatInspection(insp)+"\n\n"+msgAwaitingPhoto)

	case "anomalies":
		if !b.requireInspection(chatID, user) {
			return
		}
		anomalies, err := b.inspections.Anomalies(ctx, user.InspectionID)
		if err != nil {
			b.replyError(chatID, "anomalies", err)
			return
		}
		b.sendMessage(chatID, formatAnomalies(anomalies))

	case "log":
		if !b.requireInspection(chatID, user) {
			return
		}
		log, err := b.inspections.AuditLog(ctx, user.InspectionID)
		if err != nil {
			b.replyError(chatID, "log", err)
			return
		}
		b.sendMessage(chatID, formatLog(log))

	case "add":
		if !b.requireInspection(chatID, user) {
			return
		}
		anomaly, err := parseAddArgs(args)
		if err != nil {
			b.replyError(chatID, "add", err)
			return
		}
		stored, err := b.inspections.AddAnomaly(ctx, user.InspectionID, anomaly)
		if err != nil {
			b.replyError(chatID, "add", err)
			return
		}
		b.sendMessage(chatID, fmt.Sprintf("➕ Добавлена аномалия %s\nid: %s", formatBox(stored.Box), stored.ID))

	case "edit":
		if !b.requireInspection(chatID, user) {
			return
		}
		id, changes, err := parseEditArgs(args)
		if err != nil {
			b.replyError(chatID, "edit", err)
			return
		}
		stored, err := b.inspections.UpdateAnomaly(ctx, user.InspectionID, id, changes)
		if err != nil {
			b.replyError(chatID, "edit", err)
			return
		}
		b.sendMessage(chatID, fmt.Sprintf("✏️ Аномалия %s: %s %s", stored.ID, stored.ClassName, formatBox(stored.Box)))

	case "delete":
		if !b.requireInspection(chatID, user) {
			return
		}
		removed, err := b.inspections.DeleteAnomaly(ctx, user.InspectionID, strings.TrimSpace(args))
		if err != nil {
			b.replyError(chatID, "delete", err)
			return
		}
		b.sendMessage(chatID, fmt.Sprintf("🗑 Удалена аномалия %s", removed.ID))

	case "threshold":
		v, err := parseThreshold(args)
		if err != nil {
			b.replyError(chatID, "threshold", err)
			return
		}
		updated, err := b.users.SetThreshold(ctx, user.ID, chatID, v)
		if err != nil {
			b.replyError(chatID, "threshold", err)
			return
		}
		if updated.Threshold == nil {
			b.sendMessage(chatID, msgDefaultThreshold)
			return
		}
		b.sendMessage(chatID, fmt.Sprintf("🎚 Порог детектора: %.2f", *updated.Threshold))

	case "cancel":
		if _, err := b.users.Cancel(ctx, user.ID, chatID); err != nil {
			b.replyError(chatID, "cancel", err)
			return
		}
		b.sendMessage(chatID, msgCancelled)

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

func (b *Bot) handleNew(ctx context.Context, chatID int64, user *entity.User, transformer string) {
	insp, err := b.inspections.Create(ctx, entity.NewInspection{
		TransformerNumber: transformer,
		Status:            "open",
		InspectionDate:    time.Now().UTC().Format(time.DateOnly),
	}, nil, nil)
	if err != nil {
		b.replyError(chatID, "new", err)
		return
	}
	if _, err := b.users.SelectInspection(ctx, user.ID, chatID, insp.IID); err != nil {
		b.replyError(chatID, "new", err)
		return
	}
	b.sendMessage(chatID, formatInspection(insp)+"\n\n"+msgAwaitingPhoto)
}

// handlePhoto заменяет эталонный снимок текущего осмотра
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	chatID := msg.Chat.ID
	if !b.requireInspection(chatID, user) {
		return
	}

	if _, err := b.users.SetState(ctx, user.ID, chatID, entity.StateProcessing); err != nil {
		b.replyError(chatID, "photo", err)
		return
	}
	defer func() {
		if _, err := b.users.Cancel(ctx, user.ID, chatID); err != nil {
			b.logger.Error("reset user state", "user_id", user.ID, "error", err)
		}
	}()

	b.sendMessage(chatID, msgProcessing)

	// Получаем файл с максимальным разрешением
	photo := msg.Photo[len(msg.Photo)-1]

	imageData, err := b.downloadFile(ctx, photo.FileID)
	if err != nil {
		b.logger.Error("download photo", "file_id", photo.FileID, "error", err)
		b.sendMessage(chatID, msgProcessingError)
		return
	}

	insp, result, err := b.inspections.ReplaceRefImage(ctx, user.InspectionID, &app.ImageUpload{
		Filename:    photo.FileUniqueID + ".jpg",
		ContentType: "image/jpeg",
		Data:        imageData,
	}, user.Threshold)
	if err != nil {
		b.replyError(chatID, "photo", err)
		return
	}

	b.sendMessage(chatID, fmt.Sprintf("📸 Снимок сохранён, детектор добавил аномалий: %d\n\n%s",
		len(result.Anomalies), formatAnomalies(insp.Anomalies)))

	if b.highlighter == nil || len(insp.Anomalies) == 0 {
		return
	}
	highlighted, err := b.highlighter.Highlight(imageData, insp.Anomalies)
	if err != nil {
		b.logger.Warn("highlight anomalies", "iid", insp.IID, "error", err)
		return
	}
	b.sendPhoto(chatID, highlighted, insp.Number)
}

func (b *Bot) requireInspection(chatID int64, user *entity.User) bool {
	if user.HasInspection() {
		return true
	}
	b.sendMessage(chatID, msgNoInspection)
	return false
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(b.api.Token), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

func (b *Bot) replyError(chatID int64, op string, err error) {
	b.logger.Warn("command failed", "op", op, "chat_id", chatID, "error", err)
	b.sendMessage(chatID, errorMessage(err))
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) sendPhoto(chatID int64, data []byte, caption string) {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "anomalies.jpg", Bytes: data})
	photo.Caption = caption
	if _, err := b.api.Send(photo); err != nil {
		b.logger.Error("send photo", "chat_id", chatID, "error", err)
	}
}
