package handler

import (
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"helpdesk-scheduler/internal/clock"
	"helpdesk-scheduler/internal/logging"
	"helpdesk-scheduler/internal/models"
	"helpdesk-scheduler/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Sender отправляет сообщения в Telegram. *tgbotapi.BotAPI удовлетворяет интерфейсу.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// WorkerStore - поиск и регистрация сотрудников по chat ID.
type WorkerStore interface {
	GetByChatID(chatID int64) (*models.Worker, error)
	Create(worker *models.Worker) error
}

// pendingCopy - копирование, ожидающее подтверждения перезаписи.
type pendingCopy struct {
	source  time.Time
	targets []time.Time
}

type Handler struct {
	bot          Sender
	workers      WorkerStore
	availability *service.AvailabilityService
	scheduling   *service.SchedulingService
	clock        clock.Clock
	loc          *time.Location
	logger       *logrus.Logger

	mu      sync.Mutex
	pending map[int64]pendingCopy
}

func NewHandler(
	bot Sender,
	workers WorkerStore,
	availability *service.AvailabilityService,
	scheduling *service.SchedulingService,
	clk clock.Clock,
	loc *time.Location,
) *Handler {
	return &Handler{
		bot:          bot,
		workers:      workers,
		availability: availability,
		scheduling:   scheduling,
		clock:        clk,
		loc:          loc,
		logger:       logging.New(),
		pending:      make(map[int64]pendingCopy),
	}
}

func (h *Handler) HandleUpdates(updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		h.HandleUpdate(update)
	}
}

func (h *Handler) HandleUpdate(update tgbotapi.Update) {
	// Обработка callback query (для inline кнопок)
	if update.CallbackQuery != nil {
		h.handleCallbackQuery(update.CallbackQuery)
		return
	}

	if update.Message == nil {
		return
	}

	h.handleMessage(update.Message)
}

func (h *Handler) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		h.logger.WithError(err).WithField("chat_id", chatID).Error("Failed to send message")
	}
}

// handleCallbackQuery обрабатывает inline кнопки
func (h *Handler) handleCallbackQuery(callback *tgbotapi.CallbackQuery) {
	chatID := callback.Message.Chat.ID

	// Удаляем клавиатуру
	editMsg := tgbotapi.NewEditMessageReplyMarkup(chatID, callback.Message.MessageID, tgbotapi.NewInlineKeyboardMarkup())
	h.bot.Send(editMsg)

	switch callback.Data {
	case callbackCopyOverwrite:
		h.confirmCopyOverwrite(chatID)
	case callbackCopyCancel:
		h.takePending(chatID)
		h.send(chatID, "❌ Перезапись отменена.")
	}

	// Отвечаем на callback (убираем "часики" у кнопки)
	h.bot.Send(tgbotapi.NewCallback(callback.ID, ""))
}

func (h *Handler) handleMessage(message *tgbotapi.Message) {
	if message.From != nil {
		h.logger.Infof("[%s] %s", message.From.UserName, message.Text)
	}

	if message.IsCommand() {
		h.handleCommand(message)
		return
	}

	h.send(message.Chat.ID, "Используйте /help для списка команд.")
}

// currentWorker находит сотрудника по чату; если профиля нет, сообщает об этом.
func (h *Handler) currentWorker(chatID int64) *models.Worker {
	worker, err := h.workers.GetByChatID(chatID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load worker by chat")
		h.send(chatID, "❌ Ошибка загрузки профиля.")
		return nil
	}
	if worker == nil {
		h.send(chatID, "❌ Профиль не найден. Отправьте /start для регистрации.")
		return nil
	}
	return worker
}

func (h *Handler) takePending(chatID int64) (pendingCopy, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.pending[chatID]
	delete(h.pending, chatID)
	return p, ok
}

func (h *Handler) setPending(chatID int64, p pendingCopy) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending[chatID] = p
}

// replyError переводит ошибку сервиса в сообщение пользователю.
func (h *Handler) replyError(chatID int64, err error) {
	var validation *service.ValidationError
	switch {
	case errors.As(err, &validation):
		text := "❌ Некорректные данные: " + validation.Reason
		if validation.Index >= 0 {
			text = "❌ Интервал №" + strconv.Itoa(validation.Index+1) + ": " + validation.Reason
		}
		h.send(chatID, text)
	case errors.Is(err, service.ErrNotFound):
		h.send(chatID, "❌ Не найдено: "+err.Error())
	case errors.Is(err, service.ErrForbidden):
		h.send(chatID, "⛔ Доступ запрещен.")
	default:
		h.logger.WithError(err).Error("Command failed")
		h.send(chatID, "❌ Внутренняя ошибка, попробуйте позже.")
	}
}

func isOverwriteFlag(s string) bool {
	s = strings.ToLower(s)
	return s == "overwrite" || s == "!"
}
