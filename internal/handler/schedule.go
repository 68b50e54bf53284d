package handler

import (
	"strings"
	"time"

	"helpdesk-scheduler/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// targetWorker разбирает аргументы "[дата] [ID сотрудника]".
// Чужой ID доступен только руководителю.
func (h *Handler) targetWorker(chatID int64, args string) (string, time.Time, bool) {
	worker := h.currentWorker(chatID)
	if worker == nil {
		return "", time.Time{}, false
	}

	parts := strings.Fields(args)
	dateArg := ""
	if len(parts) > 0 {
		dateArg = parts[0]
	}

	week, ok := h.weekArg(chatID, dateArg)
	if !ok {
		return "", time.Time{}, false
	}

	workerID := worker.ID
	if len(parts) > 1 && parts[1] != worker.ID {
		if !worker.IsManager() {
			h.logger.WithField("chat_id", chatID).Warn("Unauthorized access to another worker's schedule")
			h.send(chatID, "❌ Доступ запрещен. Чужой календарь доступен только руководителю.")
			return "", time.Time{}, false
		}
		workerID = parts[1]
	}

	return workerID, week, true
}

// showSchedule показывает назначенные заявки на неделю
func (h *Handler) showSchedule(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	workerID, week, ok := h.targetWorker(chatID, args)
	if !ok {
		return
	}

	schedule, err := h.scheduling.GetWorkerScheduleForWeek(workerID, week)
	if err != nil {
		h.replyError(chatID, err)
		return
	}

	h.send(chatID, formatWeekSchedule(schedule))
}

// showForecast показывает прогноз числа заявок
func (h *Handler) showForecast(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	workerID, week, ok := h.targetWorker(chatID, args)
	if !ok {
		return
	}

	prediction, err := h.scheduling.GetPredictionsForWeek(workerID, week)
	if err != nil {
		h.replyError(chatID, err)
		return
	}

	h.send(chatID, formatPrediction(prediction))
}

// autoAssign раскладывает бэклог по свободным дням недели
func (h *Handler) autoAssign(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	workerID, week, ok := h.targetWorker(chatID, args)
	if !ok {
		return
	}

	created, err := h.scheduling.AutoAssignTicketsForWorker(workerID, week)
	if err != nil {
		h.replyError(chatID, err)
		return
	}

	h.send(chatID, formatAutoAssign(created))
}

// TelegramNotifier присылает сотруднику сообщение о новых назначениях.
type TelegramNotifier struct {
	bot Sender
}

func NewTelegramNotifier(bot Sender) *TelegramNotifier {
	return &TelegramNotifier{bot: bot}
}

func (n *TelegramNotifier) AssignmentsCreated(worker *models.Worker, assignments []*models.ScheduleAssignment) {
	if worker.ChatID == nil || len(assignments) == 0 {
		return
	}

	text := formatAutoAssign(assignments)
	if len(assignments) == 1 && !assignments[0].IsAutoAssigned {
		text = "✋ Вам назначена заявка на " + formatDay(assignments[0].ScheduledDate)
	}

	msg := tgbotapi.NewMessage(*worker.ChatID, text)
	n.bot.Send(msg)
}
