package handler

import (
	"strings"
	"time"

	"helpdesk-scheduler/internal/service"
	"helpdesk-scheduler/pkg/calendar"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

const (
	callbackCopyOverwrite = "confirm_copy_overwrite"
	callbackCopyCancel    = "cancel_copy_overwrite"
)

// weekArg возвращает понедельник недели из аргумента или текущей недели.
func (h *Handler) weekArg(chatID int64, arg string) (time.Time, bool) {
	if arg == "" {
		return calendar.WeekStart(h.clock.Now(), h.loc), true
	}
	date, err := parseDateArg(arg, h.loc)
	if err != nil {
		h.send(chatID, "❌ "+err.Error())
		return time.Time{}, false
	}
	return calendar.WeekStart(date, h.loc), true
}

// showWeek показывает интервалы доступности на неделю
func (h *Handler) showWeek(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	worker := h.currentWorker(chatID)
	if worker == nil {
		return
	}

	week, ok := h.weekArg(chatID, strings.TrimSpace(args))
	if !ok {
		return
	}

	slots, err := h.availability.GetForWeek(worker.ID, week)
	if err != nil {
		h.replyError(chatID, err)
		return
	}

	h.send(chatID, formatWeekAvailability(calendar.WeekDays(week, h.loc), slots))
}

// setDay заменяет интервалы доступности на день
func (h *Handler) setDay(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	worker := h.currentWorker(chatID)
	if worker == nil {
		return
	}

	parts := strings.Fields(args)
	if len(parts) < 2 {
		h.send(chatID, `📝 Формат команды:
/setday дата ЧЧ:ММ-ЧЧ:ММ [ЧЧ:ММ-ЧЧ:ММ ...]

Пример:
/setday 20.10.2026 09:00-12:00 14:00-17:00
/setday 20.10.2026 - - очистить день`)
		return
	}

	day, err := parseDateArg(parts[0], h.loc)
	if err != nil {
		h.send(chatID, "❌ "+err.Error())
		return
	}

	inputs := make([]service.SlotInput, 0, len(parts)-1)
	if !(len(parts) == 2 && parts[1] == "-") {
		for _, raw := range parts[1:] {
			input, err := parseSlotRange(raw, day)
			if err != nil {
				h.send(chatID, "❌ "+err.Error())
				return
			}
			inputs = append(inputs, input)
		}
	}

	result, err := h.availability.ReplaceForDay(worker.ID, day, inputs)
	if err != nil {
		h.replyError(chatID, err)
		return
	}

	h.send(chatID, formatDayAvailability(result))
}

// copyDay копирует интервалы дня на другие даты
func (h *Handler) copyDay(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	worker := h.currentWorker(chatID)
	if worker == nil {
		return
	}

	parts := strings.Fields(args)
	overwrite := false
	if len(parts) > 0 && isOverwriteFlag(parts[len(parts)-1]) {
		overwrite = true
		parts = parts[:len(parts)-1]
	}

	if len(parts) < 2 {
		h.send(chatID, `📝 Формат команды:
/copyday откуда куда [куда ...] [overwrite]

Пример:
/copyday 20.10.2026 21.10.2026 22.10.2026
/copyday 20.10.2026 27.10.2026 overwrite`)
		return
	}

	source, err := parseDateArg(parts[0], h.loc)
	if err != nil {
		h.send(chatID, "❌ "+err.Error())
		return
	}

	targets := make([]time.Time, 0, len(parts)-1)
	for _, raw := range parts[1:] {
		target, err := parseDateArg(raw, h.loc)
		if err != nil {
			h.send(chatID, "❌ "+err.Error())
			return
		}
		targets = append(targets, target)
	}

	result, err := h.availability.CopyAvailability(worker.ID, source, targets, overwrite)
	if err != nil {
		h.replyError(chatID, err)
		return
	}

	h.send(chatID, formatCopyResult(result))

	if overwrite {
		return
	}

	// Пропущенные будущие дни с занятыми интервалами можно перезаписать
	retry := h.overwritableDates(source, result.Skipped)
	if len(retry) == 0 {
		return
	}

	h.setPending(chatID, pendingCopy{source: source, targets: retry})

	msg := tgbotapi.NewMessage(chatID, "Часть дней уже заполнена. Перезаписать их?")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Да, перезаписать", callbackCopyOverwrite),
			tgbotapi.NewInlineKeyboardButtonData("❌ Нет", callbackCopyCancel),
		),
	)
	h.bot.Send(msg)
}

// overwritableDates отбрасывает из пропущенных дат исходный день и прошлое
func (h *Handler) overwritableDates(source time.Time, skipped []time.Time) []time.Time {
	today := calendar.StartOfDay(h.clock.Now(), h.loc)
	sourceDay := calendar.StartOfDay(source, h.loc)

	result := make([]time.Time, 0, len(skipped))
	for _, d := range skipped {
		if d.Before(today) || d.Equal(sourceDay) {
			continue
		}
		result = append(result, d)
	}
	return result
}

func (h *Handler) confirmCopyOverwrite(chatID int64) {
	pending, ok := h.takePending(chatID)
	if !ok {
		h.send(chatID, "⌛ Запрос на копирование устарел, повторите /copyday.")
		return
	}

	worker := h.currentWorker(chatID)
	if worker == nil {
		return
	}

	result, err := h.availability.CopyAvailability(worker.ID, pending.source, pending.targets, true)
	if err != nil {
		h.replyError(chatID, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"worker_id": worker.ID,
		"copied":    len(result.Copied),
	}).Info("Availability overwritten from chat")

	h.send(chatID, formatCopyResult(result))
}
