package handler

import (
	"helpdesk-scheduler/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

const helpText = `📋 Доступные команды:

🗓 Доступность:
/week [дата] - Мои интервалы доступности на неделю
/setday дата ЧЧ:ММ-ЧЧ:ММ ... - Заменить интервалы на день
    Пример: /setday 20.10.2026 09:00-12:00 14:00-17:00
    /setday 20.10.2026 - - очистить день
/copyday откуда куда... [overwrite] - Скопировать день на другие даты
    Пример: /copyday 20.10.2026 21.10.2026 22.10.2026

📌 Заявки:
/schedule [дата] - Назначенные заявки на неделю
/forecast [дата] - Прогноз числа заявок по дням
/autoassign [дата] - Разложить бэклог по свободным дням недели

🛠 Утилиты:
/start - Регистрация
/help - Показать это сообщение

💡 Дата: дд.мм.гггг или гггг-мм-дд. Без даты используется текущая неделя.`

func (h *Handler) handleCommand(message *tgbotapi.Message) {
	command := message.Command()
	args := message.CommandArguments()

	switch command {
	case "start":
		h.sendStartMessage(message)
	case "help":
		h.send(message.Chat.ID, helpText)

	// Доступность
	case "week":
		h.showWeek(message, args)
	case "setday":
		h.setDay(message, args)
	case "copyday":
		h.copyDay(message, args)

	// Заявки
	case "schedule":
		h.showSchedule(message, args)
	case "forecast":
		h.showForecast(message, args)
	case "autoassign":
		h.autoAssign(message, args)

	default:
		h.sendUnknownCommand(message)
	}
}

func (h *Handler) sendUnknownCommand(message *tgbotapi.Message) {
	h.send(message.Chat.ID, "❌ Неизвестная команда. Используйте /help для списка команд.")
}

// sendStartMessage регистрирует сотрудника по chat ID, если профиля еще нет
func (h *Handler) sendStartMessage(message *tgbotapi.Message) {
	chatID := message.Chat.ID

	worker, err := h.workers.GetByChatID(chatID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load worker by chat")
		h.send(chatID, "❌ Ошибка загрузки профиля.")
		return
	}

	if worker == nil {
		id := chatID
		worker = &models.Worker{
			ChatID: &id,
			Role:   models.RoleWorker,
		}
		if message.From != nil {
			worker.Username = message.From.UserName
			worker.FirstName = message.From.FirstName
			worker.LastName = message.From.LastName
		}

		if err := h.workers.Create(worker); err != nil {
			h.logger.WithError(err).Error("Failed to register worker")
			h.send(chatID, "❌ Ошибка регистрации: "+err.Error())
			return
		}

		h.logger.WithFields(logrus.Fields{
			"chat_id":   chatID,
			"worker_id": worker.ID,
		}).Info("Worker registered")
	}

	h.send(chatID, "👋 Здравствуйте, "+worker.FullName()+"!\nВаш ID: "+worker.ID+"\n\n"+helpText)
}
