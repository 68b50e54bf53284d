package handler

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"helpdesk-scheduler/internal/models"
	"helpdesk-scheduler/internal/service"
	"helpdesk-scheduler/pkg/calendar"
)

var weekdayNames = map[time.Weekday]string{
	time.Monday:    "Пн",
	time.Tuesday:   "Вт",
	time.Wednesday: "Ср",
	time.Thursday:  "Чт",
	time.Friday:    "Пт",
	time.Saturday:  "Сб",
	time.Sunday:    "Вс",
}

const displayDateLayout = "02.01.2006"

// parseDateArg принимает дд.мм.гггг или гггг-мм-дд.
func parseDateArg(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation(displayDateLayout, s, loc); err == nil {
		return t, nil
	}
	if t, err := calendar.ParseDate(s, loc); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("неверная дата %q, используйте дд.мм.гггг", s)
}

// parseSlotRange разбирает интервал вида "09:00-12:00" на дату day.
func parseSlotRange(s string, day time.Time) (service.SlotInput, error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return service.SlotInput{}, fmt.Errorf("неверный интервал %q, используйте ЧЧ:ММ-ЧЧ:ММ", s)
	}

	start, err := calendar.ParseClock(strings.TrimSpace(parts[0]), day)
	if err != nil {
		return service.SlotInput{}, fmt.Errorf("неверное время начала в %q", s)
	}
	end, err := calendar.ParseClock(strings.TrimSpace(parts[1]), day)
	if err != nil {
		return service.SlotInput{}, fmt.Errorf("неверное время окончания в %q", s)
	}

	return service.SlotInput{Start: start, End: end}, nil
}

func formatDay(day time.Time) string {
	return weekdayNames[day.Weekday()] + " " + day.Format(displayDateLayout)
}

func formatSlot(slot *models.AvailabilitySlot) string {
	return slot.StartDatetime.Format(calendar.TimeLayout) + "-" + slot.EndDatetime.Format(calendar.TimeLayout)
}

// formatWeekAvailability выводит семь дней с интервалами и суммой минут.
func formatWeekAvailability(days []time.Time, slots []*models.AvailabilitySlot) string {
	byDay := make(map[string][]*models.AvailabilitySlot)
	for _, slot := range slots {
		key := calendar.DayKey(slot.StartDatetime)
		byDay[key] = append(byDay[key], slot)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🗓 Доступность на неделю с %s\n\n", days[0].Format(displayDateLayout))

	total := 0
	for _, day := range days {
		daySlots := byDay[calendar.DayKey(day)]
		if len(daySlots) == 0 {
			fmt.Fprintf(&b, "%s: —\n", formatDay(day))
			continue
		}

		ranges := make([]string, 0, len(daySlots))
		minutes := 0
		for _, slot := range daySlots {
			ranges = append(ranges, formatSlot(slot))
			minutes += slot.DurationMinutes()
		}
		total += minutes
		fmt.Fprintf(&b, "%s: %s (%s)\n", formatDay(day), strings.Join(ranges, ", "), calendar.FormatMinutes(minutes))
	}

	fmt.Fprintf(&b, "\n⏱ Всего: %s", calendar.FormatMinutes(total))
	return b.String()
}

func formatDayAvailability(day *service.DayAvailability) string {
	if len(day.Slots) == 0 {
		return "✅ " + formatDay(day.Date) + ": день очищен"
	}

	ranges := make([]string, 0, len(day.Slots))
	minutes := 0
	for _, slot := range day.Slots {
		ranges = append(ranges, formatSlot(slot))
		minutes += slot.DurationMinutes()
	}
	return fmt.Sprintf("✅ %s: %s (%s)", formatDay(day.Date), strings.Join(ranges, ", "), calendar.FormatMinutes(minutes))
}

func formatCopyResult(result *service.CopyResult) string {
	var b strings.Builder
	if len(result.Copied) > 0 {
		b.WriteString("📋 Скопировано:\n")
		for i := range result.Copied {
			b.WriteString(formatDayAvailability(&result.Copied[i]))
			b.WriteString("\n")
		}
	}
	if len(result.Skipped) > 0 {
		skipped := make([]string, 0, len(result.Skipped))
		for _, d := range result.Skipped {
			skipped = append(skipped, d.Format(displayDateLayout))
		}
		b.WriteString("⏭ Пропущено: " + strings.Join(skipped, ", "))
	}
	if b.Len() == 0 {
		return "Нечего копировать."
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatWeekSchedule(schedule *service.WeekSchedule) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📌 Заявки на неделю с %s\n", schedule.WeekStart.Format(displayDateLayout))

	for _, day := range schedule.Days {
		if day.AvailableMinutes == 0 && len(day.Tickets) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s - занято %s из %s\n", formatDay(day.Date),
			calendar.FormatMinutes(day.ScheduledMinutes), calendar.FormatMinutes(day.AvailableMinutes))
		for _, t := range day.Tickets {
			marker := "✋"
			if t.IsAutoAssigned {
				marker = "🤖"
			}
			fmt.Fprintf(&b, "  %s [%s] %s (%s, ~%dм)\n", marker, t.PriorityLabel, t.Subject, t.CategoryName, t.EstimatedTimeMinutes)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func formatPrediction(prediction *service.WeekPrediction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔮 Прогноз на неделю с %s\n\n", prediction.WeekStart.Format(displayDateLayout))

	for _, day := range prediction.Days {
		fmt.Fprintf(&b, "%s: %d заявок (%s)\n", formatDay(day.Date), day.PredictedTickets, calendar.FormatMinutes(day.AvailableMinutes))
	}

	if len(prediction.Days) > 0 {
		fmt.Fprintf(&b, "\n⚙️ Эффективность: %.2f, среднее время: %.0fм\n",
			prediction.Days[0].Efficiency, prediction.Days[0].AverageResolutionMinutes)
	}
	fmt.Fprintf(&b, "📊 Итого: %d заявок", prediction.TotalPredictedTickets)
	return b.String()
}

func formatAutoAssign(created []*models.ScheduleAssignment) string {
	if len(created) == 0 {
		return "🤖 Новых назначений нет: бэклог пуст или свободного времени не осталось."
	}

	perDay := make(map[string]int)
	order := make([]time.Time, 0)
	for _, a := range created {
		key := calendar.DayKey(a.ScheduledDate)
		if perDay[key] == 0 {
			order = append(order, a.ScheduledDate)
		}
		perDay[key]++
	}

	sort.Slice(order, func(i, j int) bool { return order[i].Before(order[j]) })

	var b strings.Builder
	fmt.Fprintf(&b, "🤖 Назначено заявок: %d\n", len(created))
	for _, day := range order {
		fmt.Fprintf(&b, "%s: %d\n", formatDay(day), perDay[calendar.DayKey(day)])
	}
	return strings.TrimRight(b.String(), "\n")
}
