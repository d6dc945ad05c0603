package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tripplanner/internal/model"
	"tripplanner/internal/wizard"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// Данные inline-кнопок.
const (
	cbNext     = "NEXT"
	cbBack     = "BACK"
	cbCancel   = "CANCEL"
	cbDates    = "DATES"
	cbSave     = "SAVE"
	cbOptimize = "OPT"

	prefixPlace  = "PLACE_"
	prefixRemove = "DEL_"
	prefixUp     = "UP_"
	prefixModes  = "MODES_"
	prefixSet    = "SET_"
	prefixClear  = "CLR_"
)

type action int

const (
	actionNext action = iota
	actionBack
	actionCancel
	actionDates
	actionSave
	actionOptimize
	actionPlace
	actionRemove
	actionUp
	actionModes
	actionSetMode
	actionClearMode
)

type callback struct {
	action action
	index  int
	leg    model.LegKey
	mode   model.TransportMode
}

func parseCallback(data string) (callback, bool) {
	switch data {
	case cbNext:
		return callback{action: actionNext}, true
	case cbBack:
		return callback{action: actionBack}, true
	case cbCancel:
		return callback{action: actionCancel}, true
	case cbDates:
		return callback{action: actionDates}, true
	case cbSave:
		return callback{action: actionSave}, true
	case cbOptimize:
		return callback{action: actionOptimize}, true
	}

	indexed := []struct {
		prefix string
		action action
	}{
		{prefixPlace, actionPlace},
		{prefixRemove, actionRemove},
		{prefixUp, actionUp},
	}
	for _, p := range indexed {
		if strings.HasPrefix(data, p.prefix) {
			i, err := strconv.Atoi(strings.TrimPrefix(data, p.prefix))
			if err != nil || i < 0 {
				return callback{}, false
			}
			return callback{action: p.action, index: i}, true
		}
	}

	switch {
	case strings.HasPrefix(data, prefixModes):
		key, err := model.ParseLegKey(strings.TrimPrefix(data, prefixModes))
		return callback{action: actionModes, leg: key}, err == nil
	case strings.HasPrefix(data, prefixClear):
		key, err := model.ParseLegKey(strings.TrimPrefix(data, prefixClear))
		return callback{action: actionClearMode, leg: key}, err == nil
	case strings.HasPrefix(data, prefixSet):
		parts := strings.SplitN(strings.TrimPrefix(data, prefixSet), "_", 2)
		if len(parts) != 2 {
			return callback{}, false
		}
		key, err := model.ParseLegKey(parts[0])
		mode := model.ParseTransportMode(parts[1])
		if err != nil || !mode.Valid() {
			return callback{}, false
		}
		return callback{action: actionSetMode, leg: key, mode: mode}, true
	}
	return callback{}, false
}

func navRow(next bool) []tgbotapi.InlineKeyboardButton {
	row := tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("◀ Назад", cbBack))
	if next {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("Далее ▶", cbNext))
	}
	return append(row, tgbotapi.NewInlineKeyboardButtonData("✖ Отмена", cbCancel))
}

func detailsKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📅 Даты", cbDates)),
		navRow(true),
	)
}

func citiesKeyboard(cities []model.City) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, c := range cities {
		row := tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✖ "+truncate(c.Name, 20), fmt.Sprintf("%s%d", prefixRemove, i)),
		)
		if i > 0 {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData("⬆", fmt.Sprintf("%s%d", prefixUp, i)))
		}
		rows = append(rows, row)
	}
	if len(cities) > 2 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🧭 Оптимизировать порядок", cbOptimize)))
	}
	rows = append(rows, navRow(true))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func placesKeyboard(places []model.Place) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, p := range places {
		label := p.Name
		if p.Country != "" {
			label += ", " + p.Country
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(truncate(label, 40), fmt.Sprintf("%s%d", prefixPlace, i)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func reviewKeyboard(legs []model.Leg) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, l := range legs {
		label := fmt.Sprintf("%s → %s", truncate(l.From.Name, 14), truncate(l.To.Name, 14))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🚦 "+label, prefixModes+l.Key.String()),
		))
	}
	rows = append(rows, navRow(true))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func modesKeyboard(leg model.Leg) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, m := range leg.Suggestions {
		label := m.Label()
		if m == leg.TransportMode {
			label = "✔ " + label
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, prefixSet+leg.Key.String()+"_"+string(m)))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	if leg.Overridden {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("↺ Рекомендация", prefixClear+leg.Key.String()),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func budgetKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("💾 Сохранить", cbSave)),
		navRow(false),
	)
}

func formatDetails(d model.TripDraft) string {
	var b strings.Builder
	b.WriteString("Шаг 1/4. Детали поездки\n")
	name := d.Name
	if strings.TrimSpace(name) == "" {
		name = "не задано"
	}
	fmt.Fprintf(&b, "Название: %s\n", name)
	fmt.Fprintf(&b, "Даты: %s\n\n", formatDates(d.StartDate, d.EndDate))
	b.WriteString("Отправьте название поездки сообщением.")
	return b.String()
}

func formatCities(cities []model.City) string {
	var b strings.Builder
	b.WriteString("Шаг 2/4. Города\n")
	if len(cities) == 0 {
		b.WriteString("Пока нет ни одного города.\n")
	}
	for i, c := range cities {
		fmt.Fprintf(&b, "%d. %s", i+1, c.Name)
		if c.Country != "" {
			fmt.Fprintf(&b, " (%s)", c.Country)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nОтправьте название города или геопозицию, чтобы добавить его.")
	return b.String()
}

func formatLeg(l model.Leg) string {
	distance := "расстояние неизвестно"
	if l.DistanceKm != nil {
		distance = fmt.Sprintf("%.0f км", *l.DistanceKm)
	}
	mode := l.TransportMode.Label()
	if !l.Overridden {
		mode += " (рекомендация)"
	}
	return fmt.Sprintf("%s → %s: %s, %s", l.From.Name, l.To.Name, distance, mode)
}

func formatReview(legs []model.Leg, home wizard.HomeStatus, total float64, unknown int) string {
	var b strings.Builder
	b.WriteString("Шаг 3/4. Маршрут\n")
	if home == wizard.HomePending {
		b.WriteString("Определяем местоположение…\n")
	}
	if len(legs) == 0 {
		b.WriteString("Перегонов нет: в маршруте один город.\n")
	}
	for _, l := range legs {
		b.WriteString(formatLeg(l))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nВсего: %.0f км", total)
	if unknown > 0 {
		fmt.Fprintf(&b, " (без учета перегонов с неизвестным расстоянием: %d)", unknown)
	}
	return b.String()
}

func formatBudget(d model.TripDraft) string {
	budget := "не задан"
	if d.Budget.Valid {
		budget = d.Budget.Decimal.StringFixed(2)
		if d.Currency != "" {
			budget += " " + d.Currency
		}
	}
	return fmt.Sprintf("Шаг 4/4. Бюджет: %s\nОтправьте сумму, например «1500 EUR», или сохраните поездку.", budget)
}

func formatDates(start, end *time.Time) string {
	switch {
	case start == nil && end == nil:
		return "не заданы"
	case end == nil:
		return "с " + start.Format(dateLayout)
	case start == nil:
		return "по " + end.Format(dateLayout)
	default:
		return start.Format(dateLayout) + " … " + end.Format(dateLayout)
	}
}

func formatSavedTrip(t *model.Trip) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Поездка «%s» сохранена (#%d).\n", t.Name, t.ID)
	for _, c := range t.Cities {
		fmt.Fprintf(&b, "%d. %s", c.OrderIndex+1, c.Name)
		if c.TransportMode.Valid() {
			fmt.Fprintf(&b, " (%s)", c.TransportMode.Label())
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatTripList(trips []model.Trip) string {
	if len(trips) == 0 {
		return "У вас пока нет поездок. /newtrip — создать."
	}
	var b strings.Builder
	b.WriteString("Ваши поездки:\n")
	for _, t := range trips {
		fmt.Fprintf(&b, "#%d %s: %s\n", t.ID, t.Name, formatDates(t.StartDate, t.EndDate))
	}
	b.WriteString("\n/edit <id> — изменить поездку")
	return b.String()
}

func formatSaveError(err error) string {
	var saveErr *wizard.SaveError
	if !errors.As(err, &saveErr) {
		return "Не удалось сохранить поездку."
	}
	switch saveErr.Phase {
	case wizard.PhaseTrip:
		return "Не удалось создать поездку. Черновик не потерян, попробуйте еще раз."
	case wizard.PhaseCity:
		return fmt.Sprintf("Поездка создана, но город «%s» сохранить не удалось (сохранено городов: %d). "+
			"Повтор продолжит с этого города.", saveErr.City, saveErr.Created)
	default:
		return "Поездка сохранена, но не удалось ее загрузить. Повторите попытку."
	}
}

func advanceHint(step wizard.Step) string {
	switch step {
	case wizard.StepDetails:
		return "Сначала отправьте название поездки."
	case wizard.StepCities:
		return "Добавьте хотя бы один город."
	default:
		return "Нельзя перейти дальше."
	}
}

// parseDateRange разбирает «2025-06-01 2025-06-10» или одну дату начала.
func parseDateRange(text string) (*time.Time, *time.Time, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 || len(fields) > 2 {
		return nil, nil, fmt.Errorf("ожидается одна или две даты, получено %d", len(fields))
	}
	start, err := time.Parse(dateLayout, fields[0])
	if err != nil {
		return nil, nil, err
	}
	if len(fields) == 1 {
		return &start, nil, nil
	}
	end, err := time.Parse(dateLayout, fields[1])
	if err != nil {
		return nil, nil, err
	}
	return &start, &end, nil
}

// parseBudget разбирает «1500», «1500.50 eur» или «1 500 EUR».
func parseBudget(text string) (decimal.NullDecimal, string, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return decimal.NullDecimal{}, "", errors.New("пустой бюджет")
	}
	currency := ""
	if last := fields[len(fields)-1]; len(last) == 3 && isLetters(last) {
		currency = strings.ToUpper(last)
		fields = fields[:len(fields)-1]
	}
	amount, err := decimal.NewFromString(strings.ReplaceAll(strings.Join(fields, ""), ",", "."))
	if err != nil {
		return decimal.NullDecimal{}, "", err
	}
	return decimal.NewNullDecimal(amount), currency, nil
}

func isLetters(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
