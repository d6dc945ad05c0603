package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"tripplanner/internal/location"
	"tripplanner/internal/model"
	"tripplanner/internal/service"
	"tripplanner/internal/transport"
	"tripplanner/internal/wizard"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	requestTimeout = 15 * time.Second
	saveTimeout    = 60 * time.Second

	shareLocationText = "📍 Поделиться местоположением"
	denyLocationText  = "Не делиться"
)

// Ожидаемый ввод, который нельзя отличить от поиска города по одному тексту.
const (
	awaitNothing = ""
	awaitDates   = "dates"
)

type hostDeps struct {
	trips       *service.TripService
	geocoder    wizard.Geocoder
	engine      *transport.Engine
	overlays    *wizard.OverlayRegistry
	home        *model.Coordinates
	searchLimit int
	homeTimeout time.Duration
}

// host держит открытые мастера по chat ID и переводит апдейты Telegram в команды мастера.
type host struct {
	bot  *tgbotapi.BotAPI
	deps hostDeps

	mu       sync.Mutex
	sessions map[int64]*session
}

type session struct {
	chatID  int64
	w       *wizard.Wizard
	chatLoc *location.Chat // nil, если дом задан конфигурацией
	results []model.Place
	await   string
}

func newHost(bot *tgbotapi.BotAPI, deps hostDeps) *host {
	return &host{bot: bot, deps: deps, sessions: make(map[int64]*session)}
}

func (h *host) send(c tgbotapi.Chattable) {
	if _, err := h.bot.Send(c); err != nil {
		log.Printf("Не удалось отправить сообщение: %v", err)
	}
}

func (h *host) sendText(chatID int64, text string) {
	h.send(tgbotapi.NewMessage(chatID, text))
}

func (h *host) session(chatID int64) *session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sessions[chatID]
}

func (h *host) dropSession(chatID int64) {
	h.mu.Lock()
	delete(h.sessions, chatID)
	h.mu.Unlock()
}

// openWizard открывает мастер для чата. existing != nil - режим редактирования.
func (h *host) openWizard(chatID, ownerID int64, existing *model.Trip) {
	if h.deps.overlays.Active(chatID) {
		h.sendText(chatID, "Мастер уже открыт. Завершите его или отправьте /cancel.")
		return
	}
	s := &session{chatID: chatID}

	var provider wizard.LocationProvider
	if h.deps.home != nil {
		static, err := location.NewStatic(h.deps.home.Latitude, h.deps.home.Longitude)
		if err != nil {
			log.Printf("Некорректные HOME_LAT/HOME_LON: %v", err)
			provider = location.Denied{}
		} else {
			provider = static
		}
	} else {
		s.chatLoc = location.NewChat(func(ctx context.Context) error {
			return h.promptLocation(chatID)
		})
		provider = s.chatLoc
	}

	w, err := wizard.New(wizard.Options{
		Existing:    existing,
		OwnerID:     ownerID,
		Engine:      h.deps.engine,
		Geocoder:    h.deps.geocoder,
		Location:    provider,
		Trips:       h.deps.trips,
		Cities:      h.deps.trips,
		Overlay:     h.deps.overlays.For(chatID),
		SearchLimit: h.deps.searchLimit,
		HomeTimeout: h.deps.homeTimeout,
		OnSave: func(trip *model.Trip) {
			h.dropSession(chatID)
			msg := tgbotapi.NewMessage(chatID, formatSavedTrip(trip))
			msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
			h.send(msg)
		},
		OnClose: func() {
			h.dropSession(chatID)
			msg := tgbotapi.NewMessage(chatID, "Мастер закрыт, черновик не сохранен.")
			msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
			h.send(msg)
		},
		OnHomeResolved: func(status wizard.HomeStatus) {
			h.onHomeResolved(chatID, status)
		},
	})
	if err != nil {
		log.Printf("Не удалось открыть мастер для чата %d: %v", chatID, err)
		h.sendText(chatID, "Не удалось открыть мастер.")
		return
	}
	s.w = w

	h.mu.Lock()
	h.sessions[chatID] = s
	h.mu.Unlock()
	h.render(s)
}

func (h *host) promptLocation(chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, "Поделитесь местоположением, чтобы добавить перегоны от дома и обратно.")
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonLocation(shareLocationText)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(denyLocationText)),
	)
	keyboard.OneTimeKeyboard = true
	msg.ReplyMarkup = keyboard
	_, err := h.bot.Send(msg)
	return err
}

func (h *host) onHomeResolved(chatID int64, status wizard.HomeStatus) {
	var text string
	switch status {
	case wizard.HomeResolved:
		text = "Местоположение получено, перегоны от дома добавлены."
	case wizard.HomeDenied:
		text = "Хорошо, маршрут будет без перегонов от дома."
	default:
		text = "Не удалось определить местоположение."
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	h.send(msg)

	if s := h.session(chatID); s != nil && s.w.Step() == wizard.StepReview {
		h.render(s)
	}
}

func (h *host) handleMessage(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	var userID int64
	if msg.From != nil {
		userID = msg.From.ID
	}

	// Команды
	if msg.IsCommand() {
		h.handleCommand(msg, chatID, userID)
		return
	}

	s := h.session(chatID)
	if s == nil {
		h.sendText(chatID, "Отправьте /newtrip, чтобы спланировать поездку, или /trips для списка поездок.")
		return
	}

	// Геопозиция: либо ответ на запрос дома, либо добавление города по точке.
	if msg.Location != nil {
		pos := model.Coordinates{Latitude: msg.Location.Latitude, Longitude: msg.Location.Longitude}
		if s.chatLoc != nil && s.chatLoc.Grant(pos) {
			return
		}
		if s.w.Step() == wizard.StepCities {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			if city, ok := s.w.AddCityAt(ctx, pos.Latitude, pos.Longitude); ok {
				h.sendText(chatID, fmt.Sprintf("Добавлен город %s.", city.Name))
			} else {
				h.sendText(chatID, "Не удалось определить город по этой точке.")
			}
			h.render(s)
		}
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == denyLocationText && s.chatLoc != nil {
		s.chatLoc.Deny()
		return
	}
	if text == "" {
		return
	}
	h.handleText(s, text)
}

func (h *host) handleCommand(msg *tgbotapi.Message, chatID, userID int64) {
	switch msg.Command() {
	case "start", "help":
		h.sendText(chatID, "Я помогу спланировать поездку по нескольким городам.\n"+
			"/newtrip — новая поездка\n/edit <id> — изменить поездку\n/trips — мои поездки\n/cancel — закрыть мастер")

	case "newtrip":
		h.openWizard(chatID, userID, nil)

	case "edit":
		id, err := strconv.Atoi(strings.TrimSpace(msg.CommandArguments()))
		if err != nil {
			h.sendText(chatID, "Используйте: /edit <ид_поездки>")
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		trip, err := h.deps.trips.GetTrip(ctx, id)
		if err != nil || trip.OwnerID != userID {
			h.sendText(chatID, "Поездка не найдена.")
			return
		}
		h.openWizard(chatID, userID, trip)

	case "trips":
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		trips, err := h.deps.trips.ListTrips(ctx, userID)
		if err != nil {
			log.Printf("Ошибка получения поездок: %v", err)
			h.sendText(chatID, "Не удалось получить поездки.")
			return
		}
		h.sendText(chatID, formatTripList(trips))

	case "cancel":
		if s := h.session(chatID); s != nil {
			s.w.Close()
		} else {
			h.sendText(chatID, "Нет открытого мастера.")
		}

	default:
		h.sendText(chatID, "Неизвестная команда. /help — список команд.")
	}
}

func (h *host) handleText(s *session, text string) {
	if s.await == awaitDates {
		s.await = awaitNothing
		start, end, err := parseDateRange(text)
		if err == nil {
			err = s.w.SetDates(start, end)
		}
		if err != nil {
			h.sendText(s.chatID, "Не удалось разобрать даты. Формат: 2025-06-01 2025-06-10")
		}
		h.render(s)
		return
	}

	switch s.w.Step() {
	case wizard.StepDetails:
		if err := s.w.SetName(text); err != nil {
			h.sendText(s.chatID, err.Error())
		}
		h.render(s)

	case wizard.StepCities:
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		s.results = s.w.SearchCities(ctx, text)
		if len(s.results) == 0 {
			h.sendText(s.chatID, "Ничего не найдено.")
			return
		}
		reply := tgbotapi.NewMessage(s.chatID, fmt.Sprintf("Найдено: %d", len(s.results)))
		reply.ReplyMarkup = placesKeyboard(s.results)
		h.send(reply)

	case wizard.StepBudget:
		budget, currency, err := parseBudget(text)
		if err == nil {
			err = s.w.SetBudget(budget, currency)
		}
		if err != nil {
			h.sendText(s.chatID, "Укажите бюджет в виде «1500 EUR».")
		}
		h.render(s)

	default:
		h.render(s)
	}
}

func (h *host) handleCallback(chatID int64, data string) {
	s := h.session(chatID)
	if s == nil {
		h.sendText(chatID, "Мастер уже закрыт. Отправьте /newtrip.")
		return
	}
	cb, ok := parseCallback(data)
	if !ok {
		return
	}

	var err error
	switch cb.action {
	case actionNext:
		if err = s.w.Next(); errors.Is(err, wizard.ErrCannotAdvance) {
			h.sendText(chatID, advanceHint(s.w.Step()))
			return
		}
	case actionBack:
		err = s.w.Back()
		if s.w.Step().Terminal() {
			return
		}
	case actionCancel:
		s.w.Close()
		return
	case actionDates:
		s.await = awaitDates
		h.sendText(chatID, "Отправьте даты поездки: 2025-06-01 2025-06-10")
		return
	case actionPlace:
		if cb.index < 0 || cb.index >= len(s.results) {
			return
		}
		_, err = s.w.AddPlace(s.results[cb.index])
		s.results = nil
	case actionRemove:
		if !s.w.RemoveCity(cb.index) && s.w.SavePending() {
			err = wizard.ErrSavePending
		}
	case actionUp:
		err = s.w.MoveCity(cb.index, cb.index-1)
	case actionOptimize:
		err = s.w.OptimizeOrder()
	case actionModes:
		h.sendModes(s, cb.leg)
		return
	case actionSetMode:
		err = s.w.SetTransportMode(cb.leg, cb.mode)
	case actionClearMode:
		err = s.w.ClearTransportMode(cb.leg)
	case actionSave:
		h.save(s)
		return
	}
	if err != nil {
		log.Printf("Чат %d: действие %q завершилось ошибкой: %v", chatID, data, err)
		h.sendText(chatID, err.Error())
	}
	h.render(s)
}

func (h *host) save(s *session) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	h.sendText(s.chatID, "Сохраняю поездку…")
	if _, err := s.w.Save(ctx); err != nil {
		log.Printf("Чат %d: ошибка сохранения: %v", s.chatID, err)
		msg := tgbotapi.NewMessage(s.chatID, formatSaveError(err))
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🔁 Повторить", cbSave),
				tgbotapi.NewInlineKeyboardButtonData("✖ Закрыть", cbCancel),
			),
		)
		h.send(msg)
	}
}

func (h *host) sendModes(s *session, key model.LegKey) {
	var leg *model.Leg
	for _, l := range s.w.Legs() {
		if l.Key == key {
			l := l
			leg = &l
			break
		}
	}
	if leg == nil {
		return
	}
	msg := tgbotapi.NewMessage(s.chatID, formatLeg(*leg))
	msg.ReplyMarkup = modesKeyboard(*leg)
	h.send(msg)
}

// render отправляет экран текущего шага.
func (h *host) render(s *session) {
	step := s.w.Step()
	if step.Terminal() {
		return
	}
	var text string
	var keyboard tgbotapi.InlineKeyboardMarkup
	switch step {
	case wizard.StepDetails:
		text = formatDetails(s.w.Draft())
		keyboard = detailsKeyboard()
	case wizard.StepCities:
		text = formatCities(s.w.Cities())
		keyboard = citiesKeyboard(s.w.Cities())
	case wizard.StepReview:
		status, _ := s.w.Home()
		total, unknown := s.w.TotalDistanceKm()
		legs := s.w.Legs()
		text = formatReview(legs, status, total, unknown)
		keyboard = reviewKeyboard(legs)
	case wizard.StepBudget:
		text = formatBudget(s.w.Draft())
		keyboard = budgetKeyboard()
	}
	msg := tgbotapi.NewMessage(s.chatID, text)
	msg.ReplyMarkup = keyboard
	h.send(msg)
}
