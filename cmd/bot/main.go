package main

import (
	"log"

	"tripplanner/internal/config"
	"tripplanner/internal/geocode"
	"tripplanner/internal/repository"
	"tripplanner/internal/service"
	"tripplanner/internal/transport"
	"tripplanner/internal/wizard"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func main() {
	cfg := config.Load()

	// Подключение к базе данных
	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		log.Fatalf("DB connection failed: %v", err)
	}
	defer db.Close()

	engine, err := transport.LoadEngine(cfg.TransportRulesFile)
	if err != nil {
		log.Fatalf("Не удалось загрузить правила выбора транспорта: %v", err)
	}

	// Инициализация репозиториев и сервисов
	tripRepo := repository.NewTripRepository(db)
	cityRepo := repository.NewCityRepository(db)
	tripService := service.NewTripService(tripRepo, cityRepo, engine)
	geocoder := geocode.NewClient(cfg.GeocoderURL, cfg.GeocoderUserAgent, geocode.WithLanguage(cfg.GeocoderLanguage))

	// Инициализация Telegram Bot API
	if cfg.BotToken == "" {
		log.Fatal("Не указан токен бота (BOT_TOKEN)")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatal("Ошибка инициализации бота:", err)
	}
	bot.Debug = cfg.Debug
	log.Printf("Запущен бот %s", bot.Self.UserName)

	h := newHost(bot, hostDeps{
		trips:       tripService,
		geocoder:    geocoder,
		engine:      engine,
		overlays:    wizard.NewOverlayRegistry(),
		home:        cfg.Home,
		searchLimit: cfg.SearchLimit,
		homeTimeout: cfg.HomeLookupTimeout,
	})

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)

	for update := range updates {
		// --- CallbackQuery (inline buttons) ---
		if cq := update.CallbackQuery; cq != nil {
			bot.Request(tgbotapi.NewCallback(cq.ID, ""))
			if cq.Message == nil {
				continue
			}
			h.handleCallback(cq.Message.Chat.ID, cq.Data)
			continue
		}

		// --- Обычные сообщения ---
		if update.Message == nil {
			continue
		}
		h.handleMessage(update.Message)
	}
}
