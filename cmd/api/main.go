package main

import (
	"log"
	"os"
	"path/filepath"
	"sort"

	"tripplanner/internal/config"
	"tripplanner/internal/geocode"
	"tripplanner/internal/handler"
	"tripplanner/internal/repository"
	"tripplanner/internal/service"
	"tripplanner/internal/transport"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL драйвер
)

func main() {
	cfg := config.Load()

	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		log.Fatalf("Не удалось подключиться к базе данных: %v", err)
	}
	defer db.Close()
	runMigrations(db, cfg.MigrationsDir)

	engine, err := transport.LoadEngine(cfg.TransportRulesFile)
	if err != nil {
		log.Fatalf("Не удалось загрузить правила выбора транспорта: %v", err)
	}

	// Инициализируем репозитории
	tripRepo := repository.NewTripRepository(db)
	cityRepo := repository.NewCityRepository(db)
	// Инициализируем сервисы
	geocoder := geocode.NewClient(cfg.GeocoderURL, cfg.GeocoderUserAgent, geocode.WithLanguage(cfg.GeocoderLanguage))
	tripService := service.NewTripService(tripRepo, cityRepo, engine)
	locationService := service.NewLocationService(geocoder)
	routeService := service.NewRouteService(engine)

	// Создаем Handler и регистрируем маршруты
	h := handler.NewHandler(tripService, locationService, routeService)
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	if cfg.CORSOrigins == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins()
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	router.Use(cors.New(corsConfig))

	h.Register(router.Group("/api"))
	// Health-check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Запускаем HTTP-сервер
	if err := router.Run(":" + cfg.APIPort); err != nil {
		log.Fatalf("Ошибка запуска сервера: %v", err)
	}
}

// runMigrations выполняет SQL-файлы из dir в алфавитном порядке, каждый в своей транзакции.
func runMigrations(db *sqlx.DB, dir string) {
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		log.Printf("Не удалось получить список миграций: %v", err)
		return
	}
	sort.Strings(files)
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			log.Printf("Не удалось прочитать миграцию %s: %v", file, err)
			continue
		}
		tx, err := db.Beginx()
		if err != nil {
			log.Printf("Ошибка при инициации транзакции миграции: %v", err)
			continue
		}
		if _, err := tx.Exec(string(content)); err != nil {
			log.Printf("Миграция %s завершилась ошибкой: %v", file, err)
			tx.Rollback()
			continue
		}
		if err := tx.Commit(); err != nil {
			log.Printf("Не удалось зафиксировать миграцию %s: %v", file, err)
			continue
		}
		log.Printf("Миграция %s применена.", file)
	}
}
