//Сервер cardkeeper: авторитетное хранилище карточек для облачного режима клиента.
//
//GET    /api/v1/health                # Статус и версия схемы (публичный)
//POST   /api/v1/auth/register         # Регистрация (публичный)
//POST   /api/v1/auth/login            # Логин (публичный)
//POST   /api/v1/auth/reset-password   # Сброс пароля (публичный)
//POST   /api/v1/auth/logout           # Выход (auth)
//GET    /api/v1/auth/me               # Текущий пользователь (auth)
//POST   /api/v1/auth/change-password  # Смена пароля (auth)
//GET    /api/v1/cards                 # Список карточек (auth)
//GET    /api/v1/cards/{id}            # Получить карточку (auth)
//POST   /api/v1/cards                 # Создать карточку (auth)
//PATCH  /api/v1/cards/{id}            # Обновить карточку (auth)
//DELETE /api/v1/cards/{id}            # Удалить карточку (auth)
//GET    /metrics                      # Prometheus

package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/exp/slog"

	"cardkeeper/internal/app/server/api/http/card"
	healthAPI "cardkeeper/internal/app/server/api/http/health"
	"cardkeeper/internal/app/server/api/http/middleware"
	"cardkeeper/internal/app/server/api/http/middleware/auth"
	"cardkeeper/internal/app/server/api/http/middleware/logger"
	"cardkeeper/internal/app/server/api/http/middleware/metrics"
	userAPI "cardkeeper/internal/app/server/api/http/user"
	"cardkeeper/internal/app/server/config"
	domainCard "cardkeeper/internal/domain/card"
	"cardkeeper/internal/domain/session"
	"cardkeeper/internal/domain/user"
	"cardkeeper/internal/infrastructure/storage/postgres"
)

const (
	title   = "Cardkeeper API"
	version = "1.0.0"
)

type Handlers struct {
	Health *healthAPI.Handler
	User   *userAPI.Handler
	Card   *card.Handler
}

// Services - доменные сервисы, за которыми стоят обработчики
type Services struct {
	Schema   healthAPI.SchemaProber
	Users    user.Servicer
	Sessions session.Servicer
	Cards    domainCard.Servicer
}

// New собирает сервисы поверх postgres и возвращает роутер
func New(storage *postgres.Storage, cfg *config.Config, log *slog.Logger) *chi.Mux {
	pool := storage.Pool()

	services := Services{
		Schema:   storage,
		Users:    user.NewService(postgres.NewUserRepository(pool, log), user.NewValidator(), log),
		Sessions: session.NewService(postgres.NewSessionRepository(pool, log), cfg.Server.SessionTTL, cfg.Server.ResetTTL, log),
		Cards:    domainCard.NewService(postgres.NewCardRepository(pool, log), log),
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return NewWithServices(services, reg, log)
}

// NewWithServices создает *chi.Mux со всеми операциями через huma.Register
func NewWithServices(services Services, reg *prometheus.Registry, log *slog.Logger) *chi.Mux {
	mux := chi.NewMux()

	config := huma.DefaultConfig(title, version)
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {Type: "http", Scheme: "bearer"},
	}

	API := humachi.New(mux, config)

	h := handlers(API, services, reg, log)
	h.Health.SetupRoutes(API)
	h.User.SetupRoutes(API)
	h.Card.SetupRoutes(API)

	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		log.Debug("route not found", "method", r.Method, "path", r.URL.Path)
		http.NotFound(w, r)
	})

	return mux
}

func handlers(API huma.API, s Services, reg prometheus.Registerer, log *slog.Logger) *Handlers {
	authMW := auth.New(API, s.Sessions, log)
	loggerMW := logger.New(log)
	metricsMW := metrics.New(reg)
	middlewares := middleware.NewContainer()

	// метрики и лог снаружи auth, чтобы 401 тоже учитывались
	healthHandler := healthAPI.NewHandler(s.Schema, log,
		middlewares.Add(metricsMW.Middleware(), loggerMW.Middleware()).GetAllAndClear())

	public := middlewares.Add(metricsMW.Middleware(), loggerMW.Middleware()).GetAllAndClear()
	private := middlewares.Add(metricsMW.Middleware(), loggerMW.Middleware(), authMW.Middleware()).GetAllAndClear()
	userHandler := userAPI.NewHandler(s.Users, s.Sessions, log, public, private)

	cardHandler := card.NewHandler(s.Cards, log,
		middlewares.Add(metricsMW.Middleware(), loggerMW.Middleware(), authMW.Middleware()).GetAllAndClear())

	return &Handlers{
		Health: healthHandler,
		User:   userHandler,
		Card:   cardHandler,
	}
}
