package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"taskManager/internal/config"
	"taskManager/internal/database"
	"taskManager/internal/handlers"
	"taskManager/internal/logger"
	"taskManager/internal/middleware"
	"taskManager/internal/notify"
	categoryInmemory "taskManager/internal/repository/category/inmemory"
	categoryPostgres "taskManager/internal/repository/category/postgres"
	taskInmemory "taskManager/internal/repository/task/inmemory"
	taskPostgres "taskManager/internal/repository/task/postgres"
	"taskManager/internal/service"
	"taskManager/internal/worker"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// taskStore - хранилище задач нужно и сервису, и сканеру уведомлений
type taskStore interface {
	service.TaskRepository
	worker.TaskStore
}

type App struct {
	config          *config.Config
	server          *http.Server
	router          *chi.Mux
	tasks           taskStore
	categories      service.CategoryRepository
	taskService     *service.TaskService
	categoryService *service.CategoryService
	publisher       notify.Publisher
	worker          *worker.NotificationWorker
	shutdowns       []func() // функции для graceful shutdown, вызываются в обратном порядке
	shutdownOnce    sync.Once
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

// Init собирает все зависимости, но ничего не запускает
func (a *App) Init(ctx context.Context) error {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return fmt.Errorf("инициализация логгера: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"хранилище", a.initStorage},
		{"публикация уведомлений", a.initPublishers},
		{"сервисы", a.initServices},
		{"HTTP", a.initHTTP},
	}
	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			a.Shutdown()
			return fmt.Errorf("инициализация (%s): %w", step.name, err)
		}
	}

	logger.Info("App: Приложение инициализировано",
		zap.String("repository", a.config.Repository.Type),
		zap.String("addr", a.config.GetServerAddr()))
	return nil
}

func (a *App) initStorage(ctx context.Context) error {
	switch a.config.Repository.Type {
	case config.RepositoryPostgres:
		if a.config.Database.AutoMigrate {
			if err := database.Migrate(a.config.Database.URL); err != nil {
				return err
			}
		}

		pool, err := database.NewPool(ctx, a.config.Database)
		if err != nil {
			return err
		}
		a.shutdowns = append(a.shutdowns, func() {
			logger.Info("Database: Закрытие пула соединений")
			pool.Close()
		})

		a.tasks = taskPostgres.New(pool)
		a.categories = categoryPostgres.New(pool)
	default:
		logger.Warn("App: Используется in-memory хранилище, данные не переживут перезапуск")
		a.tasks = taskInmemory.NewTaskStorage()
		a.categories = categoryInmemory.NewCategoryStorage()
	}
	return nil
}

func (a *App) initPublishers(ctx context.Context) error {
	publishers := notify.Multi{notify.LogPublisher{}}

	if a.config.RabbitMQ.URL != "" {
		rabbit, err := notify.NewRabbitPublisher(a.config.RabbitMQ.URL, a.config.RabbitMQ.Queue)
		if err != nil {
			return err
		}
		a.shutdowns = append(a.shutdowns, func() {
			if err := rabbit.Close(); err != nil {
				logger.Error("Notify: Ошибка закрытия RabbitMQ", err)
			}
		})
		publishers = append(publishers, rabbit)
	}

	if a.config.Redis.Addr != "" {
		redis, err := notify.NewRedisPublisher(a.config.Redis.Addr, a.config.Redis.ChannelPrefix)
		if err != nil {
			return err
		}
		a.shutdowns = append(a.shutdowns, func() {
			if err := redis.Close(); err != nil {
				logger.Error("Notify: Ошибка закрытия Redis", err)
			}
		})
		publishers = append(publishers, redis)
	}

	a.publisher = publishers
	return nil
}

func (a *App) initServices(ctx context.Context) error {
	a.taskService = service.NewTaskService(a.tasks)
	a.categoryService = service.NewCategoryService(a.categories)

	a.worker = worker.NewNotificationWorker(a.tasks, a.publisher, worker.Options{
		Interval:     a.config.Notifier.Interval,
		BatchSize:    a.config.Notifier.BatchSize,
		Concurrency:  a.config.Notifier.Concurrency,
		WriteTimeout: a.config.Notifier.WriteTimeout,
	})
	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Worker: Остановка сканера уведомлений")
		a.worker.Stop()
	})
	return nil
}

func (a *App) initHTTP(ctx context.Context) error {
	a.router = chi.NewRouter()

	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.Logging)
	a.router.Use(chimw.Recoverer)
	a.router.Use(chimw.Timeout(a.config.HTTP.RequestTimeout))
	a.router.Use(middleware.RateLimit(a.config.HTTP.RateLimit))
	a.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.config.HTTP.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.OwnerHeader, "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	a.router.NotFound(handlers.NotFound)

	handlers.Routes(a.router,
		handlers.NewTaskHandler(a.taskService),
		handlers.NewCategoryHandler(a.categoryService),
		handlers.NewNotificationHandler(a.worker))

	a.server = &http.Server{
		Addr:              a.config.GetServerAddr(),
		Handler:           otelhttp.NewHandler(a.router, "taskManager"),
		ReadHeaderTimeout: 10 * time.Second,
	}
	a.shutdowns = append(a.shutdowns, func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer cancel()

		logger.Info("HTTP: Остановка сервера")
		if err := a.server.Shutdown(ctx); err != nil {
			logger.Error("HTTP: Ошибка остановки сервера", err)
		}
	})
	return nil
}

// Run запускает сканер и HTTP сервер, блокируется до отмены ctx или падения сервера
func (a *App) Run(ctx context.Context) error {
	a.worker.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP: Сервер запущен", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("App: Получен сигнал завершения")
		a.Shutdown()
		return nil
	case err, ok := <-errCh:
		a.Shutdown()
		if ok {
			return fmt.Errorf("HTTP сервер: %w", err)
		}
		return nil
	}
}

// Worker отдаёт сканер для разового запуска из CLI
func (a *App) Worker() *worker.NotificationWorker {
	return a.worker
}

// Handler - корневой HTTP обработчик, используется в тестах
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Shutdown вызывает зарегистрированные функции завершения в обратном порядке
func (a *App) Shutdown() {
	a.shutdownOnce.Do(func() {
		for _, fn := range slices.Backward(a.shutdowns) {
			fn()
		}
	})
}
