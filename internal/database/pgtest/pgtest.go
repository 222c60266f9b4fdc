// Package pgtest поднимает PostgreSQL в контейнере для интеграционных тестов хранилищ.
package pgtest

import (
	"context"
	"fmt"
	"taskManager/internal/config"
	"taskManager/internal/database"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type Postgres struct {
	Container testcontainers.Container
	Pool      *pgxpool.Pool
	URL       string
}

// Start запускает контейнер, накатывает миграции и открывает пул
func Start(ctx context.Context) (*Postgres, error) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		// postgres перезапускается после initdb, ждём второй готовности
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("запуск контейнера: %w", err)
	}

	pg := &Postgres{Container: container}

	host, err := container.Host(ctx)
	if err != nil {
		pg.Close(ctx)
		return nil, err
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		pg.Close(ctx)
		return nil, err
	}
	pg.URL = fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	if err := database.Migrate(pg.URL); err != nil {
		pg.Close(ctx)
		return nil, err
	}

	pg.Pool, err = database.NewPool(ctx, config.DatabaseConfig{URL: pg.URL})
	if err != nil {
		pg.Close(ctx)
		return nil, err
	}
	return pg, nil
}

// Truncate очищает таблицы между тестами
func (p *Postgres) Truncate(ctx context.Context) error {
	_, err := p.Pool.Exec(ctx, "TRUNCATE tasks, categories")
	return err
}

func (p *Postgres) Close(ctx context.Context) {
	if p.Pool != nil {
		p.Pool.Close()
	}
	if p.Container != nil {
		_ = p.Container.Terminate(ctx)
	}
}
