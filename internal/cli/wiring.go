package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"contest-scoring-service/internal/app"
	"contest-scoring-service/internal/config"
	"contest-scoring-service/internal/infra/memory"
	pgstore "contest-scoring-service/internal/infra/postgres"
	rediscache "contest-scoring-service/internal/infra/redis"
	"contest-scoring-service/internal/infra/sqlite"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func newLogger(cfg config.Config) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if strings.EqualFold(cfg.Log.Format, "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

// storage holds the repositories picked from config and whatever must be closed on exit.
type storage struct {
	keys         app.KeyRepository
	participants app.ParticipantRepository
	closers      []func()
}

func (s *storage) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openStorage selects postgres, then sqlite, then memory, and layers the
// participant TTL cache and the optional Redis key cache on top.
func openStorage(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (*storage, error) {
	st := &storage{}

	var participants memory.ParticipantStore
	switch {
	case cfg.Postgres.URL != "":
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		st.closers = append(st.closers, pool.Close)
		st.keys = pgstore.NewKeyRepository(pool)
		participants = pgstore.NewParticipantRepository(pool)
		log.Info("using postgres storage")
	case cfg.SQLite.Path != "":
		db, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, func() { db.Close() })
		st.keys = sqlite.NewKeyRepository(db)
		participants = sqlite.NewParticipantRepository(db)
		log.WithField("path", cfg.SQLite.Path).Info("using sqlite storage")
	default:
		st.keys = memory.NewKeyRepository()
		participants = memory.NewParticipantRepository()
		log.Warn("no database configured, using in-memory storage")
	}

	st.participants = memory.NewParticipantCache(participants, config.TTLDuration(cfg.Cache.TTL, 30*time.Second))

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		st.closers = append(st.closers, func() { client.Close() })
		st.keys = rediscache.NewKeyCache(client, st.keys, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
		log.WithField("addr", cfg.Redis.Addr).Info("answer keys cached in redis")
	}
	return st, nil
}

func serviceOptions(cfg config.Config, log logrus.FieldLogger, metrics app.Metrics) []app.Option {
	opts := []app.Option{
		app.WithLogger(log),
		app.WithHistoryLimit(cfg.Contest.HistoryLimit),
		app.WithReportSizes(cfg.Contest.TopSize, cfg.Contest.RecognitionSize),
	}
	if metrics != nil {
		opts = append(opts, app.WithMetrics(metrics))
	}
	return opts
}
