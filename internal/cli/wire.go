package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/amanullahtanweer/unibot/internal/config"
	"github.com/amanullahtanweer/unibot/internal/dataset"
	"github.com/amanullahtanweer/unibot/internal/flow"
	"github.com/amanullahtanweer/unibot/internal/keywords"
	"github.com/amanullahtanweer/unibot/internal/server"
	redis "github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/samber/oops"
)

func newInjector(cfg *config.Config) *do.Injector {
	di := do.New()
	do.ProvideValue(di, cfg)
	do.Provide(di, newTables)
	do.Provide(di, newCatalog)
	do.Provide(di, newAssistant)
	do.Provide(di, newRecording)
	do.Provide(di, newServer)
	return di
}

func newTables(di *do.Injector) (*keywords.Tables, error) {
	cfg := do.MustInvoke[*config.Config](di)
	if cfg.Keywords.File == "" {
		return keywords.Default(), nil
	}
	return keywords.LoadFile(cfg.Keywords.File)
}

func newCatalog(di *do.Injector) (*dataset.Catalog, error) {
	cfg := do.MustInvoke[*config.Config](di)
	c, err := dataset.Load(dataset.Source(cfg.Dataset.Source), cfg.Dataset.Path, cfg.Dataset.Table)
	if err != nil {
		return nil, err
	}
	slog.Debug("catalog loaded",
		"source", cfg.Dataset.Source,
		"path", cfg.Dataset.Path,
		"sports", len(c.Sports),
		"associations", len(c.Associations),
		"events", len(c.Events),
	)
	return c, nil
}

func newAssistant(di *do.Injector) (*flow.Assistant, error) {
	tables, err := do.Invoke[*keywords.Tables](di)
	if err != nil {
		return nil, err
	}
	catalog, err := do.Invoke[*dataset.Catalog](di)
	if err != nil {
		return nil, err
	}
	return flow.NewAssistant(tables, catalog), nil
}

var _ do.Shutdownable = (*Recording)(nil)

// Recording holds where sessions are recorded and owns the Redis client
// when one is configured.
type Recording struct {
	Options flow.RecordingOptions
	client  *redis.Client
}

func newRecording(di *do.Injector) (*Recording, error) {
	cfg := do.MustInvoke[*config.Config](di)
	r := &Recording{Options: flow.RecordingOptions{
		SessionDir:   cfg.Log.SessionDir,
		StreamPrefix: cfg.Redis.StreamPrefix,
		MaxLen:       cfg.Redis.MaxLen,
	}}
	if cfg.Redis.Addr == "" {
		return r, nil
	}

	r.client = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.client.Ping(ctx).Err(); err != nil {
		// records are best effort; keep going and let each XADD warn
		slog.Warn("redis unreachable, session streams will be skipped", "addr", cfg.Redis.Addr, "error", err)
	}
	r.Options.Redis = r.client
	return r, nil
}

func (r *Recording) Shutdown() error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Close(); err != nil {
		return oops.In("recording").Wrapf(err, "closing redis client")
	}
	return nil
}

func newServer(di *do.Injector) (*server.Server, error) {
	cfg := do.MustInvoke[*config.Config](di)
	assistant, err := do.Invoke[*flow.Assistant](di)
	if err != nil {
		return nil, err
	}
	return server.New(server.Config{
		Host:      cfg.Server.Host,
		Port:      cfg.Server.Port,
		Flow:      flowOptions(cfg),
		Recording: do.MustInvoke[*Recording](di).Options,
	}, assistant)
}

func flowOptions(cfg *config.Config) flow.Options {
	return flow.Options{
		Mode:                flow.Mode(cfg.Flow.Mode),
		ConfidenceThreshold: cfg.Flow.ConfidenceThreshold,
		SoonestEvents:       cfg.Flow.SoonestEvents,
	}
}
