// Package app wires the configured components together for the commands.
package app

import (
	"context"
	"net/http"

	"github.com/flarebyte/shiftlog/internal/config"
	"github.com/flarebyte/shiftlog/internal/export"
	"github.com/flarebyte/shiftlog/internal/form"
	"github.com/flarebyte/shiftlog/internal/hub"
	"github.com/flarebyte/shiftlog/internal/kv"
	"github.com/flarebyte/shiftlog/internal/offline"
	"github.com/flarebyte/shiftlog/internal/reminder"
	"github.com/flarebyte/shiftlog/internal/server"
	"github.com/flarebyte/shiftlog/internal/store"
)

// App is one opened data directory plus the services built over it.
type App struct {
	Config   config.Config
	KV       *kv.Store
	Store    *store.Store
	Exports  *export.Coordinator
	Admitter *form.Admitter
}

// Open builds the storage stack described by cfg.
func Open(cfg config.Config) (*App, error) {
	backend, err := kv.Open(cfg.StoreDir(), kv.Options{MaxValueBytes: cfg.Store.MaxValueBytes})
	if err != nil {
		return nil, err
	}
	st, err := store.New(backend)
	if err != nil {
		return nil, err
	}
	return &App{
		Config: cfg,
		KV:     backend,
		Store:  st,
		Exports: export.NewCoordinator(st, export.Options{
			Labels:       cfg.Labels(),
			CombinedName: cfg.Export.CombinedName,
			Format:       cfg.Export.Format,
		}),
		Admitter: form.New(cfg.AdmitOverrides(), form.Sandbox{
			TimeoutMs:        cfg.Lua.TimeoutMs,
			InstructionLimit: cfg.Lua.InstructionLimit,
		}),
	}, nil
}

// WithFormat returns a coordinator rendering in format instead of the
// configured one.
func (a *App) WithFormat(format string) *export.Coordinator {
	if format == "" || format == a.Config.Export.Format {
		return a.Exports
	}
	return export.NewCoordinator(a.Store, export.Options{
		Labels:       a.Config.Labels(),
		CombinedName: a.Config.Export.CombinedName,
		Format:       format,
	})
}

// Sink writes exports under dir, or export.outDir when dir is empty.
func (a *App) Sink(dir string) export.FileSink {
	if dir == "" {
		dir = a.Config.Export.OutDir
	}
	return export.FileSink{Dir: dir}
}

// Handoff returns the git hand-off, or nil when none is configured.
func (a *App) Handoff() *export.GitHandoff {
	if a.Config.Export.HandoffRepo == "" {
		return nil
	}
	return &export.GitHandoff{Repo: a.Config.Export.HandoffRepo}
}

// Cache opens the offline cache. A nil transport means the default one.
func (a *App) Cache(transport http.RoundTripper) (*offline.Cache, error) {
	c := a.Config.Cache
	return offline.New(offline.Config{
		Name:      c.Name,
		Version:   c.Version,
		Origin:    c.Origin,
		Dir:       a.Config.CacheDir(),
		Manifest:  c.Manifest,
		Transport: transport,
	})
}

// ReminderOptions maps the reminder section onto notification content.
func (a *App) ReminderOptions() reminder.Options {
	r := a.Config.Reminder
	opts := reminder.DefaultOptions()
	opts.Tag = r.Tag
	opts.Title = r.Title
	opts.Body = r.Body
	opts.Icon = r.Icon
	opts.Badge = r.Badge
	opts.RequireInteraction = r.RequireInteraction
	return opts
}

// Serve runs the device server, the reminder scheduler and the storage
// watch until ctx is done.
func (a *App) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	h := hub.New()
	changes, err := a.KV.Watch(ctx)
	if err != nil {
		return err
	}
	go h.Start(ctx, changes)

	if a.Config.Reminder.Enabled {
		sched := reminder.NewScheduler(reminder.NewIssuer(a.ReminderOptions(), h), a.Config.ReminderInterval())
		go sched.Run(ctx)
	}

	cache, err := a.Cache(nil)
	if err != nil {
		return err
	}
	srv := server.New(server.Deps{
		Store:    a.Store,
		Exports:  a.Exports,
		Admitter: a.Admitter,
		Hub:      h,
		Clicks:   reminder.NewClickHandler(h, h, a.Config.Reminder.DismissOpensApp),
		Cache:    cache,
	}, a.Config.Server.Addr)
	return srv.Start(ctx)
}
