// Package app assembles the matchmaking bot from its parts: storage,
// services, dialogue flows, and the Telegram wiring.
package app

import (
	"context"
	"fmt"

	tele "gopkg.in/telebot.v4"

	botconfig "github.com/m3rciful/meetbot/bot/config"
	"github.com/m3rciful/meetbot/bot/handlers"
	"github.com/m3rciful/meetbot/bot/keyboards"
	"github.com/m3rciful/meetbot/bot/seed"
	"github.com/m3rciful/meetbot/bot/services"
	"github.com/m3rciful/meetbot/bot/storage"
	"github.com/m3rciful/meetbot/bot/texts"
	"github.com/m3rciful/meetbot/core/bootstrap"
	coretelegram "github.com/m3rciful/meetbot/core/telegram"
	"github.com/m3rciful/meetbot/core/telegram/commands"
	"github.com/m3rciful/meetbot/core/telegram/router"
	tgsender "github.com/m3rciful/meetbot/core/telegram/sender"
	"github.com/m3rciful/meetbot/core/telegram/state"
)

// App owns the bot's runtime components after bootstrap.
type App struct {
	cfg      *botconfig.Config
	store    *storage.Store
	handlers *handlers.Handlers
	registry *coretelegram.Registry
	disp     *tgsender.Dispatcher
	mgr      state.Manager
}

// New runs the bootstrap pipeline (logger, database, migrations), builds the
// domain services, and wires the command and callback registry.
func New(cfg *botconfig.Config) (*App, error) {
	res, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	store := storage.New(res.DB)

	if cfg.App.SeedDecoys {
		seeders := []bootstrap.Seeder{
			bootstrap.SeederFunc(func(ctx context.Context, _ bootstrap.Storage) error {
				return seed.Decoys(ctx, store)
			}),
		}
		if err := bootstrap.RunSeeders(context.Background(), store, seeders); err != nil {
			return nil, fmt.Errorf("app: seeding failed: %w", err)
		}
	}

	profiles := services.NewProfileService(store)
	engine := services.NewMatchEngine(store)

	disp := tgsender.NewDispatcher(tgsender.Options{})
	notifier := handlers.NewNotifier(disp)

	mgr := state.NewMemoryManager()
	h := handlers.New(mgr, profiles, engine, notifier)

	a := &App{
		cfg:      cfg,
		store:    store,
		handlers: h,
		disp:     disp,
		mgr:      mgr,
	}
	a.registry = a.buildRegistry()
	return a, nil
}

func (a *App) buildRegistry() *coretelegram.Registry {
	reg := coretelegram.NewRegistry()
	h := a.handlers

	reg.RegisterCommand("/start", commands.Command{
		Handler:     h.Start,
		Description: "Register or redeem a grant link",
	})
	reg.RegisterCommand("/meet", commands.Command{
		Handler:     h.Meet,
		Description: "Request a meeting",
		Aliases:     []string{texts.MeetButton},
	})
	reg.RegisterCommand("/count", commands.Command{
		Handler:     h.Count,
		Description: "Show remaining meeting credits",
	})
	reg.RegisterCommand("/reset", commands.Command{
		Handler:     h.Reset,
		Description: "Delete your profile and history",
	})
	reg.RegisterCommand("/grant", commands.Command{
		Handler:     h.Grant,
		Description: "Credit meetings to a user",
		AdminOnly:   true,
		Hidden:      true,
	})
	reg.RegisterCommand("/grantlink", commands.Command{
		Handler:     h.GrantLink,
		Description: "Mint a one-credit grant link",
		AdminOnly:   true,
		Hidden:      true,
	})

	flows := h.Flows()
	mustRegisterCallback(reg, keyboards.CBRegisterCategory, flows.RegistrationCategoryChosen)
	mustRegisterCallback(reg, keyboards.CBRegisterGender, flows.RegistrationGenderChosen)
	mustRegisterCallback(reg, keyboards.CBMeetCategory, flows.MeetCategoryChosen)
	mustRegisterCallback(reg, keyboards.CBMeetGender, flows.MeetGenderChosen)

	return reg
}

// mustRegisterCallback panics on registration failure. Callback keys are
// compile-time constants, so any error here is a wiring bug caught at startup.
func mustRegisterCallback(reg *coretelegram.Registry, key string, h tele.HandlerFunc) {
	if err := reg.RegisterCallback(key, h); err != nil {
		panic(fmt.Sprintf("callback wiring: %v", err))
	}
}

// TelegramRunOptions builds the run configuration for the shared bot runner.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	cfg := a.cfg.CoreConfig()

	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		AdminID: cfg.Telegram.AdminID,
	})
	routes = append(routes, router.TextRoutes(a.mgr, a.registry, router.TextOptions{
		UnknownText: a.handlers.UnknownText,
	})...)
	routes = append(routes, router.CallbackRoute(a.registry, router.CallbackOptions{}))

	return coretelegram.RunOptions{
		Config:      cfg,
		Registry:    a.registry,
		Dispatcher:  a.disp,
		Middlewares: coretelegram.DefaultMiddlewares(cfg, nil),
		Routes:      routes,
		OnStop: func(ctx context.Context, rt coretelegram.Runtime) error {
			return a.store.Close()
		},
	}, nil
}
