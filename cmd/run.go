package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"economy/bot"
	"economy/config"
	"economy/database"
	"economy/events"
	"economy/models"
	"economy/repository"
	"economy/service"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// storage holds the repositories of the configured backend
type storage struct {
	accounts service.AccountRepository
	settings service.SettingsRepository
	close    func()
}

// openStorage opens the JSON documents or the postgres database. The postgres backend also
// records balance history and interest runs from bus events.
func openStorage(ctx context.Context, cfg *config.Config, bus *events.Bus) (*storage, error) {
	switch cfg.StorageBackend {
	case config.StoragePostgres:
		databaseURL := database.ConstructDatabaseURL(cfg.DatabaseURL, cfg.DatabaseName)
		if err := database.RunMigrationsWithURL(databaseURL); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		db, err := database.NewConnection(ctx, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		recorder := repository.NewHistoryRecorder(
			repository.NewBalanceHistoryRepository(db),
			repository.NewInterestRunRepository(db),
		)
		recorder.Attach(bus)

		return &storage{
			accounts: repository.NewAccountRepository(db),
			settings: repository.NewSettingsRepository(db),
			close:    db.Close,
		}, nil
	default:
		log.WithFields(log.Fields{
			"ledger":   cfg.LedgerPath,
			"settings": cfg.SettingsPath,
		}).Info("Using JSON document storage")
		return &storage{
			accounts: repository.NewJSONAccountRepository(cfg.LedgerPath),
			settings: repository.NewJSONSettingsRepository(cfg.SettingsPath),
			close:    func() {},
		}, nil
	}
}

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()
	cfg.ConfigureLogging()
	log.WithFields(log.Fields{
		"environment": cfg.Environment,
		"storage":     cfg.StorageBackend,
	}).Info("Starting economy bot")

	eventBus := events.NewBus()

	store, err := openStorage(ctx, cfg, eventBus)
	if err != nil {
		return err
	}
	defer store.close()

	if cfg.NATSURL != "" {
		nc, err := events.ConnectNATS(cfg.NATSURL)
		if err != nil {
			return err
		}
		defer func() {
			if err := nc.Drain(); err != nil {
				log.WithError(err).Warn("Failed to drain NATS connection")
			}
		}()
		events.NewNATSForwarder(nc, cfg.NATSSubject).Attach(eventBus)
	}

	ledger, err := service.NewLedger(ctx, store.accounts, eventBus)
	if err != nil {
		return err
	}
	settings, err := service.NewSettingsService(ctx, store.settings, models.EconomySettings{
		InterestRate:   cfg.DefaultInterestRate,
		InterestPeriod: cfg.DefaultInterestPeriod,
	}, eventBus)
	if err != nil {
		return err
	}
	dice := service.NewDiceService(ledger, cfg.DiceTimeout)
	stopInterest := service.NewInterestWorker(ledger, settings).Start(ctx)

	svc := bot.Services{Ledger: ledger, Settings: settings, Dice: dice}
	g, gctx := errgroup.WithContext(ctx)

	var discordBot *bot.Bot
	if cfg.DiscordToken != "" {
		session, err := bot.NewSession(cfg.DiscordToken)
		if err != nil {
			stopInterest()
			return err
		}
		resolver := bot.NewDiscordUserResolver(session)
		router := bot.NewRouter(
			bot.NewDiscordPermissions(session, cfg.AdminUserIDs),
			bot.NewCommandLimiter(cfg.CommandRatePerSecond, cfg.CommandBurst),
		)
		bot.RegisterFeatures(router, cfg.CommandPrefix, svc, resolver)

		discordBot, err = bot.New(bot.Config{
			Token:        cfg.DiscordToken,
			GuildID:      cfg.DiscordGuildID,
			Prefix:       cfg.CommandPrefix,
			AdminUserIDs: cfg.AdminUserIDs,
		}, session, router, resolver, eventBus)
		if err != nil {
			stopInterest()
			return fmt.Errorf("failed to initialize Discord bot: %w", err)
		}
	}

	if cfg.DebugAPIAddr != "" {
		router := bot.NewRouter(bot.NewStaticPermissions(cfg.AdminUserIDs), nil)
		bot.RegisterFeatures(router, cfg.CommandPrefix, svc, bot.PlainUserResolver{})
		api := bot.NewDebugAPI(cfg.DebugAPIAddr, cfg.CommandPrefix, router, ledger, dice)

		g.Go(api.Start)
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return api.Shutdown(shutdownCtx)
		})
	}

	log.WithField("accounts", ledger.Count()).Info("Economy bot is running")
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})
	runErr := g.Wait()
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.WithError(runErr).Error("Shutting down after error")
	} else {
		runErr = nil
	}

	log.Info("Shutting down economy bot")
	if discordBot != nil {
		if err := discordBot.Close(); err != nil {
			log.WithError(err).Error("Error closing Discord bot")
		}
	}
	stopInterest()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := dice.Close(shutdownCtx); err != nil {
		log.WithError(err).Error("Failed to refund pending dice games")
	}
	eventBus.Wait()

	log.Info("Shutdown completed")
	return runErr
}
