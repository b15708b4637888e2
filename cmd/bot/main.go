// Package main provides the bot entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/humbleledger/internal/api/rest"
	"github.com/osa030/humbleledger/internal/app/activity"
	"github.com/osa030/humbleledger/internal/app/album"
	"github.com/osa030/humbleledger/internal/app/albumclub"
	"github.com/osa030/humbleledger/internal/app/complete"
	"github.com/osa030/humbleledger/internal/app/filter"
	"github.com/osa030/humbleledger/internal/app/forms"
	"github.com/osa030/humbleledger/internal/app/lp"
	"github.com/osa030/humbleledger/internal/app/notification"
	"github.com/osa030/humbleledger/internal/app/poll"
	"github.com/osa030/humbleledger/internal/app/submission"
	"github.com/osa030/humbleledger/internal/app/taste"
	"github.com/osa030/humbleledger/internal/bot"
	"github.com/osa030/humbleledger/internal/infra/config"
	"github.com/osa030/humbleledger/internal/infra/gforms"
	"github.com/osa030/humbleledger/internal/infra/logger"
	"github.com/osa030/humbleledger/internal/infra/sheets"
	"github.com/osa030/humbleledger/internal/infra/spotify"
	"github.com/osa030/humbleledger/internal/infra/store"
)

var (
	app        = kingpin.New("humbleledger", "Discord bot for listening parties and music submissions")
	configPath = app.Flag("config", "Path to config file").Default("config/bot.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	listFiltersCmd = app.Command("list-filters", "List available submission filters and exit")
)

func init() {
	app.Command("start", "Start the bot (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if command == listFiltersCmd.FullCommand() {
		printFilters()
		return
	}

	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
		loggerConfig.File = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Bot error: %+v", err)
		os.Exit(1)
	}
}

// run wires the services and blocks until a shutdown signal. Using a
// separate function ensures deferred cleanup runs on error returns.
func run(cfg *config.Config) error {
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	spotifyClient, err := spotify.New(ctx, spotify.Config{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		RefreshToken: cfg.Spotify.RefreshToken,
		Market:       cfg.Spotify.Market,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create Spotify client")
	}
	sheetsClient, err := sheets.New(ctx, sheets.Config{CredentialsFile: cfg.Google.CredentialsFile})
	if err != nil {
		return errors.Wrap(err, "failed to create Sheets client")
	}
	formsClient, err := gforms.New(ctx, gforms.Config{CredentialsFile: cfg.Google.CredentialsFile})
	if err != nil {
		return errors.Wrap(err, "failed to create Forms client")
	}
	albums, err := album.NewLookupFromConfig(ctx, cfg, spotifyClient)
	if err != nil {
		return errors.Wrap(err, "failed to create album providers")
	}

	playlistFilters, err := filter.NewChainFromConfig(cfg, config.TargetPlaylist)
	if err != nil {
		return errors.Wrap(err, "invalid playlist filter config")
	}
	formFilters, err := filter.NewChainFromConfig(cfg, config.TargetForm)
	if err != nil {
		return errors.Wrap(err, "invalid form filter config")
	}
	albumClubFilters, err := filter.NewChainFromConfig(cfg, config.TargetAlbumClub)
	if err != nil {
		return errors.Wrap(err, "invalid album club filter config")
	}

	session, err := bot.NewSession(cfg.Discord.Token)
	if err != nil {
		return err
	}
	registrar := bot.NewRegistrar(session, cfg.Discord.ApplicationID)

	notifier := notification.NewManager()
	defer notifier.Close()

	lpService := lp.NewService(lp.NewStore(), spotifyClient, lp.Config{
		Roles:      cfg.Discord.LPRoles,
		JoinOffset: cfg.LP.JoinOffset,
	})
	notifier.Subscribe(notification.HandlerFunc(lpService.HandleReady))

	polls := poll.NewManager(poll.Config{
		Question: cfg.Poll.Prompt,
		Emojis:   poll.Emojis{
			Ready:    cfg.Poll.ReadyEmoji,
			NotReady: cfg.Poll.NotReadyEmoji,
			Start:    cfg.Poll.StartEmoji,
		},
		Threshold: cfg.Poll.Threshold,
	}, notifier)

	activities := activity.NewRegistry()
	playlists := submission.NewService(db, sheetsClient, spotifyClient, registrar, playlistFilters)
	formService := forms.NewService(forms.Deps{
		Repo:      db,
		Client:    formsClient,
		Sheets:    sheetsClient,
		Songs:     spotifyClient,
		Albums:    albums,
		Registrar: registrar,
		Filters:   formFilters,
	})
	if err := formService.Load(ctx); err != nil {
		return err
	}

	albumClub := albumclub.NewService(albums, sheetsClient, albumClubFilters, albumclub.Config{
		SpreadsheetID: cfg.AlbumClub.SpreadsheetID,
		Range:         cfg.AlbumClub.Range,
	})

	shortLinks := &http.Client{Timeout: 10 * time.Second}
	tasteService := taste.NewService(sheetsClient, spotifyClient,
		func(ctx context.Context, link string) (string, error) {
			return spotify.ResolveShortLink(ctx, shortLinks, link)
		},
		taste.Config{
			SpreadsheetID: cfg.AcquiringTaste.SpreadsheetID,
			NameFormat:    cfg.AcquiringTaste.PlaylistNameFormat,
		})

	b := bot.New(session, registrar, bot.Config{
		GuildID:        cfg.Discord.GuildID,
		HandlerTimeout: cfg.Discord.HandlerTimeout,
		StartMessage:   cfg.Poll.StartMessage,
	}, bot.Services{
		LP:        lpService,
		Polls:     polls,
		Activity:  activities,
		Playlists: playlists,
		AlbumClub: albumClub,
		Forms:     formService,
		Taste:     tasteService,
		Completer: complete.NewCompleter(spotifyClient, activities, formService, playlists),
	})

	if err := b.Open(); err != nil {
		return err
	}
	defer b.Close()

	// Re-creating forms needs the registrar, so it waits for the session
	if err := formService.CheckForms(ctx); err != nil {
		zlog.Error().Msgf("Failed to check stored forms: %v", err)
	}

	server := rest.NewServer(rest.Config{
		Addr:       cfg.Server.Addr,
		AdminToken: cfg.Admin.Token,
	}, lpService, notifier)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			serverErrCh <- err
		}
	}()

	executeHooks(cfg.Server.Hooks.OnStarted, "on_started")
	zlog.Info().Msg("Bot is running, press Ctrl+C to exit")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown status api: %v", err)
	}

	zlog.Info().Msg("Bot stopped")
	executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")
	return nil
}

// printFilters prints available filters.
func printFilters() {
	fmt.Println("Available Filters:")
	for _, factory := range filter.GetRegistered() {
		f := factory()
		codes := strings.Join(f.ReturnCodes(), ", ")
		fmt.Printf("  %-30s - %s [codes: %s]\n", f.Name(), f.Description(), codes)
	}
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		// sh -c allows redirection and pipes
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}
