package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotx/internal/auth"
	"github.com/desertthunder/spotx/internal/credentials"
	"github.com/desertthunder/spotx/internal/repositories"
	"github.com/desertthunder/spotx/internal/services"
	"github.com/desertthunder/spotx/internal/shared"
	"github.com/desertthunder/spotx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	store      *credentials.Store
	auth       *auth.Manager
	spotify    *services.SpotifyService
	cache      *repositories.SearchCache
	db         *sql.DB
	httpClient *http.Client
	logger     *log.Logger
	input      io.Reader
	output     io.Writer
	logFile    io.Closer
	engine     *tasks.PlaylistEngine

	// wiredSpotify is set when setup built the service around its own cache.
	wiredSpotify bool
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Dependencies left nil are built from Config by [Runner.setup].
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Store      *credentials.Store
	Auth       *auth.Manager
	Spotify    *services.SpotifyService
	Cache      *repositories.SearchCache
	HTTPClient *http.Client
	Logger     *log.Logger
	Input      io.Reader
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		store:      opts.Store,
		auth:       opts.Auth,
		spotify:    opts.Spotify,
		cache:      opts.Cache,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		input:      opts.Input,
		output:     opts.Output,
	}
	if r.spotify != nil {
		r.engine = tasks.NewPlaylistEngine(r.spotify, r.tokens())
	}
	return r
}

// tokens returns the manager as a provider, or nil when none is wired.
func (r *Runner) tokens() services.TokenProvider {
	if r.auth == nil {
		return nil
	}
	return r.auth
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		configCommand, authCommand, searchCommand, playlistCommand, cacheCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// setup loads settings and wires whatever dependencies were not injected.
// It runs before every command.
func (r *Runner) setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	if r.configPath == "" {
		r.configPath = cmd.String("config")
	}
	if r.configPath == "" {
		path, err := shared.DefaultConfigPath()
		if err != nil {
			return ctx, err
		}
		r.configPath = path
	}

	if r.config == nil {
		if err := r.loadConfig(); err != nil {
			return ctx, err
		}
	}

	if !cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, shared.ParseLogLevel(r.config.Log.Level))
	}

	logPath := cmd.String("log-file")
	if logPath == "" {
		logPath = r.config.Log.File
	}
	if logPath != "" && r.logFile == nil {
		path, err := shared.ExpandHome(logPath)
		if err != nil {
			return ctx, err
		}
		w := shared.NewFileWriter(path)
		r.logFile = w
		r.logger.SetOutput(io.MultiWriter(os.Stderr, w))
	}

	if r.store == nil {
		if err := r.openStore(); err != nil {
			return ctx, err
		}
	}

	if r.auth == nil {
		r.auth = auth.NewManager(r.store, r.config.Spotify,
			auth.WithHTTPClient(r.httpClient),
			auth.WithLogger(shared.WithLogger(r.logger, "component", "auth")),
		)
	}

	if r.cache == nil && r.config.Cache.Enabled && !cmd.Bool("no-cache") {
		if err := r.openCache(); err != nil {
			r.logger.Warn("search cache unavailable", "error", err)
		}
	}

	if r.spotify == nil {
		opts := []services.SpotifyOption{
			services.WithBaseURL(r.config.Spotify.APIURL),
			services.WithHTTPClient(r.httpClient),
			services.WithRateLimit(r.config.Resolver.RateLimit),
			services.WithLogger(shared.WithLogger(r.logger, "component", "api")),
		}
		if r.cache != nil {
			opts = append(opts, services.WithCache(r.cache))
		}
		r.spotify = services.NewSpotifyService(r.auth, opts...)
		r.wiredSpotify = true
	}

	if r.engine == nil {
		r.engine = tasks.NewPlaylistEngine(r.spotify, r.tokens())
	}

	return ctx, nil
}

func (r *Runner) loadConfig() error {
	if _, err := os.Stat(r.configPath); err != nil {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
		r.config = shared.DefaultConfig()
		return nil
	}

	config, err := shared.LoadConfig(r.configPath)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}
	r.config = config
	return nil
}

func (r *Runner) openStore() error {
	path, err := r.config.CredentialsPath()
	if err != nil {
		return err
	}
	legacy, err := r.config.LegacyPath()
	if err != nil {
		return err
	}

	r.store = credentials.Open(path,
		credentials.WithLegacyPath(legacy),
		credentials.WithLogger(shared.WithLogger(r.logger, "component", "credentials")),
	)
	return nil
}

func (r *Runner) openCache() error {
	path, err := r.config.CachePath()
	if err != nil {
		return err
	}

	db, err := shared.NewDatabase(path)
	if err != nil {
		return err
	}
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.db = db
	r.cache = repositories.NewSearchCache(db, r.config.Cache.TTL.Duration)
	return nil
}

// teardown releases the cache database and log file, dropping whatever was built on them.
func (r *Runner) teardown(ctx context.Context, cmd *cli.Command) error {
	if r.db != nil {
		if err := r.db.Close(); err != nil {
			r.logger.Warn("failed to close cache database", "error", err)
		}
		r.db, r.cache = nil, nil
	}
	if r.wiredSpotify {
		r.spotify, r.engine, r.wiredSpotify = nil, nil, false
	}
	if r.logFile != nil {
		r.logFile.Close()
		r.logFile = nil
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
