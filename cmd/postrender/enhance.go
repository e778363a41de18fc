package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-postrender"
	"github.com/alnah/go-postrender/internal/config"
)

// Sentinel errors for the enhance command.
var (
	ErrInvalidTimeout       = errors.New("invalid timeout")
	ErrMissingMermaidScript = errors.New("browser diagrams need a mermaid script")
)

// defaultPageTimeout bounds one page when neither flag nor env sets it.
const defaultPageTimeout = 30 * time.Second

// poolFunc builds the enhancer pool for a batch.
type poolFunc func(size int, newFn func() (*postrender.Enhancer, error)) Pool

// newEnhancerPool is the production poolFunc.
func newEnhancerPool(size int, newFn func() (*postrender.Enhancer, error)) Pool {
	return &poolAdapter{pool: postrender.NewEnhancerPool(size, newFn)}
}

// poolAdapter wraps *postrender.EnhancerPool to implement Pool.
type poolAdapter struct {
	pool *postrender.EnhancerPool
}

func (a *poolAdapter) Acquire() (PageEnhancer, error) {
	e, err := a.pool.Acquire()
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (a *poolAdapter) Release(e PageEnhancer) {
	enh, ok := e.(*postrender.Enhancer)
	if !ok {
		panic(fmt.Sprintf("poolAdapter.Release: unexpected type %T", e))
	}
	a.pool.Release(enh)
}

func (a *poolAdapter) Size() int { return a.pool.Size() }

func (a *poolAdapter) Close() error { return a.pool.Close() }

// runEnhance orchestrates the enhance command.
func runEnhance(ctx context.Context, positionalArgs []string, flags *enhanceFlags, env *Environment, newPool poolFunc) error {
	envCfg := loadEnvConfig(env.Getenv)
	warnUnknownEnvVars(env.Stderr, env.Environ())

	// Workers: flag > env > auto
	workers := flags.workers
	if workers == 0 {
		workers = envCfg.Workers
	}
	if err := validateWorkers(workers); err != nil {
		return err
	}

	// Load configuration: flag > env
	cfg := config.DefaultConfig()
	configName := flags.common.config
	if configName == "" {
		configName = envCfg.ConfigPath
	}
	if configName != "" {
		var err error
		cfg, err = config.LoadConfig(configName)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	}

	// Precedence: flags > env > config file > defaults
	applyEnvConfig(envCfg, cfg)
	mergeFlags(flags, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	timeout, err := resolveTimeout(flags.timeout, envCfg.Timeout)
	if err != nil {
		return err
	}

	baseURL, err := resolveBaseURL(cfg.BaseURL)
	if err != nil {
		return err
	}

	inputPath, err := resolveInputPath(positionalArgs, cfg)
	if err != nil {
		return err
	}
	outputDir := resolveOutputDir(flags.output, cfg)

	files, err := discoverFiles(inputPath, outputDir)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w in %s", ErrNoPages, inputPath)
	}

	log := newLogger(env.Stderr, flags.common.quiet, flags.common.verbose)
	defer func() { _ = log.Sync() }()

	newFn, err := enhancerFactory(cfg, timeout, log)
	if err != nil {
		return err
	}

	poolSize := postrender.ResolvePoolSize(workers)
	log.Debug("starting batch",
		zap.Int("pages", len(files)),
		zap.Int("workers", poolSize),
		zap.Duration("timeout", timeout),
		zap.String("diagrams", cfg.Diagrams.Mode))

	pool := newPool(poolSize, newFn)
	if c, ok := pool.(interface{ Close() error }); ok {
		defer func() {
			if err := c.Close(); err != nil {
				log.Warn("closing enhancers", zap.Error(err))
			}
		}()
	}

	results := enhanceBatch(ctx, pool, files, &batchParams{baseURL: baseURL, log: log})

	failed := printResults(results, flags.common.quiet, flags.common.verbose, env)
	if failed > 0 {
		return fmt.Errorf("%d of %d page(s) failed: %w", failed, len(results), firstError(results))
	}

	return nil
}

// mergeFlags merges CLI flags into config. CLI values override config values.
func mergeFlags(flags *enhanceFlags, cfg *config.Config) {
	if flags.baseURL != "" {
		cfg.BaseURL = flags.baseURL
	}
	if flags.diagrams.mode != "" {
		cfg.Diagrams.Mode = flags.diagrams.mode
	}
	if flags.diagrams.script != "" {
		cfg.Diagrams.Script = flags.diagrams.script
	}
	if flags.assets.assetPath != "" {
		cfg.Assets.BasePath = flags.assets.assetPath
	}
	if flags.assets.runtime != "" {
		cfg.Assets.Runtime = flags.assets.runtime
	}
	for _, name := range flags.features.disabled() {
		if !slices.Contains(cfg.Features.Disabled, name) {
			cfg.Features.Disabled = append(cfg.Features.Disabled, name)
		}
	}
}

// resolveTimeout returns the per-page timeout. Priority: flag > env > default.
func resolveTimeout(flagTimeout string, envTimeout time.Duration) (time.Duration, error) {
	if flagTimeout != "" {
		d, err := time.ParseDuration(flagTimeout)
		if err != nil {
			return 0, fmt.Errorf("%w: %q (use a duration like 30s or 2m)", ErrInvalidTimeout, flagTimeout)
		}
		if d <= 0 {
			return 0, fmt.Errorf("%w: %s (must be positive)", ErrInvalidTimeout, flagTimeout)
		}
		return d, nil
	}
	if envTimeout > 0 {
		return envTimeout, nil
	}
	return defaultPageTimeout, nil
}

// resolveBaseURL parses the site base URL. Its path always ends in a slash
// so that page paths resolve below it.
func resolveBaseURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, nil
	}
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		return nil, fmt.Errorf("%w: %q", postrender.ErrInvalidBaseURL, raw)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u, nil
}

// resolveInputPath determines the input path from args or config.
func resolveInputPath(args []string, cfg *config.Config) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if cfg.Input.DefaultDir != "" {
		return cfg.Input.DefaultDir, nil
	}
	return "", ErrNoInput
}

// resolveOutputDir determines the output directory from flag or config.
func resolveOutputDir(flagOutput string, cfg *config.Config) string {
	if flagOutput != "" {
		return flagOutput
	}
	return cfg.Output.DefaultDir
}

// buildOptions translates the configuration into enhancer options shared by
// every enhancer of the batch. The diagram renderer is added per enhancer.
func buildOptions(cfg *config.Config, timeout time.Duration, log *zap.Logger) []postrender.Option {
	opts := []postrender.Option{
		postrender.WithLogger(log),
		postrender.WithTimeout(timeout),
		postrender.WithSelectors(cfg.Selectors.PipelineSelectors()),
		postrender.WithZoom(cfg.Zoom.ZoomOptions()),
		postrender.WithZoomLibrary(postrender.MediumZoom{}),
	}
	if cfg.Assets.BasePath != "" {
		opts = append(opts, postrender.WithAssetPath(cfg.Assets.BasePath))
	}
	if cfg.Assets.Runtime != "" {
		opts = append(opts, postrender.WithRuntime(cfg.Assets.Runtime))
	}
	if len(cfg.Features.Disabled) > 0 {
		opts = append(opts, postrender.WithDisabled(cfg.Features.Disabled...))
	}
	return opts
}

// enhancerFactory returns the constructor the pool calls for each enhancer.
// In browser mode every enhancer owns its own Chrome, launched up front so
// connection failures surface before any page is processed.
func enhancerFactory(cfg *config.Config, timeout time.Duration, log *zap.Logger) (func() (*postrender.Enhancer, error), error) {
	opts := buildOptions(cfg, timeout, log)

	// Validate options once so bad selectors fail before the batch starts.
	check, err := postrender.NewEnhancer(opts...)
	if err != nil {
		return nil, err
	}
	_ = check.Close()

	switch strings.ToLower(cfg.Diagrams.Mode) {
	case config.DiagramsNone:
		opts = append(opts, postrender.WithDiagramRenderer(postrender.NoDiagrams{}))
	case config.DiagramsBrowser:
		if cfg.Diagrams.Script == "" {
			return nil, ErrMissingMermaidScript
		}
		browserCfg := postrender.BrowserConfig{
			MermaidScript: cfg.Diagrams.Script,
			Timeout:       timeout,
			Logger:        log,
		}
		// Fail fast on an unreadable script instead of once per enhancer.
		renderer, err := postrender.NewBrowserDiagramRenderer(browserCfg)
		if err != nil {
			return nil, err
		}
		_ = renderer.Close()

		return func() (*postrender.Enhancer, error) {
			r, err := postrender.NewBrowserDiagramRenderer(browserCfg)
			if err != nil {
				return nil, err
			}
			if err := r.Launch(); err != nil {
				_ = r.Close()
				return nil, err
			}
			enhOpts := append(append([]postrender.Option{}, opts...), postrender.WithDiagramRenderer(r))
			e, err := postrender.NewEnhancer(enhOpts...)
			if err != nil {
				_ = r.Close()
				return nil, err
			}
			return e, nil
		}, nil
	default:
		opts = append(opts, postrender.WithDiagramRenderer(postrender.MermaidScript{}))
	}

	return func() (*postrender.Enhancer, error) {
		return postrender.NewEnhancer(opts...)
	}, nil
}
