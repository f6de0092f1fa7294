// Package command implements the resourcectl subcommands.
package command

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/cli"

	"github.com/kbukum/resourcekit/config"
	"github.com/kbukum/resourcekit/logger"
	"github.com/kbukum/resourcekit/observability"
	"github.com/kbukum/resourcekit/resource"
	"github.com/kbukum/resourcekit/transport"
	"github.com/kbukum/resourcekit/version"
)

// Name is the program name used for config lookup and logging.
const Name = "resourcectl"

// EnvPrefix prefixes environment overrides, e.g. RESOURCECTL_CLIENT_BASE_URL.
const EnvPrefix = "RESOURCECTL"

// Meta is shared by every command.
type Meta struct {
	UI cli.Ui
	// LogWriter receives log output. Defaults to stderr.
	LogWriter io.Writer
}

// Main runs the CLI with the given arguments and returns the exit code.
func Main(args []string, meta *Meta) int {
	if len(args) == 2 && (args[1] == "-version" || args[1] == "-v") {
		args = []string{args[0], "version"}
	}

	c := &cli.CLI{
		Name:     Name,
		Args:     args[1:],
		Version:  version.Get().Short(),
		Commands: Commands(meta),
	}
	code, err := c.Run()
	if err != nil {
		meta.UI.Error(err.Error())
		return 1
	}
	return code
}

// Commands returns the command table.
func Commands(meta *Meta) map[string]cli.CommandFactory {
	return map[string]cli.CommandFactory{
		"get":     func() (cli.Command, error) { return &GetCommand{Meta: meta}, nil },
		"list":    func() (cli.Command, error) { return &ListCommand{Meta: meta}, nil },
		"create":  func() (cli.Command, error) { return &CreateCommand{Meta: meta}, nil },
		"patch":   func() (cli.Command, error) { return &PatchCommand{Meta: meta}, nil },
		"delete":  func() (cli.Command, error) { return &DeleteCommand{Meta: meta}, nil },
		"version": func() (cli.Command, error) { return &VersionCommand{Meta: meta}, nil },
	}
}

// headerFlags collects repeated -header name=value flags.
type headerFlags map[string]string

func (h headerFlags) String() string {
	parts := make([]string, 0, len(h))
	for k, v := range h {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ",")
}

func (h headerFlags) Set(s string) error {
	name, value, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return fmt.Errorf("header must be name=value, got %q", s)
	}
	h[name] = value
	return nil
}

// commonFlags are accepted by every API command.
type commonFlags struct {
	configFile string
	envFile    string
	baseURL    string
	output     string
	timeout    time.Duration
	headers    headerFlags
}

func (m *Meta) flagSet(name string, cf *commonFlags) *flag.FlagSet {
	f := flag.NewFlagSet(name, flag.ContinueOnError)
	f.SetOutput(io.Discard)
	cf.headers = headerFlags{}
	f.StringVar(&cf.configFile, "config", "", "Path to config.yml")
	f.StringVar(&cf.envFile, "env-file", "", "Path to a .env file")
	f.StringVar(&cf.baseURL, "base-url", "", "[RESOURCECTL_CLIENT_BASE_URL] API base URL")
	f.StringVar(&cf.output, "output", "", "Output format: json or yaml")
	f.DurationVar(&cf.timeout, "timeout", 0, "Per-request timeout")
	f.Var(cf.headers, "header", "Extra request header name=value, repeatable")
	return f
}

const commonHelp = `
Common options:

  -config=<path>      Path to config.yml.
  -env-file=<path>    Path to a .env file.
  -base-url=<url>     API base URL. Overrides client.base_url.
  -output=json|yaml   Output format.
  -timeout=<dur>      Per-request timeout.
  -header=name=value  Extra request header. Repeatable.
`

// session is everything an API command needs.
type session struct {
	cfg     config.Config
	log     *logger.Logger
	client  *resource.Client
	adapter *transport.Adapter
	headers map[string]string
	closers []func(context.Context) error
}

func (s *session) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			s.log.Warn("shutdown failed", logger.Fields(logger.FieldError, err.Error()))
		}
	}
}

func (m *Meta) open(ctx context.Context, cf *commonFlags) (*session, error) {
	opts := []config.Option{config.WithEnvPrefix(EnvPrefix)}
	if cf.configFile != "" {
		opts = append(opts, config.WithConfigFile(cf.configFile))
	}
	if cf.envFile != "" {
		opts = append(opts, config.WithEnvFile(cf.envFile))
	}

	var cfg config.Config
	if err := config.Load(Name, &cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.Name == "" {
		cfg.Name = Name
	}
	if cf.baseURL != "" {
		cfg.Client.BaseURL = cf.baseURL
	}
	if cf.output != "" {
		cfg.Output = cf.output
	}
	if cf.timeout > 0 {
		cfg.Client.Timeout = cf.timeout
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Client.BaseURL == "" {
		return nil, fmt.Errorf("no base url: set client.base_url or -base-url")
	}

	w := m.LogWriter
	if w == nil {
		w = os.Stderr
	}
	log := logger.NewWithWriter(&cfg.Logging, Name, w)
	logger.SetGlobalLogger(log)

	s := &session{cfg: cfg, log: log, headers: cf.headers}

	if cfg.Tracing.Enabled {
		tp, err := observability.InitTracer(ctx, cfg.Tracing)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, tp.Shutdown)
	}
	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		mp, err := observability.InitMeter(ctx, cfg.Metrics)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, mp.Shutdown)
		if metrics, err = observability.NewMetrics(observability.Meter(observability.InstrumentationName)); err != nil {
			s.Close()
			return nil, err
		}
	}

	adapter, err := transport.New(cfg.Client, transport.WithMiddleware(
		transport.WithRequestID(),
		transport.WithLogging(log),
	))
	if err != nil {
		s.Close()
		return nil, err
	}
	s.adapter = adapter
	s.closers = append(s.closers, func(context.Context) error { return adapter.Close() })

	reg, err := registry(cfg)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.client = resource.NewClient(adapter, reg,
		resource.WithLogger(log),
		resource.WithMetrics(metrics),
	)
	return s, nil
}

func registry(cfg config.Config) (*resource.Registry, error) {
	reg := resource.NewRegistry()
	for _, kind := range cfg.KindsOf(config.KindEntity) {
		if err := reg.RegisterEntity(kind); err != nil {
			return nil, err
		}
	}
	for _, kind := range cfg.KindsOf(config.KindCollection) {
		if err := reg.RegisterCollection(kind); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// fail reports err and returns the exit code for it.
func (m *Meta) fail(err error) int {
	m.UI.Error(err.Error())
	return 1
}
