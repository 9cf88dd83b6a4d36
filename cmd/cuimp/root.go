package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ZebulonRouseFrantzich/cuimp"
	"github.com/ZebulonRouseFrantzich/cuimp/internal/config"
	"github.com/ZebulonRouseFrantzich/cuimp/internal/platform"
)

const defaultEnvFile = ".env"

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath     string
	envFile        string
	verbose        bool
	browser        string
	browserVersion string
	proxy          string
	cacheDir       string
	binaryPath     string
	systemBinary   bool
	noProgress     bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "cuimp",
		Short: "Make HTTP requests that look like they come from a real browser",
		Long: `cuimp drives curl-impersonate to send requests with the TLS and HTTP/2
fingerprint of a real browser. The right curl-impersonate build is
downloaded, verified and cached on first use.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadDotEnv(g.envFile)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&g.configPath, "config", "c", "", "config file (default ~/.cuimp/config.lua)")
	flags.StringVar(&g.envFile, "env-file", "", "dotenv file to load (default .env if present)")
	flags.BoolVarP(&g.verbose, "verbose", "v", false, "enable debug logging")
	flags.StringVarP(&g.browser, "browser", "b", "", "browser to impersonate (chrome, edge, firefox, safari)")
	flags.StringVar(&g.browserVersion, "browser-version", "", "browser version (default latest)")
	flags.StringVar(&g.proxy, "proxy", "", "proxy URL (http, https, socks4, socks5)")
	flags.StringVar(&g.cacheDir, "cache-dir", "", "binary cache directory (default ~/.cuimp/binaries)")
	flags.StringVar(&g.binaryPath, "binary", "", "use this curl-impersonate binary instead of provisioning one")
	flags.BoolVar(&g.systemBinary, "system-binary", false, "prefer a curl-impersonate installed on the system")
	flags.BoolVar(&g.noProgress, "no-progress", false, "hide the download progress bar")

	root.AddCommand(
		newRequestCmd(g),
		newPreviewCmd(g),
		newBinaryCmd(g),
		newConfigCmd(g),
		newProfilesCmd(),
	)
	return root
}

// loadDotEnv loads path into the environment without overriding variables
// that are already set. The default file is optional.
func loadDotEnv(path string) error {
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}
	err := godotenv.Load(path)
	if err == nil || (!explicit && errors.Is(err, fs.ErrNotExist)) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

func newLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level)
	return zap.New(core)
}

// clientSession bundles a client with what must be released after use.
type clientSession struct {
	client *cuimp.Client
	logger *zap.Logger
	bar    *downloadBar
}

func (s *clientSession) Close() {
	s.bar.Finish()
	_ = s.logger.Sync()
}

// newClient loads the configuration and layers the command-line flags on
// top of it.
func newClient(cmd *cobra.Command, g *globalFlags) (*clientSession, error) {
	logger := newLogger(cmd.ErrOrStderr(), g.verbose)

	cfg, err := config.Load(cmd.Context(), g.configPath, platform.NewDetector(), config.NewZapLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("load config: %s", config.FormatError(err, g.verbose))
	}

	opts := []cuimp.Option{cuimp.WithConfig(cfg), cuimp.WithZap(logger)}
	if g.browser != "" || g.browserVersion != "" {
		browser := g.browser
		if browser == "" {
			browser = cfg.Browser
		}
		opts = append(opts, cuimp.WithBrowser(browser, g.browserVersion))
	}
	if g.proxy != "" {
		opts = append(opts, cuimp.WithProxy(g.proxy))
	}
	if g.cacheDir != "" {
		opts = append(opts, cuimp.WithCacheDir(g.cacheDir))
	}
	if g.binaryPath != "" {
		opts = append(opts, cuimp.WithBinaryPath(g.binaryPath))
	}
	if g.systemBinary {
		opts = append(opts, cuimp.WithSystemBinary())
	}

	s := &clientSession{logger: logger}
	if !g.noProgress {
		s.bar = newDownloadBar(cmd.ErrOrStderr())
		opts = append(opts, cuimp.WithProgress(s.bar.Update))
	}

	client, err := cuimp.New(opts...)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.client = client
	return s, nil
}
