// Package main provides the entry point for the Murmur CLI application.
package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/dgnsrekt/murmur/internal/provider"
	"github.com/dgnsrekt/murmur/ui"
	"github.com/dgnsrekt/murmur/utils"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	readmeNames = []string{"README.md", "README", "Readme.md", "Readme", "readme.md", "readme"}

	configFile       string
	style            string
	width            uint
	showAllFiles     bool
	showLineNumbers  bool
	preserveNewLines bool
	mouse            bool
	dataDir          string
	cacheDir         string

	providerName string
	voice        string
	model        string
	language     string
	endpoint     string
	apiKey       string
	speed        float64
	compatMode   bool
	localMode    bool
	noCache      bool
	savePath     string
	watchMode    bool
	textOnly     bool
	tuiMode      bool

	rootCmd = &cobra.Command{
		Use:   "murmur [SOURCE]",
		Short: "Read markdown on the CLI, out loud!",
		Long: paragraph(
			fmt.Sprintf("\nRead markdown on the CLI, %s!", keyword("out loud")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveDefault
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

// source provides a readable markdown source.
type source struct {
	reader io.ReadCloser
	URL    string
}

// sourceFromArg parses an argument and creates a readable source for it.
// Arguments that are neither readable nor named like a markdown file are
// taken as literal text to speak.
func sourceFromArg(arg string) (*source, error) {
	// from stdin
	if arg == "-" {
		return &source{reader: os.Stdin}, nil
	}

	// a GitHub or GitLab URL (even without the protocol):
	src, err := readmeURL(arg)
	if src != nil && err == nil {
		// if there's an error, try next methods...
		return src, nil
	}

	// HTTP(S) URLs:
	if u, err := url.ParseRequestURI(arg); err == nil && strings.Contains(arg, "://") { //nolint:nestif
		if u.Scheme != "" {
			if u.Scheme != "http" && u.Scheme != "https" {
				return nil, fmt.Errorf("%s is not a supported protocol", u.Scheme)
			}
			// consumer of the source is responsible for closing the ReadCloser.
			resp, err := http.Get(u.String()) //nolint: noctx,bodyclose
			if err != nil {
				return nil, fmt.Errorf("unable to get url: %w", err)
			}
			if resp.StatusCode != http.StatusOK {
				return nil, fmt.Errorf("HTTP status %d", resp.StatusCode)
			}
			return &source{resp.Body, u.String()}, nil
		}
	}

	// a directory:
	if len(arg) == 0 {
		// use the current working dir if no argument was supplied
		arg = "."
	}
	st, err := os.Stat(arg)
	if err == nil && st.IsDir() { //nolint:nestif
		var src *source
		_ = filepath.Walk(arg, func(path string, _ os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			for _, v := range readmeNames {
				if strings.EqualFold(filepath.Base(path), v) {
					r, err := os.Open(path)
					if err != nil {
						continue
					}

					u, _ := filepath.Abs(path)
					src = &source{r, u}

					// abort filepath.Walk
					return errors.New("source found")
				}
			}
			return nil
		})

		if src != nil {
			return src, nil
		}

		return nil, errors.New("missing markdown source")
	}

	r, err := os.Open(arg)
	if err != nil {
		if !utils.IsMarkdownFile(arg) {
			return &source{reader: io.NopCloser(strings.NewReader(arg))}, nil
		}
		return nil, fmt.Errorf("unable to open file: %w", err)
	}
	u, err := filepath.Abs(arg)
	if err != nil {
		return nil, fmt.Errorf("unable to get absolute path: %w", err)
	}
	return &source{r, u}, nil
}

// validateStyle checks if the style is a default style, if not, checks that
// the custom style exists.
func validateStyle(style string) error {
	if style != "auto" && styles.DefaultStyles[style] == nil {
		style = utils.ExpandPath(style)
		if _, err := os.Stat(style); errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("specified style does not exist: %s", style)
		} else if err != nil {
			return fmt.Errorf("unable to stat file: %w", err)
		}
	}
	return nil
}

func validateOptions(cmd *cobra.Command) error {
	// grab config values from Viper
	width = viper.GetUint("width")
	mouse = viper.GetBool("mouse")
	showAllFiles = viper.GetBool("all")
	preserveNewLines = viper.GetBool("preserveNewLines")
	showLineNumbers = viper.GetBool("showLineNumbers")

	providerName = viper.GetString("provider")
	voice = viper.GetString("voice")
	model = viper.GetString("model")
	language = viper.GetString("language")
	endpoint = viper.GetString("endpoint")
	apiKey = viper.GetString("apikey")
	speed = viper.GetFloat64("speed")
	compatMode = viper.GetBool("compat")
	localMode = viper.GetBool("local")
	noCache = viper.GetBool("nocache")
	tuiMode = viper.GetBool("tui")

	dataDir = ""
	if v := viper.GetString("datadir"); v != "" {
		dataDir = utils.ExpandPath(v)
	}
	cacheDir = ""
	if v := viper.GetString("cachedir"); v != "" {
		cacheDir = utils.ExpandPath(v)
	}

	if kind := provider.Kind(providerName); !kind.Valid() {
		kinds := make([]string, 0, len(provider.Kinds()))
		for _, k := range provider.Kinds() {
			kinds = append(kinds, k.String())
		}
		return fmt.Errorf("unknown speech provider %q, valid providers are %s", providerName, strings.Join(kinds, ", "))
	}
	if speed != 0 && (speed < 0.25 || speed > 4.0) {
		return fmt.Errorf("speech speed must be between 0.25 and 4.0, got %.2f", speed)
	}
	if watchMode && savePath != "" {
		return errors.New("cannot use --save with --watch")
	}
	if watchMode && textOnly {
		return errors.New("cannot use --text with --watch")
	}
	if tuiMode && (watchMode || textOnly || savePath != "") {
		return errors.New("cannot combine --tui with --watch, --text or --save")
	}

	// validate the glamour style
	style = viper.GetString("style")
	if err := validateStyle(style); err != nil {
		return err
	}

	// Detect terminal width
	if !cmd.Flags().Changed("width") {
		if term.IsTerminal(int(os.Stdout.Fd())) && width == 0 {
			w, _, err := term.GetSize(int(os.Stdout.Fd()))
			if err == nil {
				width = uint(w) //nolint:gosec
			}

			if width > 120 {
				width = 120
			}
		}
		if width == 0 {
			width = 80
		}
	}
	return nil
}

// speechConfig assembles the provider configuration from flags, config and
// environment. Provider API key variables are honored when no key was
// given explicitly.
func speechConfig() provider.Config {
	cfg := provider.Config{
		Kind:              provider.Kind(providerName),
		APIKey:            apiKey,
		Endpoint:          endpoint,
		Model:             model,
		Voice:             voice,
		Language:          language,
		Speed:             speed,
		CompatibilityMode: compatMode,
		Local:             localMode,
	}
	if cfg.APIKey == "" {
		switch cfg.Kind {
		case provider.KindOpenAI:
			cfg.APIKey = os.Getenv("OPENAI_API_KEY")
		case provider.KindAzure:
			cfg.APIKey = os.Getenv("AZURE_SPEECH_KEY")
		}
	}
	return cfg
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to open file: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

func execute(cmd *cobra.Command, args []string) error {
	// if stdin is a pipe then use stdin for input. note that you can also
	// explicitly use a - to read from stdin.
	if yes, err := stdinIsPipe(); err != nil {
		return err
	} else if yes {
		src := &source{reader: os.Stdin}
		defer src.reader.Close() //nolint:errcheck
		return executeCLI(cmd, src, os.Stdout)
	}

	switch len(args) {
	// TUI running on cwd
	case 0:
		if watchMode {
			return errors.New("can only watch a markdown file")
		}
		return runTUI("", "")

	// TUI with possible dir argument
	case 1:
		// Validate that the argument is a directory. If it's not treat it
		// as a source for the non-TUI version of Murmur (via fallthrough).
		info, err := os.Stat(args[0])
		if err == nil && info.IsDir() {
			if watchMode {
				return errors.New("can only watch a markdown file")
			}
			p, err := filepath.Abs(args[0])
			if err == nil {
				return runTUI(p, "")
			}
		}
		fallthrough

	// CLI
	default:
		for _, arg := range args {
			if err := executeArg(cmd, arg, os.Stdout); err != nil {
				return err
			}
		}
	}

	return nil
}

func executeArg(cmd *cobra.Command, arg string, w io.Writer) error {
	// create an io.Reader from the markdown source in cli-args
	src, err := sourceFromArg(arg)
	if err != nil {
		return err
	}
	defer src.reader.Close() //nolint:errcheck
	return executeCLI(cmd, src, w)
}

func executeCLI(cmd *cobra.Command, src *source, w io.Writer) error {
	b, err := io.ReadAll(src.reader)
	if err != nil {
		return fmt.Errorf("unable to read from reader: %w", err)
	}

	b = utils.RemoveFrontmatter(b)
	text := utils.ExtractText(b)

	if textOnly {
		if _, err := fmt.Fprintln(w, text); err != nil {
			return fmt.Errorf("unable to write to writer: %w", err)
		}
		return nil
	}

	if tuiMode || cmd.Flags().Changed("tui") {
		path := ""
		if !isURL(src.URL) {
			path = src.URL
		}
		return runTUI(path, string(b))
	}

	cfg := speechConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("speech provider not configured: %w", err)
	}

	s, err := newSpeaker(os.Stderr, cfg)
	if err != nil {
		return err
	}
	defer s.close()

	if watchMode {
		if src.URL == "" || isURL(src.URL) {
			return errors.New("can only watch a local markdown file")
		}
		return s.speakAndWatch(cmd.Context(), src.URL)
	}

	if err := s.speak(cmd.Context(), text); err != nil {
		return err
	}
	if savePath != "" {
		return s.save(text, savePath)
	}
	return nil
}

func runTUI(path string, content string) error {
	// Read environment to get debugging stuff
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}

	// use style set in env, or auto if unset
	if err := validateStyle(cfg.GlamourStyle); err != nil {
		cfg.GlamourStyle = style
	}

	cfg.Path = path
	cfg.ShowAllFiles = showAllFiles
	cfg.ShowLineNumbers = showLineNumbers
	cfg.GlamourMaxWidth = width
	cfg.EnableMouse = mouse
	cfg.PreserveNewLines = preserveNewLines

	cfg.Speech = speechConfig()
	cfg.DataDir = dataDir
	cfg.CacheDir = cacheDir
	cfg.NoCache = noCache

	// Run Bubble Tea program
	if _, err := ui.NewProgram(cfg, content).Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}

	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.Flags().StringVarP(&style, "style", "s", styles.AutoStyle, "style name or JSON path")
	rootCmd.Flags().UintVar(&width, "width", 0, "word-wrap at width (set to 0 to disable)")
	rootCmd.Flags().BoolVarP(&showAllFiles, "all", "a", false, "show system files and directories (TUI-mode only)")
	rootCmd.Flags().BoolVarP(&showLineNumbers, "line-numbers", "l", false, "show line numbers (TUI-mode only)")
	rootCmd.Flags().BoolVarP(&preserveNewLines, "preserve-new-lines", "n", false, "preserve newlines in the output")
	rootCmd.Flags().BoolVarP(&mouse, "mouse", "m", false, "enable mouse wheel (TUI-mode only)")
	_ = rootCmd.Flags().MarkHidden("mouse")

	rootCmd.Flags().StringVar(&providerName, "provider", string(provider.KindOpenAI), "speech provider (openai, azure, kokoro, custom)")
	rootCmd.Flags().StringVar(&voice, "voice", "", "voice for speech synthesis")
	rootCmd.Flags().StringVar(&model, "model", "", "model for speech synthesis")
	rootCmd.Flags().StringVar(&language, "language", "", "language code, for providers that speak more than one")
	rootCmd.Flags().StringVar(&endpoint, "endpoint", "", "speech API endpoint (custom and self-hosted providers)")
	rootCmd.Flags().StringVar(&apiKey, "api-key", "", "speech API key (prefer the MURMUR_APIKEY environment variable)")
	rootCmd.Flags().Float64Var(&speed, "speed", 1.0, "speech rate (0.25 to 4.0)")
	rootCmd.Flags().BoolVar(&compatMode, "compat", false, "send OpenAI-compatible requests to the endpoint")
	rootCmd.Flags().BoolVar(&localMode, "local", false, "synthesize with the local kokoro worker")
	rootCmd.Flags().StringVar(&savePath, "save", "", "write the synthesized audio to a WAV file")
	rootCmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "speak the file again whenever it changes")
	rootCmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the synthesis cache")
	rootCmd.Flags().BoolVar(&textOnly, "text", false, "print the spoken text instead of speaking it")
	rootCmd.Flags().BoolVarP(&tuiMode, "tui", "t", false, "read the source in the TUI instead of speaking it")

	// Config bindings
	_ = viper.BindPFlag("style", rootCmd.Flags().Lookup("style"))
	_ = viper.BindPFlag("width", rootCmd.Flags().Lookup("width"))
	_ = viper.BindPFlag("all", rootCmd.Flags().Lookup("all"))
	_ = viper.BindPFlag("mouse", rootCmd.Flags().Lookup("mouse"))
	_ = viper.BindPFlag("preserveNewLines", rootCmd.Flags().Lookup("preserve-new-lines"))
	_ = viper.BindPFlag("showLineNumbers", rootCmd.Flags().Lookup("line-numbers"))
	_ = viper.BindPFlag("provider", rootCmd.Flags().Lookup("provider"))
	_ = viper.BindPFlag("voice", rootCmd.Flags().Lookup("voice"))
	_ = viper.BindPFlag("model", rootCmd.Flags().Lookup("model"))
	_ = viper.BindPFlag("language", rootCmd.Flags().Lookup("language"))
	_ = viper.BindPFlag("endpoint", rootCmd.Flags().Lookup("endpoint"))
	_ = viper.BindPFlag("apikey", rootCmd.Flags().Lookup("api-key"))
	_ = viper.BindPFlag("speed", rootCmd.Flags().Lookup("speed"))
	_ = viper.BindPFlag("compat", rootCmd.Flags().Lookup("compat"))
	_ = viper.BindPFlag("local", rootCmd.Flags().Lookup("local"))
	_ = viper.BindPFlag("nocache", rootCmd.Flags().Lookup("no-cache"))
	_ = viper.BindPFlag("tui", rootCmd.Flags().Lookup("tui"))

	viper.SetDefault("style", styles.AutoStyle)
	viper.SetDefault("width", 0)
	viper.SetDefault("all", true)
	viper.SetDefault("provider", string(provider.KindOpenAI))
	viper.SetDefault("speed", 1.0)
	viper.SetDefault("datadir", "")
	viper.SetDefault("cachedir", "")

	rootCmd.AddCommand(configCmd, manCmd, voicesCmd, cacheCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "murmur")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "murmur")}, dirs...)
	}

	if c := os.Getenv("MURMUR_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("murmur")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("murmur")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "murmur.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
