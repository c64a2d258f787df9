package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"node.town/parley/assemblyai"
	"node.town/parley/config"
	"node.town/parley/session"
	"node.town/parley/translate"
	"node.town/parley/tts"
	"node.town/parley/www"
)

var (
	logger     *log.Logger
	configFile string
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().
		StringVar(&configFile, "config", "", "Config file (default ./parley.yaml)")
	rootCmd.PersistentFlags().
		String("assemblyai-api-key", "", "AssemblyAI API key")
	rootCmd.PersistentFlags().String("openai-api-key", "", "OpenAI API key")
	rootCmd.PersistentFlags().String("log-level", "", "Log level")
	serveCmd.Flags().IntP("port", "p", 3000, "HTTP server port")
	serveCmd.Flags().String("tts", "", "Speech backend: openai, elevenlabs or polly")

	viper.BindPFlag(
		"assemblyai.api_key",
		rootCmd.PersistentFlags().Lookup("assemblyai-api-key"),
	)
	viper.BindPFlag(
		"openai.api_key",
		rootCmd.PersistentFlags().Lookup("openai-api-key"),
	)
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("http.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("tts.backend", serveCmd.Flags().Lookup("tts"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(languagesCmd)
}

func initConfig() {
	logger = log.New(os.Stderr)

	if err := config.Init(viper.GetViper(), configFile); err != nil {
		logger.Fatal("read config", "error", err)
	}
	if used := viper.ConfigFileUsed(); used != "" {
		logger.Debug("config", "file", used)
	}
}

var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "Parley is a live two-way speech translator",
	Long: `Parley relays browser microphone audio to AssemblyAI streaming
transcription, translates each finished turn and speaks the translation back.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and websocket server",
	Run:   runServe,
}

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List supported languages and their voices",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			logger.Fatal("load config", "error", err)
		}
		printLanguages(os.Stdout, cfg)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		logger.Fatal("load config", "error", err)
	}

	mainLogger, httpLogger, linkLogger, turnLogger, sayLogger, tranLogger :=
		createLoggers(cfg.Log.Level)

	if cfg.AssemblyAI.APIKey == "" {
		mainLogger.Warn("missing ASSEMBLYAI_API_KEY or --assemblyai-api-key=")
	}
	if cfg.OpenAI.APIKey == "" {
		mainLogger.Warn("missing OPENAI_API_KEY or --openai-api-key=")
	}

	stt := assemblyai.NewClient(cfg.AssemblyAI.APIKey, linkLogger)
	if cfg.AssemblyAI.URL != "" {
		stt.URL = cfg.AssemblyAI.URL
	}
	if cfg.AssemblyAI.SpeechModel != "" {
		stt.SpeechModel = cfg.AssemblyAI.SpeechModel
	}

	synthesizer, err := tts.New(cfg, sayLogger)
	if err != nil {
		mainLogger.Fatal("create synthesizer", "error", err)
	}

	translator := translate.NewOpenAITranslator(
		tts.OpenAIClientConfig(cfg.OpenAI),
		cfg.OpenAI.TranslateModel,
		tranLogger,
	)

	server := &www.Server{
		Connector:            session.AssemblyAI(stt),
		Translator:           translator,
		Synthesizer:          synthesizer,
		Defaults:             session.ConfigFromSettings(cfg.Session),
		StaticDir:            cfg.HTTP.StaticDir,
		AssemblyAIConfigured: cfg.AssemblyAI.APIKey != "",
		OpenAIConfigured:     cfg.OpenAI.APIKey != "",
		Logger:               httpLogger,
		SessionLogger:        turnLogger,
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	mainLogger.Info(
		"serve",
		"tts", cfg.TTS.Backend,
		"pair", cfg.Session.LanguageA+"/"+cfg.Session.LanguageB,
	)
	if err := server.Serve(ctx, cfg.HTTP.Port); err != nil {
		mainLogger.Fatal("serve", "error", err)
	}
	mainLogger.Info("bye")
}

func printLanguages(w io.Writer, cfg *config.Config) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Code", "Language", "OpenAI", "Polly", "ElevenLabs"})
	table.SetBorder(false)
	table.SetCenterSeparator("|")
	table.SetColumnSeparator("|")
	table.SetRowSeparator("-")
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)

	for _, row := range languageRows(cfg) {
		table.Append(row)
	}
	table.Render()
}

func languageRows(cfg *config.Config) [][]string {
	rows := make([][]string, 0, len(translate.Languages))
	for _, code := range translate.Languages {
		polly := tts.PollyVoices[code]
		if v := cfg.TTS.Polly.Voices[code]; v != "" {
			polly = v
		}
		eleven := cfg.TTS.ElevenLabs.Voices[code]
		if eleven == "" {
			eleven = "-"
		}
		rows = append(rows, []string{
			code,
			translate.LanguageName(code),
			string(tts.OpenAIVoices[code]),
			polly,
			eleven,
		})
	}
	return rows
}

func createLoggers(level string) (
	mainLogger, httpLogger, linkLogger, turnLogger, sayLogger, tranLogger *log.Logger,
) {
	logLevel, err := log.ParseLevel(level)
	if err != nil {
		logLevel = log.InfoLevel
	}

	logger.SetLevel(logLevel)
	logger.SetReportCaller(true)
	logger.SetCallerFormatter(
		func(file string, line int, funcName string) string {
			path, err := filepath.Rel(".", file)
			if err != nil {
				path = file
			}
			return fmt.Sprintf("%s:%d", path, line)
		},
	)

	styles := log.DefaultStyles()
	styles.Prefix = styles.Prefix.MarginTop(1).
		Bold(false).Transform(func(s string) string {
		return strings.TrimSuffix(s, ":")
	})
	styles.Levels[log.InfoLevel] = styles.Levels[log.InfoLevel].
		MaxWidth(6).
		MarginRight(1).
		Bold(false)
	styles.Levels[log.ErrorLevel] = styles.Levels[log.ErrorLevel].
		MaxWidth(6).
		MarginRight(1).
		Bold(false)
	styles.Message = styles.Message.Bold(true).Width(24)
	styles.Key = styles.Key.MarginLeft(1).
		Bold(false).
		Foreground(lipgloss.Color("#ff8800"))

	logger.SetStyles(styles)

	mainLogger = logger.With().WithPrefix("main")
	httpLogger = logger.With().WithPrefix("http")
	linkLogger = logger.With().WithPrefix("link")
	turnLogger = logger.With().WithPrefix("turn")
	sayLogger = logger.With().WithPrefix("say")
	tranLogger = logger.With().WithPrefix("tran")

	return
}
