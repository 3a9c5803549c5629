package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"bankassist/internal/app"
	"bankassist/internal/bus"
	"bankassist/internal/channel"
	"bankassist/internal/chat"
	"bankassist/internal/config"
	"bankassist/internal/domain"
	"bankassist/internal/goal"
	"bankassist/internal/statement"
	"bankassist/internal/stats"
	"bankassist/internal/voice"
	"bankassist/internal/webhook"

	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:     "bankassist",
		Short:   "Personal banking AI assistant",
		Long:    "bankassist is a chat, voice, and analytics front end for an AI financial assistant.",
		Version: version,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml (default: ~/.bankassist/config.yaml)")

	root.AddCommand(initCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(chatCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(statsCmd())
	root.AddCommand(goalCmd())
	root.AddCommand(voiceCmd())
	root.AddCommand(analyzeCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefaults(resolveConfigPath())
	if err != nil {
		return nil, err
	}
	logger = buildLogger(cfg)
	return cfg, nil
}

func buildLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.General.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var out io.Writer = os.Stderr
	if cfg.General.LogFile != "" {
		f, err := os.OpenFile(cfg.General.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			logger.Warn("cannot open log file, logging to stderr", "path", cfg.General.LogFile, "err", err)
		} else {
			out = f
		}
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
}

func newWebhookClient(cfg *config.Config) *webhook.Client {
	return webhook.NewClient(webhook.ClientConfig{
		ChatURL:  cfg.Endpoints.ChatWebhook,
		AudioURL: cfg.Endpoints.AudioWebhook,
		Logger:   logger,
	})
}

func newStatsAdapter(cfg *config.Config) *stats.Adapter {
	client := stats.NewClient(stats.ClientConfig{
		BaseURL: cfg.Endpoints.StatisticsBase,
		Timeout: time.Duration(cfg.Statistics.TimeoutSeconds) * time.Second,
		Logger:  logger,
	})
	return stats.NewAdapter(client, cfg.Statistics.MockFallback, logger)
}

// newRecognizer builds the dictation engine, or nil when unconfigured.
func newRecognizer(cfg *config.Config) domain.Recognizer {
	rec, err := voice.NewRecognizer(cfg.Voice.Recognizer, logger)
	if err != nil {
		if errors.Is(err, domain.ErrRecognizerUnavailable) {
			logger.Info("speech recognition not configured, dictation disabled")
		} else {
			logger.Warn("recognizer setup failed", "err", err)
		}
		return nil
	}
	return rec
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
				return err
			}
			if err := config.Save(cfgPath, config.Defaults()); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath)
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			fmt.Printf("bankassist v%s\n\n", version)
			if _, err := os.Stat(cfgPath); err == nil {
				fmt.Printf("Config:      %s\n", cfgPath)
			} else {
				fmt.Printf("Config:      %s (not found, using defaults)\n", cfgPath)
			}
			fmt.Printf("Log level:   %s\n", cfg.General.LogLevel)
			fmt.Printf("Chat:        %s\n", cfg.Endpoints.ChatWebhook)
			fmt.Printf("Audio:       %s\n", cfg.Endpoints.AudioWebhook)
			fmt.Printf("Goals:       %s\n", cfg.Endpoints.GoalWebhook)
			fmt.Printf("Statistics:  %s (timeout %ds, mock fallback %v)\n",
				cfg.Endpoints.StatisticsBase, cfg.Statistics.TimeoutSeconds, cfg.Statistics.MockFallback)
			if cfg.Voice.Recognizer.APIKey != "" {
				fmt.Printf("Dictation:   %s (%s)\n", cfg.Voice.Recognizer.APIBase, cfg.Voice.Recognizer.Model)
			} else {
				fmt.Println("Dictation:   not configured")
			}
			if cfg.Channels.Web.Enabled {
				fmt.Printf("Web:         %s:%d\n", cfg.Channels.Web.Host, cfg.Channels.Web.Port)
			} else {
				fmt.Println("Web:         disabled")
			}
			return nil
		},
	}
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start interactive chat in the terminal",
		RunE:  runChat,
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	messageBus := bus.New(100, logger)
	defer messageBus.Close()

	sender := newWebhookClient(cfg)
	worker := app.NewWorker(app.WorkerConfig{
		Bus:         messageBus,
		NewComposer: func() *chat.Composer { return chat.NewComposer(sender, logger) },
		Logger:      logger,
	})
	go worker.Run(ctx)

	cli := channel.NewCLI(channel.CLIConfig{
		Logger:     logger,
		Recognizer: newRecognizer(cfg),
	})
	return cli.Start(ctx, messageBus)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the web client and API",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Channels.Web.Enabled {
		return errors.New("web channel disabled in config (channels.web.enabled)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	messageBus := bus.New(100, logger)
	defer messageBus.Close()

	sender := newWebhookClient(cfg)
	worker := app.NewWorker(app.WorkerConfig{
		Bus:         messageBus,
		NewComposer: func() *chat.Composer { return chat.NewComposer(sender, logger) },
		Logger:      logger,
	})
	go worker.Run(ctx)

	web := channel.NewWeb(channel.WebConfig{
		Host:          cfg.Channels.Web.Host,
		Port:          cfg.Channels.Web.Port,
		Stats:         newStatsAdapter(cfg),
		DefaultUserID: cfg.Statistics.DefaultUserID,
		Voice:         sender,
		Statement: statement.NewClient(statement.ClientConfig{
			AnalyzeURL: cfg.Endpoints.StatementAnalyze,
			UploadURL:  cfg.Endpoints.FileUpload,
			Logger:     logger,
		}),
		MetricsEnabled:  cfg.Metrics.Enabled,
		MetricsEndpoint: cfg.Metrics.Endpoint,
		Logger:          logger,
	})
	return web.Start(ctx, messageBus)
}

func statsCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Fetch the financial dashboard snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if userID == "" {
				userID = cfg.Statistics.DefaultUserID
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			snap, err := newStatsAdapter(cfg).Load(ctx, userID)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Snapshot   *domain.StatisticsSnapshot `json:"snapshot"`
				Categories []stats.CategoryPoint      `json:"categories"`
				Comparison []stats.ComparisonRow      `json:"comparison"`
			}{snap, stats.CategorySeries(snap.Category), stats.ComparisonRows(snap.User)})
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "user id (default from config)")
	return cmd
}

func goalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "goal <prompt>",
		Short: "Create a savings goal from a natural language prompt",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client := goal.NewClient(goal.ClientConfig{
				GoalURL:  cfg.Endpoints.GoalWebhook,
				ImageURL: cfg.Endpoints.ImageWebhook,
				Logger:   logger,
			})
			creator := goal.NewCreator(client, newWebhookClient(cfg), logger)

			prompt := args[0]
			for _, extra := range args[1:] {
				prompt += " " + extra
			}

			g, plan, err := creator.Create(ctx, prompt)
			if err != nil {
				var serverErr *goal.ServerError
				if errors.As(err, &serverErr) {
					fmt.Fprintln(os.Stderr, serverErr.Error())
				} else if errors.Is(err, goal.ErrInvalidReply) {
					fmt.Fprintln(os.Stderr, goal.ErrInvalidReply.Error())
				} else {
					fmt.Fprintln(os.Stderr, goal.CreateErrorMessage)
				}
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Goal     *domain.Goal       `json:"goal"`
				Plan     domain.SavingsPlan `json:"plan"`
				Progress float64            `json:"progress"`
			}{g, plan, g.Progress()})
		},
	}
}

func analyzeCmd() *cobra.Command {
	var asDocument bool
	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Upload a bank statement (or any document with --document) for analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			client := statement.NewClient(statement.ClientConfig{
				AnalyzeURL: cfg.Endpoints.StatementAnalyze,
				UploadURL:  cfg.Endpoints.FileUpload,
				Logger:     logger,
			})

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")

			name := filepath.Base(args[0])
			if asDocument {
				insight, err := client.UploadDocument(ctx, name, data)
				if err != nil {
					return err
				}
				return enc.Encode(insight)
			}
			analysis, err := client.AnalyzeStatement(ctx, name, data)
			if err != nil {
				return err
			}
			return enc.Encode(analysis)
		},
	}
	cmd.Flags().BoolVarP(&asDocument, "document", "d", false, "treat the file as a general document")
	return cmd
}

func voiceCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "voice <recording.webm>",
		Short: "Run one push-to-talk exchange from a recorded file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			mic := &voice.ReaderMicrophone{
				Open: func() (io.ReadCloser, error) { return os.Open(args[0]) },
			}
			player := &voice.SinkPlayer{
				Logger: logger,
				Sink: func(mime string, data []byte) error {
					logger.Info("reply audio received", "mime", mime, "bytes", len(data))
					return os.WriteFile(outPath, data, 0o644)
				},
			}

			panel := voice.NewPanel(voice.PanelConfig{
				Mic:         mic,
				Processor:   newWebhookClient(cfg),
				Player:      player,
				Tone:        voice.TerminalTone{Out: os.Stdout},
				RevertDelay: time.Duration(cfg.Voice.StatusRevertSeconds) * time.Second,
				Logger:      logger,
				OnChange: func(state voice.PanelState, status string) {
					fmt.Fprintln(os.Stdout, status)
				},
			})
			defer panel.Close()

			panel.Tap(ctx) // start recording from the file
			time.Sleep(200 * time.Millisecond)
			panel.Tap(ctx) // stop and process

			ticker := time.NewTicker(100 * time.Millisecond)
			defer ticker.Stop()
			deadline := time.NewTimer(2 * time.Minute)
			defer deadline.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-deadline.C:
					return errors.New("voice exchange timed out")
				case <-ticker.C:
					if panel.State() == voice.PanelIdle {
						return nil
					}
				}
			}
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "reply-audio.bin", "where to store reply audio")
	return cmd
}
