package config

// Defaults returns the stock configuration: the product's workflow and
// statistics endpoints, demo user, and a five second statistics timeout.
func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel: "info",
		},
		Endpoints: EndpointsConfig{
			ChatWebhook:      "https://saafrac.app.n8n.cloud/webhook/bank",
			AudioWebhook:     "https://saafrac.app.n8n.cloud/webhook/process-audio",
			GoalWebhook:      "https://saafrac.app.n8n.cloud/webhook/goal",
			ImageWebhook:     "https://saafrac.app.n8n.cloud/webhook-test/image-gen",
			StatisticsBase:   "https://outwardly-phytocidal-ola.ngrok-free.dev/api",
			StatementAnalyze: "https://outwardly-phytocidal-ola.ngrok-free.dev/api/analyze-statement",
			FileUpload:       "https://outwardly-phytocidal-ola.ngrok-free.dev/api/upload",
		},
		Statistics: StatisticsConfig{
			TimeoutSeconds: 5,
			DefaultUserID:  "5a27be9d-beef-4112-9466-277312593d62",
			MockFallback:   true,
		},
		Voice: VoiceConfig{
			Recognizer: RecognizerConfig{
				APIBase: "https://api.groq.com/openai/v1",
				Model:   "whisper-large-v3",
			},
			StatusRevertSeconds: 3,
		},
		Channels: ChannelsConfig{
			CLI: CLIConfig{Enabled: true},
			Web: WebConfig{
				Enabled: false,
				Host:    "127.0.0.1",
				Port:    8080,
			},
		},
		Metrics: MetricsConfig{
			Enabled:  false,
			Endpoint: "/metrics",
		},
	}
}
