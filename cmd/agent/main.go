// Command agent runs the voice billing agent: push-to-talk capture,
// transcript debouncing, intent dispatch and bill export, exposed over
// HTTP and websockets.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/codewithayushgupta/voiceBillingAgent/internal/config"
	"github.com/codewithayushgupta/voiceBillingAgent/internal/log"
	"github.com/codewithayushgupta/voiceBillingAgent/pkg/billing"
	"github.com/codewithayushgupta/voiceBillingAgent/pkg/capture"
	"github.com/codewithayushgupta/voiceBillingAgent/pkg/intent"
	"github.com/codewithayushgupta/voiceBillingAgent/pkg/ledger"
	"github.com/codewithayushgupta/voiceBillingAgent/pkg/speech"
	"github.com/codewithayushgupta/voiceBillingAgent/pkg/transcript"
	"github.com/codewithayushgupta/voiceBillingAgent/pkg/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Init("info")
		log.Error("configuration invalid", "error", err)
		os.Exit(1)
	}
	log.Init(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("shutting down")
		cancel()
	}()

	items := ledger.New()
	recognized := transcript.NewLog()
	gateway := web.NewGateway()

	// The device's TTS speaks notices when it is connected; otherwise
	// they land in the log.
	speaker, err := speech.NewChain(gateway, speech.Logger{})
	if err != nil {
		log.Error("building speaker chain", "error", err)
		os.Exit(1)
	}

	parser, closeParser, err := buildParser(ctx, cfg)
	if err != nil {
		log.Error("building parser", "error", err)
		os.Exit(1)
	}
	defer closeParser()

	var names intent.NameDetector
	if cfg.NameDetectURL != "" {
		names = intent.NewHTTPNameDetector(cfg.NameDetectURL)
	}

	// The web server is created after the dispatcher and controller,
	// but both report status through it.
	var srv *web.Server
	pushStatus := func(s string) {
		if srv != nil {
			srv.PushStatus(s)
		}
	}

	dispatcher, err := intent.NewDispatcher(intent.Config{
		Parser:       parser,
		Names:        names,
		Ledger:       items,
		Speaker:      speaker,
		Exporter:     billing.NewFileExporter(cfg.BillOutputDir),
		ParseTimeout: cfg.ParseTimeout(),
		Retries:      cfg.ParseRetries,
		OnStatus:     pushStatus,
	})
	if err != nil {
		log.Error("building dispatcher", "error", err)
		os.Exit(1)
	}

	buffer := transcript.NewBuffer(cfg.FlushDelay(), func(text string) {
		go dispatcher.Dispatch(text)
	})

	var recognizer capture.Recognizer = gateway
	if cfg.SpeechWSURL != "" {
		recognizer = capture.NewStreamRecognizer(cfg.SpeechWSURL)
	}

	controller, err := capture.NewController(capture.Config{
		Recognizer:  recognizer,
		Buffer:      buffer,
		Log:         recognized,
		Language:    cfg.Language,
		StopTimeout: cfg.StopTimeout(),
		OnStatus:    pushStatus,
	})
	if err != nil {
		log.Error("building capture controller", "error", err)
		os.Exit(1)
	}
	gateway.SetPressHandler(controller)
	go controller.Run(ctx)

	srv = web.NewServer(web.Config{
		Port:       cfg.Port,
		Ledger:     items,
		Dispatcher: dispatcher,
		Controller: controller,
		Transcript: recognized,
		Gateway:    gateway,
	})
	go func() {
		<-ctx.Done()
		srv.Shutdown()
	}()

	log.Info("voice billing agent started",
		"port", cfg.Port,
		"language", cfg.Language,
		"env", cfg.Env,
	)
	if err := srv.Start(); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// buildParser picks the configured parse backend: Gemini when an API
// key is present, the remote HTTP endpoint otherwise.
func buildParser(ctx context.Context, cfg *config.Config) (intent.Parser, func(), error) {
	if cfg.GeminiAPIKey != "" {
		p, err := intent.NewGeminiParser(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		return p, func() { p.Close() }, nil
	}
	return intent.NewHTTPParser(cfg.ParseURL), func() {}, nil
}
