package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/moneyscripter/mt5relay/config"
	"github.com/moneyscripter/mt5relay/terminal/mt5"
	"github.com/moneyscripter/mt5relay/tgbot"
	"github.com/moneyscripter/mt5relay/trade"
	"github.com/moneyscripter/mt5relay/webhook"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg.Log.File)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	term := mt5.New(mt5.Config{
		GatewayURL:   cfg.MT5.GatewayURL,
		Login:        cfg.MT5.Login,
		Password:     cfg.MT5.Password,
		Server:       cfg.MT5.Server,
		TerminalPath: cfg.MT5.TerminalPath,
	}, logger)

	// The terminal session is required to serve anything; failing to bring
	// it up aborts startup.
	if err := term.Connect(ctx); err != nil {
		logger.Fatal("mt5 terminal init failed", zap.Error(err))
	}

	exec := trade.NewExecutor(term, trade.Config{
		DefaultVolume: cfg.TradeVolume(),
		Deviation:     cfg.Trade.Deviation,
		Magic:         cfg.Trade.Magic,
		Comment:       cfg.Trade.Comment,
	}, logger)

	handler := webhook.NewHandler(exec, []byte(cfg.Webhook.Secret), logger)
	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: webhook.NewRouter(handler),
	}
	go func() {
		logger.Info("webhook server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("webhook server failed", zap.Error(err))
		}
	}()

	if cfg.Telegram.Token != "" {
		ids, _ := cfg.AuthorizedUserIDs()
		tb, err := tgbot.New(cfg.Telegram.Token, exec, ids, logger)
		if err != nil {
			logger.Fatal("telegram bot init failed", zap.Error(err))
		}
		go tb.Run(ctx)
	} else {
		logger.Info("telegram token not set, bot disabled")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("webhook server shutdown", zap.Error(err))
	}
}

// newLogger builds the production logger. When a log file is configured the
// output also goes to a size-rotated file.
func newLogger(file string) (*zap.Logger, error) {
	if file == "" {
		return zap.NewProduction()
	}

	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	sink := zapcore.NewMultiWriteSyncer(
		zapcore.AddSync(os.Stdout),
		zapcore.AddSync(&lumberjack.Logger{
			Filename:   file,
			MaxSize:    50, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}),
	)
	return zap.New(zapcore.NewCore(encoder, sink, zapcore.InfoLevel)), nil
}
