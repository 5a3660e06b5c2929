// Command function serves one platform invocation: it reads the event JSON
// from stdin, runs it through the orders router and writes the response
// JSON to stdout. FUNCTION_MODE=orders-post serves the POST-only trigger.
package main

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"os"

	"github.com/cloud-wave-best-zizon/order-service/internal/app"
	"github.com/cloud-wave-best-zizon/order-service/internal/function"
	"github.com/cloud-wave-best-zizon/order-service/pkg/config"
	"github.com/cloud-wave-best-zizon/order-service/pkg/tls"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	_ = godotenv.Load()

	// stdout은 응답 전용이므로 로그는 stderr로
	zapCfg := zap.NewProductionConfig()
	zapCfg.OutputPaths = []string{"stderr"}
	if os.Getenv("LOG_LEVEL") == "debug" {
		zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := zapCfg.Build()
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	tlsCfg, err := tls.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load TLS config", zap.Error(err))
	}
	gin.SetMode(gin.ReleaseMode)

	ctx := context.Background()
	application, err := app.Build(ctx, cfg, tlsCfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize service", zap.Error(err))
	}
	defer application.Close()

	payload, err := io.ReadAll(os.Stdin)
	if err != nil {
		logger.Fatal("Failed to read event", zap.Error(err))
	}

	adapter := function.NewAdapter(application.Router, logger)
	if cfg.FunctionMode == config.FunctionModeOrdersPost {
		adapter = function.NewPostAdapter(application.PostRouter, logger)
	}

	resp := adapter.HandleJSON(ctx, payload)
	if err := json.NewEncoder(os.Stdout).Encode(resp); err != nil {
		logger.Error("Failed to write response", zap.Error(err))
	}
}
