package app

import (
	"strings"

	"github.com/duinokary/supplychain-backend/internal/logger"
	"github.com/duinokary/supplychain-backend/internal/utils"
)

type Config struct {
	HTTPAddr     string
	ServiceName  string
	AllowOrigins []string
}

func LoadConfig(log *logger.Logger) Config {
	origins := utils.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000", log)
	allowOrigins := []string{}
	for _, origin := range strings.Split(origins, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			allowOrigins = append(allowOrigins, origin)
		}
	}

	return Config{
		HTTPAddr:     utils.GetEnv("HTTP_ADDR", ":8080", log),
		ServiceName:  utils.GetEnv("OTEL_SERVICE_NAME", "supplychain-backend", log),
		AllowOrigins: allowOrigins,
	}
}
