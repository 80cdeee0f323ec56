package logger

import (
    "io"
    "os"
    "time"

    "github.com/HamedShams/agile-dashboard/internal/config"
    "github.com/rs/zerolog"
    "github.com/rs/zerolog/log"
)

func New(cfg config.Config) zerolog.Logger {
    return NewWithWriter(cfg, os.Stdout)
}

func NewWithWriter(cfg config.Config, w io.Writer) zerolog.Logger {
    if cfg.AppEnv == "dev" {
        output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
        logger := zerolog.New(output).Level(zerolog.DebugLevel).With().Timestamp().Logger()
        log.Logger = logger
        return logger
    }
    zerolog.TimeFieldFormat = time.RFC3339
    logger := zerolog.New(w).Level(zerolog.InfoLevel).With().Timestamp().Str("app", "agile-dashboard").Logger()
    log.Logger = logger
    return logger
}
