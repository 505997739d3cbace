package main

import (
	"errors"

	"accesslens/internal/banner"
	"accesslens/internal/config"
	"accesslens/internal/convert"
	"accesslens/internal/logging"

	"github.com/pterm/pterm"
)

// Failures are reported and the process still exits normally.
func main() {
	logger := pterm.DefaultLogger.WithLevel(pterm.LogLevelInfo)

	cfg, err := config.Load()
	if err != nil {
		logger.WithCaller().Error("Failed to load configuration", logger.Args("error", err))
		return
	}

	logger = logging.New(cfg.LogLevel)

	if cfg.ShowBanner {
		banner.Print("SMS Log Converter")
	}

	converter := convert.NewConverter(logger)
	written, err := converter.Convert(cfg.Converter.InputPath, cfg.Converter.OutputPath)
	switch {
	case errors.Is(err, convert.ErrInputNotFound):
		logger.Error("Input file not found", logger.Args("path", cfg.Converter.InputPath))
		return
	case err != nil:
		logger.WithCaller().Error("Conversion failed", logger.Args("error", err))
		return
	}

	pterm.Success.Printfln("Converted %d messages to %s", written, cfg.Converter.OutputPath)
}
