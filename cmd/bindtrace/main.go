// The MIT License (MIT)
//
// Copyright (c) 2022 West Damron
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := cli.App{
		Name:      "bindtrace",
		Usage:     "replay socket bind scenarios against a bound socket table",
		ArgsUsage: "<scenario.yaml>...",
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log level (debug, info, warn, error)",
			Value:   "info",
			EnvVars: []string{"BINDTRACE_LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "log format (text, json)",
			Value:   "text",
			EnvVars: []string{"BINDTRACE_LOG_FORMAT"},
		},
		&cli.BoolFlag{
			Name:  "fail-fast",
			Usage: "stop a scenario at the first step whose outcome differs from its expectation",
		},
		&cli.BoolFlag{
			Name:  "quiet",
			Usage: "only print unexpected steps and the final table dump",
		},
	}

	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cctx *cli.Context) error {
	logger, err := setupLogger(cctx.String("log-level"), cctx.String("log-format"))
	if err != nil {
		return err
	}
	if cctx.NArg() == 0 {
		return cli.Exit("at least one scenario file is required", 2)
	}

	opts := replayOptions{
		FailFast: cctx.Bool("fail-fast"),
		Quiet:    cctx.Bool("quiet"),
		Logger:   logger,
	}
	var failed int
	for _, path := range cctx.Args().Slice() {
		sc, err := loadScenario(path)
		if err != nil {
			return err
		}
		res := replay(sc, os.Stdout, opts)
		if res.Mismatches > 0 {
			logger.Warn("scenario outcomes differ from expectations", "scenario", sc.Name, "mismatches", res.Mismatches)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d scenario(s) failed", failed)
	}
	return nil
}

func setupLogger(level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	hopts := slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	switch format {
	case "text":
		handler = slog.NewTextHandler(os.Stderr, &hopts)
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, &hopts)
	default:
		return nil, fmt.Errorf("unknown log format: %#v", format)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, nil
}
