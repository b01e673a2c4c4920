package main

import (
	"bytes"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lk2023060901/jsonkit/application"
	"github.com/lk2023060901/jsonkit/pkg/json"
	zlog "github.com/lk2023060901/jsonkit/pkg/log"
	"github.com/lk2023060901/jsonkit/pkg/rollout"
	"github.com/lk2023060901/jsonkit/pkg/util/merr"
)

// version 由构建时 -ldflags "-X main.version=..." 注入。
var version = "dev"

type rootOptions struct {
	configPath string
	app        *application.Application
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "jsonkit",
		Short:         "Compact JSON encoding with extension types",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			opts.app = application.New()
			return opts.app.Init(opts.configPath)
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "",
		"config file path, defaults to $"+application.ConfigPathEnv+" or ./config.yaml")

	root.AddCommand(newFmtCommand(opts), newNDJSONCommand(opts), newVersionCommand())
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the jsonkit version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := cmd.OutOrStdout().Write([]byte("jsonkit " + version + "\n"))
			return err
		},
	}
}

func newFmtCommand(root *rootOptions) *cobra.Command {
	var htmlSafe, strict, prune bool
	cmd := &cobra.Command{
		Use:   "fmt",
		Short: "Re-encode one JSON document from stdin as compact JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return merr.WrapErrIoFailed("stdin", err)
			}
			out, err := reformat(root.app, data, htmlSafe, strict, prune)
			if err != nil {
				zlog.Ctx(cmd.Context()).Debug("fmt failed", zap.Error(err))
				return err
			}
			if _, err := cmd.OutOrStdout().Write(append(out, '\n')); err != nil {
				return merr.WrapErrIoFailed("stdout", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&htmlSafe, "html", false, "escape <, >, & and ' for embedding in HTML")
	cmd.Flags().BoolVar(&strict, "strict", false, "decode with the strict codec")
	cmd.Flags().BoolVar(&prune, "prune", false, "drop top-level keys whose value is null")
	return cmd
}

// reformat 顶层为对象时按键顺序解码，其余按普通 JSON 值解码。
func reformat(app *application.Application, data []byte, htmlSafe, strict, prune bool) ([]byte, error) {
	strategy := app.Strategy(htmlSafe, strict)
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		obj := json.NewObject()
		if err := strategy.Unmarshal(rollout.OptionJSONLoads, data, obj); err != nil {
			return nil, err
		}
		if prune {
			obj = json.PruneEmptyKeys(obj)
		}
		return strategy.Marshal(rollout.OptionJSONDumps, obj)
	}

	var v any
	if err := strategy.Unmarshal(rollout.OptionJSONLoads, data, &v); err != nil {
		return nil, err
	}
	return strategy.Marshal(rollout.OptionJSONDumps, v)
}

func newNDJSONCommand(root *rootOptions) *cobra.Command {
	var workers int
	var htmlSafe, strict, prune, failFast bool
	var compression string
	cmd := &cobra.Command{
		Use:   "ndjson",
		Short: "Re-encode newline-delimited JSON from stdin, one document per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := root.app.NDJSONConfig()
			flags := cmd.Flags()
			if flags.Changed("workers") {
				cfg.Workers = workers
			}
			if flags.Changed("html") {
				cfg.HTMLSafe = htmlSafe
			}
			if flags.Changed("strict") {
				cfg.Strict = strict
			}
			if flags.Changed("prune") {
				cfg.Prune = prune
			}
			if flags.Changed("fail-fast") {
				cfg.FailFast = failFast
			}
			if flags.Changed("compression") {
				cfg.Compression = compression
			}

			p := root.app.NewProcessor(cfg)
			defer p.Close()
			stats, err := p.Process(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
			zlog.Ctx(cmd.Context()).Info("ndjson finished",
				zap.Int("lines", stats.Lines),
				zap.Int("succeeded", stats.Succeeded),
				zap.Int("failed", stats.Failed),
				zap.Int("skipped", stats.Skipped))
			return err
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 0, "number of lines processed in parallel")
	cmd.Flags().BoolVar(&htmlSafe, "html", false, "escape <, >, & and ' for embedding in HTML")
	cmd.Flags().BoolVar(&strict, "strict", false, "decode with the strict codec")
	cmd.Flags().BoolVar(&prune, "prune", false, "drop top-level keys whose value is null")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "stop at the first line that fails")
	cmd.Flags().StringVar(&compression, "compression", "", "stream compression of stdin and stdout: none or zstd")
	return cmd
}
