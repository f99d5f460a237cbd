// shatter inspects and edits fracture hierarchies built from cube scenes.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/Faultbox/shatter/internal/command"
	"github.com/Faultbox/shatter/internal/config"
	"github.com/Faultbox/shatter/internal/logger"
)

// CLI is the top-level command structure for shatter.
type CLI struct {
	Config  string `type:"path" help:"Config file. Defaults to ./shatter.yaml, then the user config dir."`
	Debug   bool   `env:"SHATTER_DEBUG" help:"Enable debug logging and breaking-region dumps."`
	LogFile string `name:"log-file" type:"path" help:"Also write JSON logs to this file."`
	Workers int    `help:"Proximity scan workers (0 = all CPUs)."`
	Seed    int64  `help:"Seed for anchor jitter (0 keeps the config value)."`

	Tree        TreeCmd        `cmd:"" help:"Print the hierarchy of a scene."`
	Proximity   ProximityCmd   `cmd:"" help:"Build proximity and print adjacency and breaking regions."`
	Autocluster AutoclusterCmd `cmd:"" help:"Cluster one level of a scene into spatial groups."`
	Exec        ExecCmd        `cmd:"" help:"Run a fracture command on a scene and print the result."`
	ShowConfig  ShowConfigCmd  `cmd:"" help:"Print the effective configuration or write it to a file."`
}

func (c *CLI) overrides() config.Overrides {
	o := config.Overrides{
		Debug:   c.Debug,
		LogFile: c.LogFile,
		Workers: c.Workers,
	}
	if c.Seed != 0 {
		o.Seed = &c.Seed
	}
	return o
}

// env is bound into every command's Run.
type env struct {
	ctx context.Context
	cfg *config.Config
	out io.Writer
}

func newParser(cli *CLI, opts ...kong.Option) (*kong.Kong, error) {
	opts = append([]kong.Option{
		kong.Name("shatter"),
		kong.Description("Fracture hierarchy tool: clustering, proximity and auto-clustering of chunk scenes."),
		kong.UsageOnError(),
		kong.Vars{"kinds": strings.Join(command.Kinds(), ",")},
	}, opts...)
	return kong.New(cli, opts...)
}

func main() {
	cli := CLI{}
	parser, err := newParser(&cli)
	if err != nil {
		fmt.Fprintf(os.Stderr, "shatter: %v\n", err)
		os.Exit(1)
	}
	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	cfg, err := config.Load(cli.Config, cli.overrides())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	logger.Sugar.Debugf("Config: %+v", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = kctx.Run(&env{ctx: ctx, cfg: cfg, out: os.Stdout})
	stop()
	if err != nil {
		logger.Error("command failed", zap.String("command", kctx.Command()), zap.Error(err))
	}
	logger.Sync()
	kctx.FatalIfErrorf(err)
}
