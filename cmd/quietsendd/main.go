package main

import (
	"flag"

	"go.uber.org/fx"

	"github.com/joshnesbit/quietsend/internal/daemon"
)

func main() {
	configFlag := flag.String("config", "", "config file path (default <data dir>/config.toml)")
	listenFlag := flag.String("listen", "", "http api address (overrides config)")
	dataDirFlag := flag.String("data-dir", "", "data directory (overrides config)")
	flag.Parse()

	app := fx.New(
		daemon.Module(daemon.Params{
			ConfigPath: *configFlag,
			Listen:     *listenFlag,
			DataDir:    *dataDirFlag,
		}),
	)

	app.Run()
}
