package main

import (
	"flag"

	"usox"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// usoxd is the package's own minimal daemon binary, replacing dynproxy's
// cmd/proxy.go: load a LoopConfig, raise the fd limit, start a Loop with
// no Contexts registered. It exists to give operators a standalone
// process that can be extended with whatever Contexts their deployment
// needs, same role cmd/proxy.go played for dynproxy before this module
// generalized it off one hardcoded proxy topology.
func main() {
	configPath := flag.String("config", "", "path to a LoopConfig .toml/.yaml file")
	flag.Parse()

	cfg := usox.LoopConfig{LockOSThread: true}
	if *configPath != "" {
		loaded, err := usox.LoadLoopConfig(*configPath)
		if err != nil {
			log.Fatal().Msgf("load config: %+v", err)
		}
		cfg = *loaded
	}

	if lvl, err := zerolog.ParseLevel(cfg.Global.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	if err := usox.RaiseFileDescriptorLimit(65536, 1<<20); err != nil {
		log.Warn().Msgf("could not raise RLIMIT_NOFILE: %+v", err)
	}

	loop, err := usox.NewLoop(cfg, usox.LoopHooks{
		OnPost: func(l *usox.Loop) {
			if log.Debug().Enabled() {
				log.Debug().Msgf("iteration=%d", l.Iteration())
			}
		},
	})
	if err != nil {
		log.Fatal().Msgf("new loop: %+v", err)
	}

	log.Info().Msg("usoxd running with no registered contexts")
	if err := loop.Run(); err != nil {
		log.Fatal().Msgf("loop run: %+v", err)
	}
}
