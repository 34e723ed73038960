// Command classicserver runs the voxel multiplayer server: load config,
// build the block registry, load or generate a world, and drive the
// per-tick accept/game loop until interrupted. The flag surface follows the
// teacher's -v/-c checks, moved onto github.com/spf13/cobra.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dmitrymodder/classicserver/internal/blockreg"
	"github.com/dmitrymodder/classicserver/internal/config"
	"github.com/dmitrymodder/classicserver/internal/game"
	"github.com/dmitrymodder/classicserver/internal/logging"
	"github.com/dmitrymodder/classicserver/internal/namelist"
	"github.com/dmitrymodder/classicserver/internal/textcolour"
	"github.com/dmitrymodder/classicserver/internal/voxel"
	"github.com/dmitrymodder/classicserver/internal/worldgen"
	"github.com/dmitrymodder/classicserver/internal/worldstore"
)

// version is stamped at release time; left as a placeholder here the same
// way the teacher hardcodes its own build string.
const version = "0.1.0-dev"

func main() {
	var configPath string
	var noColour bool

	root := &cobra.Command{
		Use:   "classicserver",
		Short: "A classic-protocol voxel sandbox server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(configPath, noColour)
		},
	}
	root.Flags().StringVarP(&configPath, "config", "c", "", "path to server.yaml (defaults built in if omitted)")
	root.Flags().BoolVarP(&noColour, "no-colour", "C", false, "disable ANSI colour in console output")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "print the server version and exit",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("classicserver " + version)
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServer(configPath string, noColour bool) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	cfg.NoColour = noColour
	textcolour.Enabled = !noColour

	log := logging.New(!noColour)
	log.WithField("version", version).Info("starting classicserver")

	registry := blockreg.NewRegistry()

	ops, err := namelist.Load(cfg.OpsFile)
	if err != nil {
		return err
	}
	bans, err := namelist.Load(cfg.BansFile)
	if err != nil {
		return err
	}
	bannedIPs, err := namelist.Load(cfg.BannedIPsFile)
	if err != nil {
		return err
	}
	whitelist, err := namelist.Load(cfg.WhitelistFile)
	if err != nil {
		return err
	}

	world, err := loadOrGenerateWorld(cfg, registry, log)
	if err != nil {
		return err
	}

	srv := game.NewServer(cfg, log, registry, world, ops, bans, bannedIPs, whitelist)

	savePath := worldstore.Path(cfg.WorldDir, cfg.WorldName)
	srv.SetOnEmptyRoster(func() {
		if err := worldstore.Save(savePath, world); err != nil {
			log.WithError(err).Error("failed to save world after last player left")
		} else {
			log.Info("saved world: last player left")
		}
	})

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info("shutting down")
		srv.Close()
		if err := worldstore.Save(savePath, world); err != nil {
			log.WithError(err).Error("failed to save world on shutdown")
		}
		os.Exit(0)
	}()

	return srv.Run()
}

func loadOrGenerateWorld(cfg *config.Config, registry *blockreg.Registry, log *logrus.Logger) (*voxel.Map, error) {
	savePath := worldstore.Path(cfg.WorldDir, cfg.WorldName)
	if worldstore.Exists(savePath) {
		log.WithField("path", savePath).Info("loading saved world")
		return worldstore.Load(savePath, registry, cfg.Seed)
	}

	log.WithFields(logrus.Fields{
		"generator": cfg.Generator,
		"width":     cfg.MapWidth,
		"depth":     cfg.MapDepth,
		"height":    cfg.MapHeight,
	}).Info("generating new world")

	m := voxel.New(cfg.WorldName, cfg.MapWidth, cfg.MapHeight, cfg.MapDepth, registry, cfg.Seed)
	m.SetTreeGrower(worldgen.NewTreeGrower(m, registry))

	m.Generating = true
	worldgen.Generate(worldgen.Kind(cfg.Generator), m, m)
	m.Generating = false

	return m, nil
}
