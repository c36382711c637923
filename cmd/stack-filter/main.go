// Command stack-filter applies the stack filter to events read from a JSON
// file, prints the keep/drop decision per particle and optionally writes the
// stored tracks to a chain file.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/cbm-experiment/cbmcore/internal/cbm"
	"github.com/cbm-experiment/cbmcore/internal/config"
	"github.com/cbm-experiment/cbmcore/internal/mcdata/sqlitechain"
	"github.com/cbm-experiment/cbmcore/internal/monitoring"
	"github.com/cbm-experiment/cbmcore/internal/stack"
	"github.com/cbm-experiment/cbmcore/internal/version"
)

type pointCount struct {
	Track  int          `json:"track"`
	System cbm.ModuleID `json:"system"`
	Count  int          `json:"count"`
}

type event struct {
	Particles []stack.Particle `json:"particles"`
	Points    []pointCount     `json:"points"`
}

type eventFile struct {
	Events []event `json:"events"`
}

func main() {
	var showVersion bool
	var configPath string
	var inPath string
	var outPath string
	var branch string

	flag.StringVar(&configPath, "config", config.DefaultConfigPath, "path to transport config JSON")
	flag.StringVar(&inPath, "in", "", "path to events JSON")
	flag.StringVar(&outPath, "out", "", "chain file to write stored tracks to (optional)")
	flag.StringVar(&branch, "branch", "MCTrack", "branch name for stored tracks")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(version.String("stack-filter"))
		return
	}

	cfg, err := config.LoadTransportConfig(configPath)
	if err != nil {
		monitoring.Logger().Fatal().Err(err).Msg("load config")
	}
	monitoring.Init(monitoring.Options{
		Level:  cfg.GetLogLevel(),
		Format: cfg.GetLogFormat(),
	})
	log := monitoring.Named("stack-filter")

	if inPath == "" {
		log.Fatal().Msg("-in must be provided")
	}
	data, err := os.ReadFile(inPath)
	if err != nil {
		log.Fatal().Err(err).Msg("read events")
	}
	var in eventFile
	if err := json.Unmarshal(data, &in); err != nil {
		log.Fatal().Err(err).Msg("parse events")
	}

	var w *sqlitechain.Writer[stack.MCTrack]
	if outPath != "" {
		f, err := sqlitechain.Create(outPath)
		if err != nil {
			log.Fatal().Err(err).Msg("create chain file")
		}
		defer f.Close()
		if w, err = sqlitechain.NewWriter[stack.MCTrack](f, branch, "MCTrack"); err != nil {
			log.Fatal().Err(err).Msg("register branch")
		}
	}

	s := stack.NewStack(stack.FilterFromConfig(cfg))
	for i, ev := range in.Events {
		for _, p := range ev.Particles {
			s.PushTrack(stack.Track{
				PDG:      p.PDG,
				Process:  p.Process,
				MotherID: p.MotherID,
				E:        p.Ekin,
				Weight:   p.Weight,
			})
		}
		for _, pc := range ev.Points {
			for range pc.Count {
				s.AddPoint(pc.System, pc.Track)
			}
		}

		tracks := s.FillTrackArray()
		if err := s.UpdateTrackIndex(nil); err != nil {
			log.Fatal().Err(err).Int("event", i).Msg("update track index")
		}

		keep := make([]bool, len(ev.Particles))
		for j := range keep {
			idx, err := s.StoredIndex(j)
			if err != nil {
				log.Fatal().Err(err).Int("event", i).Msg("index map")
			}
			keep[j] = idx >= 0
		}
		fmt.Printf("event %d: stored %d/%d keep=%v\n", i, len(tracks), len(ev.Particles), keep)

		if w != nil {
			if _, err := s.WriteEvent(w); err != nil {
				log.Fatal().Err(err).Msg("write event")
			}
		}
		s.Reset()
	}
}
