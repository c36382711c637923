// Command hit-smear produces hit records from true MC positions with the
// resolution of a strip station. The generator seed and the strip frame
// degeneracy threshold come from the transport config.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/cbm-experiment/cbmcore/internal/ca"
	"github.com/cbm-experiment/cbmcore/internal/config"
	"github.com/cbm-experiment/cbmcore/internal/monitoring"
	"github.com/cbm-experiment/cbmcore/internal/version"
)

type hitFile struct {
	Resolution ca.StripResolution `json:"resolution"`
	Hits       []ca.MCHit         `json:"hits"`
}

func main() {
	var showVersion bool
	var configPath string
	var inPath string
	var quiet bool

	flag.StringVar(&configPath, "config", config.DefaultConfigPath, "path to transport config JSON")
	flag.StringVar(&inPath, "in", "", "path to MC hits JSON")
	flag.BoolVar(&quiet, "q", false, "print only the summary")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(version.String("hit-smear"))
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
	log := monitoring.Named("hit-smear")

	if inPath == "" {
		log.Fatal().Msg("-in must be provided")
	}
	data, err := os.ReadFile(inPath)
	if err != nil {
		log.Fatal().Err(err).Msg("read hits")
	}
	var in hitFile
	if err := json.Unmarshal(data, &in); err != nil {
		log.Fatal().Err(err).Msg("parse hits")
	}

	s := ca.NewSmearer(cfg, in.Resolution)
	log.Info().Uint64("seed", s.Seed()).Stringer("uv", s.Converter()).Msg("smearing")

	var store ca.HitStore
	for i, h := range in.Hits {
		rec, err := s.Smear(h)
		if err != nil {
			log.Fatal().Err(err).Int("hit", i).Msg("smear")
		}
		if store.Add(rec) && !quiet {
			fmt.Println(rec.String())
		}
	}
	fmt.Printf("hits: %d stored, %d rejected, %d hit keys\n", store.Len(), store.Rejected(), store.NofHitKeys())
}
