// Command mcdata-inspect prints the number of objects per event of MC
// branches stored in chain files, slot by slot. With -friend the entries of
// the friend slot read in lock step with slot 0 are printed too.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"strings"

	"github.com/cbm-experiment/cbmcore/internal/config"
	"github.com/cbm-experiment/cbmcore/internal/mcdata"
	"github.com/cbm-experiment/cbmcore/internal/mcdata/sqlitechain"
	"github.com/cbm-experiment/cbmcore/internal/monitoring"
	"github.com/cbm-experiment/cbmcore/internal/version"
)

func main() {
	var showVersion bool
	var configPath string
	var branches string
	var slot0 string
	var friend int
	var maxEvents int

	flag.StringVar(&configPath, "config", config.DefaultConfigPath, "path to transport config JSON")
	flag.StringVar(&branches, "branches", "", "comma separated branches (default: mcdata.branches from config)")
	flag.StringVar(&slot0, "files", "", "comma separated chain files for a single slot (default: mcdata.slots from config)")
	flag.IntVar(&friend, "friend", -1, "slot to join to slot 0 as friend chain")
	flag.IntVar(&maxEvents, "n", 10, "maximum events to print per slot")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(version.String("mcdata-inspect"))
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
	log := monitoring.Named("mcdata-inspect")

	names := cfg.GetBranches()
	if branches != "" {
		names = strings.Split(branches, ",")
	}
	slots := cfg.GetSlots()
	if slot0 != "" {
		slots = [][]string{strings.Split(slot0, ",")}
	}
	if len(names) == 0 || len(slots) == 0 {
		log.Fatal().Msg("no branches or slots configured")
	}

	m := mcdata.NewManager(slots)
	defer func() {
		if err := m.Done(); err != nil {
			log.Error().Err(err).Msg("close chains")
		}
	}()

	opener := sqlitechain.Opener[json.RawMessage]{}
	for _, name := range names {
		c, err := mcdata.InitBranch[json.RawMessage](m, name, opener)
		if err != nil {
			log.Fatal().Err(err).Str("branch", name).Msg("open branch")
		}
		if friend >= 0 {
			if err := c.AddFriend(0, friend); err != nil {
				log.Fatal().Err(err).Msg("add friend")
			}
		}

		for file := 0; file < c.Slots(); file++ {
			n := min(c.Entries(file), maxEvents)
			fmt.Printf("%s slot %d: %d entries\n", name, file, c.Entries(file))
			for event := 0; event < n; event++ {
				fmt.Printf("  event %d: %d objects\n", event, c.Size(file, event))
				if file == 0 && friend >= 0 {
					printFriends(c, event)
				}
				m.FinishEvent()
			}
		}
	}
}

func printFriends(c *mcdata.Cache[json.RawMessage], event int) {
	friends, ok := c.Friends(0, event)
	if !ok {
		fmt.Printf("    friends: unavailable\n")
		return
	}
	for i, coll := range friends {
		if coll == nil {
			fmt.Printf("    friend %d: no entry\n", i)
			continue
		}
		fmt.Printf("    friend %d: %d objects\n", i, len(coll))
	}
}
