// ════════════════════════════════════════════════════════════════════════════════════════════════
// Aggregation Demo - Main Entry Point
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Main Entry Point & System Orchestration
//
// Description:
//   Phased startup wiring every package together against a standalone
//   mock host: load the attribute catalog, resolve config, register the
//   coordinator, run a pinned worker per core, flush on a timer, report
//   on shutdown.
// ════════════════════════════════════════════════════════════════════════════════════════════════

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"aggregate/config"
	"aggregate/engine"
	"aggregate/hostapi"
	"aggregate/logging"
)

func main() {
	opts := parseFlags()

	log := logging.Default

	catalogDB, err := openCatalog(opts.catalogPath)
	if err != nil {
		log.Error("can't open attribute catalog: " + err.Error())
		os.Exit(1)
	}

	reader := buildConfigReader(opts)
	host := hostapi.NewHost(log, reader)

	catalogAttrs, err := loadAttributeCatalog(catalogDB, host.Registry)
	catalogDB.Close()
	if err != nil {
		log.Error("can't load attribute catalog: " + err.Error())
		os.Exit(1)
	}
	if len(catalogAttrs) == 0 {
		log.Error("attribute catalog is empty")
		os.Exit(1)
	}

	cfg, err := host.Config.Read()
	if err != nil {
		log.Error("can't read config: " + err.Error())
		os.Exit(1)
	}

	eng := engine.New(host, cfg)
	eng.Register()

	host.SetFlushSink(func(s *hostapi.Snapshot) { printSnapshot(log, s) })
	host.Bus.FirePostInit()

	log.Info("aggregate-demo: " + strconv.Itoa(len(catalogAttrs)) + " attributes loaded, " +
		strconv.Itoa(opts.cores) + " workers, flushing every " + opts.flushEvery.String() +
		", RLIMIT_NOFILE=" + strconv.FormatUint(openFileLimit(), 10))

	ctx, cancel := context.WithTimeout(context.Background(), opts.runFor)
	defer cancel()
	watchSignals(cancel, log)

	wg := runWorkers(ctx, host, eng, opts.cores, cfg)
	runFlushLoop(ctx, host, opts.flushEvery)
	wg.Wait()

	host.Bus.FireFlush()
	eng.Finish()
}

type options struct {
	catalogPath string
	configPath  string
	attrsList   string
	keyList     string
	cores       int
	flushEvery  time.Duration
	runFor      time.Duration
}

func parseFlags() options {
	return parseFlagsFrom(os.Args[1:])
}

func parseFlagsFrom(args []string) options {
	fs := flag.NewFlagSet("aggregate-demo", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := options{}
	fs.StringVar(&opts.catalogPath, "catalog", "attributes.db", "SQLite attribute catalog")
	fs.StringVar(&opts.configPath, "config", "", "JSON config file (overrides -attrs/-key)")
	fs.StringVar(&opts.attrsList, "attrs", "", "colon-separated aggregation attribute names")
	fs.StringVar(&opts.keyList, "key", "", "colon-separated key attribute names")
	fs.IntVar(&opts.cores, "cores", runtime.NumCPU(), "number of pinned worker goroutines")
	fs.DurationVar(&opts.flushEvery, "flush-interval", 2*time.Second, "snapshot flush interval")
	fs.DurationVar(&opts.runFor, "duration", 10*time.Second, "how long to run before shutting down")

	_ = fs.Parse(args)
	return opts
}

func buildConfigReader(opts options) config.Reader {
	if opts.configPath != "" {
		if _, err := os.Stat(opts.configPath); err == nil {
			return config.JSONFileReader{Path: opts.configPath}
		}
	}
	return config.ColonListReader{Attributes: opts.attrsList, Key: opts.keyList}
}

func watchSignals(cancel context.CancelFunc, log *logging.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("aggregate-demo: received interrupt, shutting down")
		cancel()
	}()
}

func runWorkers(ctx context.Context, host *hostapi.Host, eng *engine.Engine, cores int, cfg config.Aggregate) *sync.WaitGroup {
	var wg sync.WaitGroup
	wg.Add(cores)
	for core := 0; core < cores; core++ {
		go func(core int) {
			defer wg.Done()
			runWorker(ctx, host, eng, core, cfg)
		}(core)
	}
	return &wg
}

// runFlushLoop flushes the engine on flushEvery until ctx is done, then
// returns at once; it does not wait for the workers to retire.
func runFlushLoop(ctx context.Context, host *hostapi.Host, flushEvery time.Duration) {
	ticker := time.NewTicker(flushEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			host.Bus.FireFlush()
		case <-ctx.Done():
			return
		}
	}
}

func printSnapshot(log *logging.Logger, snap *hostapi.Snapshot) {
	var b strings.Builder
	b.WriteString("snapshot:")
	for _, n := range snap.Nodes {
		b.WriteString(" node=")
		b.WriteString(strconv.FormatUint(n.ID, 10))
	}
	for _, e := range snap.Immediates {
		b.WriteString(" attr")
		b.WriteString(strconv.FormatUint(e.AttributeID, 10))
		b.WriteString("=")
		b.WriteString(e.Value.String())
	}
	log.Info(b.String())
}
