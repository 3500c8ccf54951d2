package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/realdegrees/rng/config"
	"github.com/realdegrees/rng/entropy"
	"github.com/realdegrees/rng/fetch"
	"github.com/realdegrees/rng/net/server"
	"github.com/realdegrees/rng/pool"
	"github.com/realdegrees/rng/rng"
)

func main() {
	printBanner()
	printVersion()

	// use configuration from environment variables
	conf := config.GetConfiguration()
	log.Printf("%#v", &conf)

	// the host CSPRNG is non-negotiable, refuse to start without it
	osrand := entropy.NewOSRandom()
	if err := osrand.Verify(); err != nil {
		log.Fatalf("os random source unusable: %s", err)
	}

	// create a new http server for the service
	mux := http.NewServeMux()
	srv, err := server.NewServer(mux, conf.HttpListen, conf.HttpCert, conf.HttpKey)
	if err != nil {
		log.Fatalf("failed to start server: %s", err)
	}

	// camera catalog, upstream fetcher and the per-zone region store
	catalog := fetch.OpenCatalog(conf.Catalog)
	defer catalog.Close()
	fetcher := fetch.NewWorldcam(catalog, conf.FetchTimeout)
	store := pool.NewStore(&conf, fetcher)

	// background refill loops, one per zone
	store.Start(context.Background())
	log.Printf("refill loops started for %d zones: %v", len(conf.Zones), conf.Zones)

	// entropy sources and the mixing engine
	cpu := entropy.NewCpuJitter()
	netjitter := entropy.NewNetworkJitter(conf.ProbeUrls, conf.ProbeTimeout)
	engine := rng.NewEngine(cpu, netjitter, osrand, store, conf.RotateUses, conf.RotateAge)
	engine.InitializePrometheusMetrics()

	// service endpoints
	mux.HandleFunc("GET /rng", rng.RandomHandler(engine))
	log.Printf("Random values: %s/rng", srv.Addr())
	mux.HandleFunc("GET /rng/ws", rng.StreamHandler(engine, conf.AllowedOrigins))
	log.Printf("Random stream: %s/rng/ws", srv.Addr())
	mux.HandleFunc("GET /health", rng.HealthHandler(engine, store))
	log.Printf("Health report: %s/health", srv.Addr())

	// liveness and version message
	mux.HandleFunc("GET /healthz", server.Healthz())
	mux.HandleFunc("GET /api/version", server.Version())

	// pprof endpoint for debugging
	if conf.Debug {
		mux.Handle("GET /debug/pprof/", server.Profiling())
		log.Printf("DEBUG: rngd PID is %d", os.Getpid())
		log.Printf("DEBUG: pprof profiles at %s/debug/pprof", srv.Addr())
	}

	// prometheus metrics
	if conf.Metrics {
		mux.Handle("/metrics", server.Prometheus())
		log.Printf("Prometheus metrics: %s/metrics", srv.Addr())
	}

	// start listening http server
	log.Printf("rngd listening on %s", srv.Addr())
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("oops: %s", err)
	}

}

//
// ---
