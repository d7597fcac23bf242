// Command javelind is the server entrypoint: it loads configuration,
// wires storage, auth, the fanout session manager, the HLS writer, the
// RTMP acceptor, and the admin HTTP surface together, and blocks until
// one of the listeners fails. Grounded on
// _examples/adarshm11-RapidRTMP/main.go for the wiring order (storage ->
// auth -> stream manager -> segmenter -> HTTP -> RTMP), adapted to this
// module's component names and extended with the HLS reaper and RTMP
// acceptor.
package main

import (
	"log"
	"os"

	"javelin/config"
	"javelin/internal/acceptor"
	"javelin/internal/adminhttp"
	"javelin/internal/auth"
	"javelin/internal/fanout"
	"javelin/internal/hls"
	"javelin/internal/metrics"
	"javelin/internal/rtmpproto"
	"javelin/internal/storage"
)

func main() {
	cfg := config.Load(os.Args[1:])

	log.Printf("javelin: rtmp listen %s:%d (rtmps=%v)", cfg.RTMPBind, cfg.RTMPPort, cfg.TLSEnabled)
	log.Printf("javelin: admin http listen %s", cfg.AdminBind)

	m := metrics.New()

	authTable := auth.NewTable(cfg.StreamKeys)

	var hlsRegistrar fanout.HLSRegistrar
	if cfg.HLSEnabled {
		store, err := storage.NewLocalStorage(cfg.HLSRoot)
		if err != nil {
			log.Fatalf("javelin: hls root: %v", err)
		}
		reaper := hls.NewReaper(store, m)
		segmenter, err := hls.New(store, reaper, m)
		if err != nil {
			log.Fatalf("javelin: hls startup: %v", err)
		}
		hlsRegistrar = segmenter
		log.Printf("javelin: hls enabled, root=%s", cfg.HLSRoot)
	} else {
		log.Printf("javelin: hls disabled")
	}

	manager := fanout.NewManager(authTable, cfg.Republish, hlsRegistrar, m)

	rtmpServer := rtmpproto.New(manager, m)

	acc := acceptor.New(acceptor.Config{
		Bind:            cfg.RTMPBind,
		Port:            cfg.RTMPPort,
		TLSEnabled:      cfg.TLSEnabled,
		TLSPort:         cfg.RTMPSPort,
		TLSCertPath:     cfg.TLSCertPath,
		TLSCertPassword: cfg.TLSCertPassword,
	}, rtmpServer)

	admin := adminhttp.New(manager.Registry(), m)

	errs := make(chan error, 2)
	go func() { errs <- acc.Run() }()
	go func() { errs <- admin.Run(cfg.AdminBind) }()

	if err := <-errs; err != nil {
		log.Fatalf("javelin: fatal: %v", err)
	}
}
