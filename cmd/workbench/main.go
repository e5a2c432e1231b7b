// cmd/workbench/main.go
package main

import (
	"flag"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-workbench/internal/bridge"
	"github.com/tamzrod/modbus-workbench/internal/config"
	"github.com/tamzrod/modbus-workbench/internal/engine"
	"github.com/tamzrod/modbus-workbench/internal/metrics"
	"github.com/tamzrod/modbus-workbench/internal/monitor"
	"github.com/tamzrod/modbus-workbench/internal/poll"
	"github.com/tamzrod/modbus-workbench/internal/rawlog"
	"github.com/tamzrod/modbus-workbench/internal/session"
)

func main() {
	var (
		statePath    = flag.String("state", defaultStatePath(), "file for persisted settings and display preferences")
		metricsAddr  = flag.String("metrics-addr", "", "serve Prometheus metrics on this address (empty = off)")
		mqttBroker   = flag.String("mqtt-broker", "", "publish monitor snapshots to this MQTT broker (empty = off)")
		mqttTopic    = flag.String("mqtt-topic", "workbench/snapshot", "MQTT topic for snapshot publishes")
		logLevel     = flag.String("log-level", "info", "zerolog level: trace, debug, info, warn, error")
		quietTraffic = flag.Bool("quiet-traffic", false, "suppress TX/RX hex lines on the console")
	)
	flag.Parse()

	// --------------------
	// Logger
	// --------------------

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().Level(level)

	// --------------------
	// Persisted state
	// --------------------

	state, err := config.LoadState(*statePath)
	if err != nil {
		logger.Debug().Err(err).Str("path", *statePath).Msg("no usable state file, starting fresh")
		state = config.DefaultState()
	}

	// --------------------
	// Core wiring
	// --------------------

	traffic := rawlog.NewBroadcaster()
	mon := monitor.New()
	eng := engine.New(engine.DialTransport, traffic, logger)
	sess := session.New(eng, mon, logger,
		session.WithPollOptions(pollOptions(state)...))

	// ---- traffic printer ----
	if !*quietTraffic {
		cancel := traffic.Subscribe(printTraffic)
		defer cancel()
	}

	// ---- metrics ----
	if *metricsAddr != "" {
		collector := metrics.NewCollector(prometheus.DefaultRegisterer)
		cancel := traffic.Subscribe(collector.Handle)
		defer cancel()

		go func() {
			http.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
				logger.Error().Err(err).Msg("metrics server stopped")
			}
		}()
		logger.Info().Str("addr", *metricsAddr).Msg("serving /metrics")
	}

	// ---- mqtt bridge ----
	if *mqttBroker != "" {
		pub := bridge.New(*mqttBroker, *mqttTopic, logger)
		if err := pub.Connect(); err != nil {
			logger.Warn().Err(err).Msg("mqtt bridge unavailable")
		} else {
			cancel := mon.Subscribe(pub.Handle)
			defer cancel()
			defer pub.Close()
			logger.Info().Str("broker", *mqttBroker).Str("topic", *mqttTopic).Msg("mqtt bridge up")
		}
	}

	// --------------------
	// Command loop
	// --------------------

	r := &repl{
		sess:  sess,
		mon:   mon,
		state: state,
		log:   logger,
		out:   os.Stdout,
	}
	r.run(os.Stdin)

	// --------------------
	// Shutdown
	// --------------------

	sess.StopPoll()
	if sess.Connected() {
		if err := sess.Disconnect(); err != nil {
			logger.Warn().Err(err).Msg("disconnect on exit")
		}
	}
	if err := config.SaveState(*statePath, r.state); err != nil {
		logger.Warn().Err(err).Str("path", *statePath).Msg("state not saved")
	}
}

func pollOptions(state *config.State) []poll.Option {
	if state.PollIntervalMs <= 0 {
		return nil
	}
	return []poll.Option{
		poll.WithInterval(time.Duration(state.PollIntervalMs) * time.Millisecond),
	}
}

func defaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".modbus-workbench.yaml"
	}
	return filepath.Join(home, ".modbus-workbench.yaml")
}
