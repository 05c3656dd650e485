// Command led-selector polls two buttons and drives a red LED and an RGB LED bank.
// One button selects which LED group is active, the other cycles it.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sweeney/led-selector/internal/board"
	"github.com/sweeney/led-selector/internal/config"
	"github.com/sweeney/led-selector/internal/gpio"
	"github.com/sweeney/led-selector/internal/logger"
	"github.com/sweeney/led-selector/internal/mqtt"
	"github.com/sweeney/led-selector/internal/status"
	"github.com/sweeney/led-selector/internal/web"
)

type options struct {
	configPath string
	printState bool
	poll       time.Duration
	debounce   time.Duration
	heartbeat  time.Duration
	broker     string
	clientID   string
	httpAddr   string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "led-selector",
		Short:         "Poll the select/mode buttons and drive the red and RGB LEDs.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Flags(), opts)
			if err != nil {
				logger.Errorf("config: %v", err)
				return err
			}
			if err := run(cfg, opts.printState); err != nil {
				logger.Errorf("fatal: %v", err)
				return err
			}
			return nil
		},
	}

	addFlags(cmd.Flags(), opts)
	return cmd
}

func addFlags(f *pflag.FlagSet, opts *options) {
	f.StringVarP(&opts.configPath, "config", "c", config.DefaultConfigFilename, "path to YAML configuration file")
	f.BoolVar(&opts.printState, "print-state", false, "print button and LED levels and exit")
	f.DurationVar(&opts.poll, "poll", config.DefaultPoll, "button polling interval")
	f.DurationVar(&opts.debounce, "debounce", config.DefaultDebounce, "debounce settle time")
	f.DurationVar(&opts.heartbeat, "heartbeat", config.DefaultHeartbeat, "MQTT heartbeat interval (0 to disable)")
	f.StringVar(&opts.broker, "broker", "", "MQTT broker address (empty disables MQTT)")
	f.StringVar(&opts.clientID, "client-id", config.DefaultClientID, "MQTT client identifier")
	f.StringVar(&opts.httpAddr, "http", config.DefaultHTTPAddr, "HTTP status address (empty to disable)")
	f.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}

// loadConfig reads the config file and applies flags the user set explicitly.
// The default config path may be absent; an explicit one must exist.
func loadConfig(f *pflag.FlagSet, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath, !f.Changed("config"))
	if err != nil {
		return nil, err
	}

	if f.Changed("poll") {
		cfg.Poll = opts.poll
	}
	if f.Changed("debounce") {
		cfg.Debounce = opts.debounce
	}
	if f.Changed("heartbeat") {
		cfg.Heartbeat = opts.heartbeat
	}
	if f.Changed("broker") {
		cfg.Broker = opts.broker
	}
	if f.Changed("client-id") {
		cfg.ClientID = opts.clientID
	}
	if f.Changed("http") {
		cfg.HTTPAddr = opts.httpAddr
	}
	if f.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	lvl, ok := logger.ParseLogLevel(cfg.LogLevel)
	if !ok {
		return nil, fmt.Errorf("unknown log level %q", cfg.LogLevel)
	}
	logger.SetLevel(lvl)
	return cfg, nil
}

func run(cfg *config.Config, printState bool) error {
	defer logger.Sync()

	pins, err := gpio.NewRealIO(cfg.Mapping())
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer func() {
		if err := pins.Close(); err != nil {
			logger.Warnf("close gpio: %v", err)
		}
	}()

	layout := cfg.Layout.Layout()
	if err := board.Init(pins, layout); err != nil {
		return fmt.Errorf("init board: %w", err)
	}

	if printState {
		return printLevels(os.Stdout, pins, layout)
	}

	startTime := time.Now()
	ctrl := board.NewController(pins, layout, cfg.Debounce, nil, startTime)

	var publisher interface {
		mqtt.Publisher
		mqtt.ConnectionStatus
	} = mqtt.NopPublisher{}
	if cfg.Broker != "" {
		publisher = mqtt.NewRealPublisher(cfg.Broker, cfg.ClientID)
	}
	defer publisher.Close()

	tracker := status.NewTracker(startTime, status.Config{
		PollMs:      cfg.Poll.Milliseconds(),
		DebounceMs:  cfg.Debounce.Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		Broker:      cfg.Broker,
		HTTPAddr:    cfg.HTTPAddr,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	startupEvent := mqtt.SystemEvent{
		Timestamp:  startTime,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(tracker.Snapshot(), "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		logger.Warnf("failed to publish startup event: %v", err)
	}

	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Errorf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		logger.Infof("http status server listening on %s", cfg.HTTPAddr)
	}

	logger.Infof("started: poll=%v debounce=%v broker=%q heartbeat=%v select=%s mode=%s red=%s rgb=P%d/%#02x",
		cfg.Poll, cfg.Debounce, cfg.Broker, cfg.Heartbeat,
		layout.SelectButton, layout.ModeButton, layout.RedLED, layout.RGBPort, layout.RGBMask())

	ticker := time.NewTicker(cfg.Poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(ctrl, publisher, publisher, tracker, cfg.Heartbeat, time.Now, ticker.C, sigCh)
}

// runLoop polls the controller once per tick until a signal arrives.
// now is called exactly once per tick and once on shutdown.
func runLoop(ctrl *board.Controller, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			logger.Infof("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				updateTracker(ctrl, mqttStatus, tracker)
				event.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				logger.Warnf("failed to publish shutdown event: %v", err)
			}
			return nil

		case <-tick:
			t := now()
			events, err := ctrl.Poll(t)
			if err != nil {
				logger.Warnf("poll error: %v", err)
			}

			for _, event := range events {
				logger.InfoKV("button action", "event", event.Type, "selected", event.Selected,
					"red", status.OnOff(event.Red), "rgb", event.RGB)
				if tracker != nil {
					tracker.RecordEvent(event)
				}
				if err := publisher.Publish(event); err != nil {
					logger.Warnf("publish error: %v", err)
				}
			}

			if hb := ctrl.CheckHeartbeat(t, heartbeat); hb != nil {
				logger.Debugf("heartbeat: uptime=%v select=%d cycle=%d", hb.Uptime, hb.Counts.SelectLED, hb.Counts.CycleLED)
				hbEvent := mqtt.SystemEvent{Timestamp: hb.Timestamp, Event: "HEARTBEAT"}
				if tracker != nil {
					if net := readNetworkInfo(); net != nil {
						tracker.SetNetwork(net)
					}
					updateTracker(ctrl, mqttStatus, tracker)
					hbEvent.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					logger.Warnf("heartbeat publish error: %v", err)
				}
			}

			if tracker != nil {
				updateTracker(ctrl, mqttStatus, tracker)
			}
		}
	}
}

func updateTracker(ctrl *board.Controller, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker) {
	selected, red, rgb, err := ctrl.State()
	if err != nil {
		logger.Warnf("read led state: %v", err)
		return
	}
	tracker.Update(selected, red, rgb, ctrl.EventCountsSnapshot())
	if mqttStatus != nil {
		tracker.SetMQTTConnected(mqttStatus.IsConnected())
	}
}

// printLevels writes raw button levels and the LED output latches.
func printLevels(w io.Writer, pins gpio.IO, layout board.Layout) error {
	sel, err := pins.Read(layout.SelectButton)
	if err != nil {
		return fmt.Errorf("read select button: %w", err)
	}
	mode, err := pins.Read(layout.ModeButton)
	if err != nil {
		return fmt.Errorf("read mode button: %w", err)
	}
	redPort, err := pins.Output(layout.RedLED.Port)
	if err != nil {
		return fmt.Errorf("read red led: %w", err)
	}
	rgbPort, err := pins.Output(layout.RGBPort)
	if err != nil {
		return fmt.Errorf("read rgb leds: %w", err)
	}
	fmt.Fprintf(w, "SELECT: %s, MODE: %s, RED: %s, RGB: %d\n",
		buttonString(sel), buttonString(mode),
		status.OnOff(redPort&layout.RedLED.Mask() != 0),
		(rgbPort&layout.RGBMask())>>layout.RGBOffset)
	return nil
}

// buttonString renders an active-low line level.
func buttonString(high bool) string {
	if high {
		return "RELEASED"
	}
	return "PRESSED"
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
