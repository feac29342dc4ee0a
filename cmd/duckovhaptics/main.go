package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"codeberg.org/mutker/duckovhaptics/internal/config"
	"codeberg.org/mutker/duckovhaptics/internal/device"
	"codeberg.org/mutker/duckovhaptics/internal/errors"
	"codeberg.org/mutker/duckovhaptics/internal/haptics"
	"codeberg.org/mutker/duckovhaptics/internal/logger"
	"codeberg.org/mutker/duckovhaptics/internal/pid"
	"codeberg.org/mutker/duckovhaptics/internal/plugin"
	"codeberg.org/mutker/duckovhaptics/internal/telemetry"
)

const (
	statusInterval = time.Second
	// oneShotTimeout bounds how long a preview waits for its pulse to end
	oneShotTimeout = 10 * time.Second
)

var (
	cfg       *config.Config
	pidFile   *pid.File
	ctrl      device.Controller
	closer    io.Closer
	collector telemetry.Collector
	sim       *simulatedHost
	core      *plugin.Plugin
)

func init() {
	// SDL must be driven from a single OS thread
	runtime.LockOSThread()
}

func setup() {
	var err error
	cfg, err = config.Load(os.Args[1:])
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.LogLevel, logger.IsService()); err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug().Str("file", cfg.FileUsed()).Msg("Config loaded")

	pidFile = pid.New("", pid.DefaultName)
	if err := pidFile.Write(); err != nil {
		fatal(err, "failed to write PID file")
	}

	ctrl, closer, err = openBackend(config.Backend(cfg.Backend))
	if err != nil {
		_ = pidFile.Remove()
		fatal(err, "failed to initialize controller backend")
	}

	collector, err = telemetry.NewService(telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		DBPath:       cfg.Telemetry.DBPath,
		BatchSize:    cfg.Telemetry.BatchSize,
		BatchTimeout: cfg.Telemetry.BatchTimeout,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Telemetry unavailable, continuing without it")
		collector = telemetry.Noop()
	}

	sim, err = newSimulatedHost()
	if err != nil {
		fatal(err, "failed to build host catalog")
	}

	settings := plugin.DefaultSettings()
	settings.Namespace = cfg.Namespace
	settings.StaleAfter = cfg.StaleAfterDuration()
	settings.Collector = collector
	core = plugin.New(sim.catalog, ctrl, cfg.Options(), settings)
}

func main() {
	setup()
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	if err := cfg.Options().Watch(ctx); err != nil {
		logger.Warn().Err(err).Msg("Live option reload disabled")
	}

	var err error
	switch {
	case cfg.Pulse != "" || cfg.Weapon != "":
		err = oneShot(ctx)
	default:
		err = loop(ctx)
	}
	if err != nil {
		logger.Error().Err(err).Msg("error in main loop")
	}
}

func openBackend(b config.Backend) (device.Controller, io.Closer, error) {
	switch b {
	case config.BackendXInput:
		x, err := device.NewXInput()
		if err != nil {
			return nil, nil, err
		}
		return x, x, nil
	default:
		s, err := device.NewSDL()
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	}
}

// oneShot plays the requested preview and returns once the motors stopped
func oneShot(ctx context.Context) error {
	core.Update(time.Now())

	var res haptics.Result
	if cfg.Pulse != "" {
		r, err := core.Preview(cfg.Pulse)
		if err != nil {
			return err
		}
		res = r
	} else {
		res = core.PreviewWeapon(cfg.Weapon)
	}

	if !res.Issued {
		logger.Warn().Str("reason", res.Reason.String()).Msg("No pulse played")
		return nil
	}
	logger.Info().
		Str("device", string(res.Device)).
		Float64("low", res.Low).
		Float64("high", res.High).
		Msg("Playing pulse")

	ticker := time.NewTicker(cfg.FrameInterval())
	defer ticker.Stop()
	deadline := time.After(oneShotTimeout)

	for core.Pending() {
		select {
		case <-ctx.Done():
			return nil
		case <-deadline:
			return errors.New().New(errors.ErrTimeout)
		case now := <-ticker.C:
			core.Update(now)
		}
	}

	return nil
}

func loop(ctx context.Context) error {
	ticker := time.NewTicker(cfg.FrameInterval())
	defer ticker.Stop()

	if cfg.Monitor {
		logger.Info().Msg("Monitor mode activated. Logging controller status...")
	} else if err := core.Enable(); err != nil {
		return err
	}

	var commands chan command
	if cfg.Console {
		commands = make(chan command)
		go readCommands(os.Stdin, commands)
		logger.Info().Msg("Console ready, type \"help\" for commands")
	}

	draining := false
	lastStatus := time.Time{}

	for {
		select {
		case <-ctx.Done():
			return nil

		case cmd, ok := <-commands:
			if !ok {
				// Input ended: finish the running pulse, then exit
				commands = nil
				draining = true
				continue
			}
			if quit := handleCommand(cmd); quit {
				return nil
			}

		case now := <-ticker.C:
			core.Update(now)

			if draining && !core.Pending() {
				return nil
			}
			if cfg.Monitor && now.Sub(lastStatus) >= statusInterval {
				logStatus()
				lastStatus = now
			}
		}
	}
}

func handleCommand(cmd command) bool {
	raised, err := sim.raise(cmd)
	if raised {
		if err != nil {
			logger.Warn().Err(err).Str("command", cmd.verb).Msg("Failed to raise notification")
		}
		return false
	}

	switch cmd.verb {
	case "quit", "exit":
		return true
	case "help":
		fmt.Println(usage())
	case "status":
		logStatus()
	case "stop":
		core.Stop()
	case "rescan":
		logger.Info().Int("added", core.Rescan()).Msg("Rescan finished")
	case "preview":
		if len(cmd.args) == 0 {
			logger.Warn().Msg("preview needs a preset name")
			break
		}
		res, err := core.Preview(cmd.args[0])
		if err != nil {
			logger.Warn().Err(err).Msg("Preview failed")
			break
		}
		logger.Info().Str("reason", res.Reason.String()).Str("device", string(res.Device)).Msg("Preview")
	case "weapon":
		res := core.PreviewWeapon(strings.Join(cmd.args, " "))
		logger.Info().Str("reason", res.Reason.String()).Str("device", string(res.Device)).Msg("Weapon pulse")
	default:
		logger.Warn().Err(unknownCommand(cmd.verb)).Msg("Ignoring input")
	}

	return false
}

func logStatus() {
	st := core.Status()

	logger.Info().
		Bool("enabled", st.Enabled).
		Int("controllers", len(st.Controllers)).
		Str("active", string(st.Active)).
		Str("active_name", st.ActiveName).
		Bool("vibrating", st.Vibrating).
		Int("subscriptions", st.Subscriptions).
		Strs("bound", st.Bound).
		Str("last_event", st.LastEvent).
		Msg("")

	for _, c := range st.Controllers {
		logger.Debug().
			Str("device", string(c.ID)).
			Str("name", c.Name).
			Bool("recent_input", c.HasRecentInput).
			Time("last_input", c.LastInput).
			Msg("Controller")
	}
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func cleanup() {
	core.Destroy()

	if err := closer.Close(); err != nil {
		logger.Error().Err(err).Msg("failed to close controller backend")
	}
	if err := collector.Close(); err != nil {
		logger.Error().Err(err).Msg("failed to close telemetry")
	}
	if err := pidFile.Remove(); err != nil {
		logger.Error().Err(err).Msg("failed to remove PID file")
	}
	logger.Info().Msg("Exiting...")
}

func fatal(err error, msg string) {
	var coded errors.Error
	if errors.As(err, &coded) {
		logger.FatalWithCode(coded).Msg(msg)
	}
	logger.Fatal().Err(err).Msg(msg)
}
