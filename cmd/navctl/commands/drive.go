package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/sukyun02/2026-autonomous-driving/internal/config"
	"github.com/sukyun02/2026-autonomous-driving/internal/control"
	"github.com/sukyun02/2026-autonomous-driving/internal/journal"
	"github.com/sukyun02/2026-autonomous-driving/internal/lidar/rplidar"
	"github.com/sukyun02/2026-autonomous-driving/internal/lidar/scan"
	"github.com/sukyun02/2026-autonomous-driving/internal/perception"
	"github.com/sukyun02/2026-autonomous-driving/internal/publish"
	"github.com/sukyun02/2026-autonomous-driving/internal/serialmux"
	"github.com/sukyun02/2026-autonomous-driving/internal/sim"
	"github.com/sukyun02/2026-autonomous-driving/internal/vehicle"
	"github.com/sukyun02/2026-autonomous-driving/internal/viz"
)

type driveOptions struct {
	bench             bool
	benchAheadMM      int
	disableController bool
	controllerSettle  time.Duration
	lane              string
	light             string
	sessionID         string
	listen            string
	noJournal         bool
}

func newDriveCmd() *cobra.Command {
	var o driveOptions
	cmd := &cobra.Command{
		Use:   "drive",
		Short: "Run the control loop until interrupted",
		Long: `Run the control loop: one decision per range scanner revolution,
sent to the motor controller when it changes.

--bench replaces both devices with synthetic ones so the loop, the debug
pages, the journal and the publisher can be exercised on a desk.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runDrive(cmd.Context(), cmd.OutOrStdout(), cfg, o)
		},
	}
	f := cmd.Flags()
	f.BoolVar(&o.bench, "bench", false, "use a synthetic scanner and motor controller")
	f.IntVar(&o.benchAheadMM, "bench-ahead", 1500, "distance of the synthetic point straight ahead, in mm")
	f.BoolVar(&o.disableController, "disable-controller", false, "do not open the motor controller; commands are discarded")
	f.DurationVar(&o.controllerSettle, "controller-settle", 2*time.Second, "wait after opening the motor controller (it resets on connect)")
	f.StringVar(&o.lane, "lane", "forward", "lane readings, cycled per revolution: e.g. forward,forward,left or forward/red,left/green")
	f.StringVar(&o.light, "light", "", "fixed traffic light when --lane has no /light part")
	f.StringVar(&o.sessionID, "session-id", "", "session identifier (default: random uuid)")
	f.StringVar(&o.listen, "listen", "", "debug HTTP address (overrides config; \"-\" disables)")
	f.BoolVar(&o.noJournal, "no-journal", false, "do not write the decision journal")
	return cmd
}

// lightOverride applies a fixed traffic light on top of a lane source.
type lightOverride struct {
	perception.LaneSource
	light control.TrafficLight
}

func (l lightOverride) TrafficLight(context.Context) (control.TrafficLight, error) {
	return l.light, nil
}

func perceptionSources(o driveOptions) (perception.LaneSource, perception.TrafficLightSource, error) {
	script, err := perception.ParseScript(o.lane)
	if err != nil {
		return nil, nil, err
	}
	if o.light == "" {
		return script, script, nil
	}
	light, err := perception.ParseLight(o.light)
	if err != nil {
		return nil, nil, err
	}
	return script, lightOverride{LaneSource: script, light: light}, nil
}

// openController opens the motor controller link chosen by the flags.
func openController(cfg *config.NavConfig, o driveOptions) (serialmux.SerialMuxInterface, error) {
	switch {
	case o.bench:
		lines := []string{"F:120,FL:110,FR:115,R:90,RL:95,RR:92", "READY"}
		return serialmux.NewMockSerialMux(lines, 100*time.Millisecond), nil
	case o.disableController:
		return serialmux.NewDisabledSerialMux(), nil
	}
	link, err := serialmux.NewRealSerialMux(cfg.GetArduinoPort(), cfg.GetArduinoSerial())
	if err != nil {
		return nil, err
	}
	if o.controllerSettle > 0 {
		time.Sleep(o.controllerSettle)
	}
	return link, nil
}

// openScanner opens the range scanner and starts scanning. The returned
// closer may be nil.
func openScanner(ctx context.Context, cfg *config.NavConfig, o driveOptions) (scan.Source, io.Closer, error) {
	if o.bench {
		return sim.NewBenchScanner(o.benchAheadMM, 100*time.Millisecond), nil, nil
	}
	dev, err := rplidar.Open(cfg.GetLidarPort(),
		serialmux.PortOptions{BaudRate: cfg.GetLidarBaud()},
		rplidar.Options{MotorPWM: cfg.GetLidarMotorPWM()})
	if err != nil {
		return nil, nil, err
	}
	if err := dev.Init(ctx); err != nil {
		dev.Close()
		return nil, nil, err
	}
	if err := dev.Start(ctx); err != nil {
		dev.Close()
		return nil, nil, err
	}
	return dev, dev, nil
}

func runDrive(parent context.Context, out io.Writer, cfg *config.NavConfig, o driveOptions) error {
	lane, light, err := perceptionSources(o)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	id := o.sessionID
	if id == "" {
		id = uuid.NewString()
	}

	link, err := openController(cfg, o)
	if err != nil {
		return fmt.Errorf("motor controller: %w", err)
	}
	scanner, scannerCloser, err := openScanner(ctx, cfg, o)
	if err != nil {
		// nothing has moved yet but the controller may hold a stale command
		_ = link.WriteByte(byte(control.Stop))
		link.Close()
		return fmt.Errorf("range scanner: %w", err)
	}

	var recorder vehicle.Recorder
	var jnl *journal.Journal
	if path := cfg.GetJournalPath(); path != "" && !o.noJournal {
		jnl, err = journal.Open(path)
		if err != nil {
			warning(out, "journal disabled: %v", err)
		} else if _, err := jnl.StartSession(id, time.Now(), cfg); err != nil {
			warning(out, "journal disabled: %v", err)
			jnl.Close()
			jnl = nil
		} else {
			recorder = jnl
			defer jnl.Close()
		}
	}

	subID, telemetry := link.Subscribe()
	defer link.Unsubscribe(subID)

	session := vehicle.New(vehicle.ConfigFrom(cfg), vehicle.Deps{
		SessionID:     id,
		Scanner:       scanner,
		ScannerCloser: scannerCloser,
		Telemetry:     telemetry,
		Sink:          control.SerialSink{W: link},
		Link:          link,
		Lane:          lane,
		Light:         light,
		Recorder:      recorder,
		Report:        func(st vehicle.Status) { statusLine(out, st) },
	})

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		// a lost link closes the telemetry subscription, which ends the
		// session with ErrLinkClosed
		if err := link.Monitor(ctx); err != nil && ctx.Err() == nil {
			failure(out, "motor controller link lost: %v", err)
		}
	}()

	listen := cfg.GetListen()
	if o.listen != "" {
		listen = o.listen
	}
	if listen != "" && listen != "-" {
		mux := http.NewServeMux()
		link.AttachAdminRoutes(mux)
		viz.NewServer(session, vehicle.ConfigFrom(cfg).Zone).AttachAdminRoutes(mux)
		if jnl != nil {
			if err := jnl.AttachAdminRoutes(mux); err != nil {
				warning(out, "journal routes: %v", err)
			}
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			serveDebug(ctx, out, listen, mux)
		}()
	}

	if addr := cfg.GetRedisAddr(); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		defer rdb.Close()
		pub := publish.New(rdb, session, publish.Options{
			Channel:  cfg.GetRedisChannel(),
			Interval: cfg.GetPublishInterval(),
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = pub.Run(ctx)
		}()
	}

	success(out, "session %s driving (lane %q)", id, o.lane)
	runErr := session.Run(ctx)
	// the loop owns the devices; everything else follows it down
	stop()
	wg.Wait()

	if st, ok := session.Status(); ok {
		info(out, "stopped after %d cycles, %d commands sent", st.Cycle, st.CommandsSent)
	}
	if runErr != nil {
		return runErr
	}
	success(out, "vehicle stopped")
	return nil
}

func serveDebug(ctx context.Context, out io.Writer, addr string, mux *http.ServeMux) {
	server := &http.Server{Addr: addr, Handler: mux}
	errc := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()
	info(out, "debug pages on http://%s/debug/", addr)

	select {
	case err := <-errc:
		warning(out, "debug server: %v", err)
		return
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		if err := server.Close(); err != nil {
			warning(out, "debug server close: %v", err)
		}
	}
}

func init() {
	rootCmd.AddCommand(newDriveCmd())
}
