// Command ffbengine is the embedding host: it owns the RT thread, the
// HID output worker, the off-path pipeline compiler, and the
// snapshot/config/event HTTP surface. It wires together every
// subsystem package into one process.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/openracing/ffbengine/internal/alloc"
	"github.com/openracing/ffbengine/internal/config"
	"github.com/openracing/ffbengine/internal/ffbcore/frame"
	"github.com/openracing/ffbengine/internal/ffbcore/pipeline"
	"github.com/openracing/ffbengine/internal/ffbcore/scheduler"
	"github.com/openracing/ffbengine/internal/fmea"
	"github.com/openracing/ffbengine/internal/hidio"
	"github.com/openracing/ffbengine/internal/hidio/dispatch"
	"github.com/openracing/ffbengine/internal/hidio/transport/serialport"
	"github.com/openracing/ffbengine/internal/hidio/transport/virtualport"
	"github.com/openracing/ffbengine/internal/metrics"
	"github.com/openracing/ffbengine/internal/snapshot"
	"github.com/openracing/ffbengine/internal/telemetry"
	"github.com/openracing/ffbengine/internal/watchdog"
)

// defaultDevice is the (VID, PID) the virtual HID backend identifies as,
// for bring-up without real hardware attached: a Logitech G920.
const (
	defaultVID = 0x046D
	defaultPID = 0xC262
)

func main() {
	configPath := flag.String("config", "/etc/ffbengine/config.yaml", "Path to config file")
	listenAddr := flag.String("listen", "", "Override snapshot/event HTTP listen address (e.g. :8090)")
	hidBackend := flag.String("hid-backend", "virtual", "HID transport: virtual|native")
	serialPath := flag.String("serial-port", "", "Serial device path for --hid-backend=native")
	rtPriority := flag.String("rt-priority", "", "Requested OS scheduling priority for the RT thread (advisory; logged, not enforced cross-platform)")
	pinCore := flag.Int("pin-core", -1, "Pin the RT thread's OS thread via runtime.LockOSThread (-1 disables)")
	metricsAddr := flag.String("metrics-listen", ":9090", "Prometheus /metrics listen address")
	debugAlloc := flag.Bool("debug-alloc", false, "Run a short zero-allocation audit of the RT loop at startup and log the result")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.Println("[main] ffbengine starting")

	cfg := config.LoadConfig(*configPath)
	if *listenAddr != "" {
		cfg.Listen = *listenAddr
	}

	filterDoc, policy, _ := cfg.Snapshot()
	filterCfg, err := filterDoc.ToFilterConfig()
	if err != nil {
		log.Fatalf("[main] invalid filter configuration: %v", err)
	}
	compiled, err := pipeline.Compile(filterCfg)
	if err != nil {
		log.Fatalf("[main] pipeline compile failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("[main] received %v, shutting down", sig)
		cancel()
	}()

	registry := watchdog.NewRegistry()
	pluginRegistry := watchdog.NewPluginRegistry()
	system := fmea.NewWithThresholds(fmea.FaultThresholds{
		UsbStallConsecutiveFailures: policy.UsbStallCount,
		ThermalLimitC:               policy.ThermalLimitC,
		OvercurrentLimitA:           policy.OvercurrentA,
		EncoderNaNWindow:            5,
		TimingViolationCount:        policy.DeadlineMissThreshold,
	})

	port, handler, err := openHIDBackend(*hidBackend, *serialPath)
	if err != nil {
		log.Fatalf("[main] unable to open HID backend %q: %v", *hidBackend, err)
	}
	if err := port.Open(); err != nil {
		log.Fatalf("[main] unable to open HID port: %v", err)
	}
	defer port.Close()
	sink := hidio.NewSink(handler, port, 2*time.Millisecond)

	demoSource := telemetry.NewDemoSource()
	adapter := telemetry.NewSchedulerAdapter()
	go pumpTelemetry(ctx, adapter, demoSource)

	obs := &deadlineObserver{registry: registry, system: system}
	hidObs := &hidWriteObserver{registry: registry, system: system, sink: sink}

	loop := scheduler.NewLoop(adapter, hidObs, fmea.NewScaleAdapter(system), obs, int64(200*time.Microsecond))
	loop.SetPipeline(compiled)

	if *pinCore >= 0 {
		log.Printf("[main] pin-core=%d requested: locking RT goroutine to its OS thread", *pinCore)
	}
	if *rtPriority != "" {
		log.Printf("[main] rt-priority=%s requested (advisory only: no portable Go API elevates scheduling class)", *rtPriority)
	}

	if *debugAlloc {
		runAllocAudit(loop)
	}

	metrics.ServeAddr(*metricsAddr)
	log.Printf("[main] metrics listening on %s", *metricsAddr)

	var rtWG sync.WaitGroup
	rtWG.Add(1)
	go func() {
		defer rtWG.Done()
		if *pinCore >= 0 {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
		}
		registry.Heartbeat(watchdog.ComponentRTThread)
		loop.Run()
	}()

	startedAt := time.Now()
	stateFn := func() snapshot.ProcessSnapshot {
		return buildSnapshot(loop, system, pluginRegistry, hidObs, startedAt)
	}

	srv := snapshot.New(cfg, stateFn)
	go watchConfigChanges(ctx, srv, cfg, loop)
	go func() {
		<-ctx.Done()
		loop.Stop()
	}()

	if err := srv.Run(ctx); err != nil {
		log.Printf("[main] snapshot server exited: %v", err)
	}
	rtWG.Wait()
	log.Println("[main] shutdown complete")
}

// openHIDBackend resolves the transport Port and VendorHandler for the
// requested backend. Both backends resolve the handler from the dispatch
// table for the fixed defaultVID/defaultPID pair and fail if dispatch
// cannot positively identify it; the VID/PID of the opened device itself
// is not read. virtual pairs that handler with an in-memory loopback,
// native with a serial port opened at serialPath.
func openHIDBackend(backend, serialPath string) (hidio.Port, hidio.VendorHandler, error) {
	table := dispatch.New()

	handler, _, ok := table.Resolve(defaultVID, defaultPID)
	if !ok {
		return nil, nil, &unsupportedDeviceError{vid: defaultVID, pid: defaultPID}
	}

	switch backend {
	case "native":
		return serialport.New(serialport.Config{Path: serialPath}), handler, nil
	default:
		return virtualport.New(32), handler, nil
	}
}

type unsupportedDeviceError struct {
	vid, pid uint16
}

func (e *unsupportedDeviceError) Error() string {
	return "hidio: unsupported or unverified device"
}

// watchConfigChanges recompiles the filter pipeline and stages it into
// the RT loop every time POST /api/config saves a new config. This is
// the off-the-hot-path half of the compile/swap split (§2): the HTTP
// handler only updates and persists cfg, never touches the pipeline or
// the loop directly.
func watchConfigChanges(ctx context.Context, srv *snapshot.Server, cfg *config.Config, loop *scheduler.Loop) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-srv.ConfigChanged():
			recompileAndSwap(cfg, loop)
		}
	}
}

func recompileAndSwap(cfg *config.Config, loop *scheduler.Loop) {
	filterDoc, _, _ := cfg.Snapshot()
	filterCfg, err := filterDoc.ToFilterConfig()
	if err != nil {
		log.Printf("[main] config update: invalid filter configuration, keeping current pipeline: %v", err)
		return
	}
	compiled, err := pipeline.Compile(filterCfg)
	if err != nil {
		log.Printf("[main] config update: pipeline compile failed, keeping current pipeline: %v", err)
		return
	}
	loop.SetPipeline(compiled)
	log.Printf("[main] config update: new pipeline staged (hash=%s)", strconv.FormatUint(compiled.ConfigHash(), 16))
}

// pumpTelemetry feeds adapter from source until ctx is cancelled, at the
// telemetry adapter's own generation rate rather than the RT loop's tick
// rate — the adapter always hands the RT thread whatever was most
// recently published.
func pumpTelemetry(ctx context.Context, adapter *telemetry.SchedulerAdapter, source telemetry.Source) {
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			adapter.Pump(source)
		}
	}
}

// deadlineObserver bridges the RT loop's deadline-miss notifications
// into the watchdog registry, Prometheus counters, and the FMEA timing
// detector.
type deadlineObserver struct {
	registry  *watchdog.Registry
	system    *fmea.System
	missCount atomic.Uint32
}

func (o *deadlineObserver) OnDeadlineMiss(seq uint32, overrunNS int64) {
	metrics.RecordDeadlineMiss()
	o.registry.ReportFailure(watchdog.ComponentRTThread, "deadline miss")
	n := o.missCount.Add(1)
	if ft := o.system.DetectTimingFault(n); ft != nil {
		if err := o.system.HandleFault(*ft, 0); err != nil {
			log.Printf("[main] HandleFault: %v", err)
		}
	}
}

// hidWriteObserver wraps the HID sink so a write failure feeds the USB
// stall detector and the watchdog/metrics surfaces, without the RT loop
// itself knowing about FMEA.
type hidWriteObserver struct {
	registry            *watchdog.Registry
	system              *fmea.System
	sink                *hidio.Sink
	consecutiveFailures atomic.Uint32
	totalFailures       atomic.Uint64
}

func (o *hidWriteObserver) Write(f *frame.Frame) error {
	err := o.sink.Write(f)
	if err != nil {
		metrics.RecordHIDWriteFailure()
		o.totalFailures.Add(1)
		o.registry.ReportFailure(watchdog.ComponentHIDCommunication, err.Error())
		n := o.consecutiveFailures.Add(1)
		if ft := o.system.DetectUsbFault(n, nil); ft != nil {
			if hErr := o.system.HandleFault(*ft, f.TorqueOut); hErr != nil {
				log.Printf("[main] HandleFault: %v", hErr)
			}
		}
		return err
	}
	o.consecutiveFailures.Store(0)
	o.registry.Heartbeat(watchdog.ComponentHIDCommunication)
	return nil
}

// buildSnapshot runs on the HTTP handler and broadcast-loop goroutines, never
// on the RT thread, so it reads fmea state exclusively through System.View —
// the one System accessor safe to call off the RT thread — and reads the
// live pipeline via Loop.CurrentPipeline rather than a stale startup
// reference, so PipelineConfigHash reflects the most recent hot-swap.
func buildSnapshot(loop *scheduler.Loop, system *fmea.System, plugins *watchdog.PluginRegistry, hidObs *hidWriteObserver, startedAt time.Time) snapshot.ProcessSnapshot {
	view := system.View()
	var hash string
	if p := loop.CurrentPipeline(); p != nil {
		hash = strconv.FormatUint(p.ConfigHash(), 16)
	}
	snap := snapshot.ProcessSnapshot{
		TickSeq:               loop.TickCount(),
		DeadlineMissesTotal:   loop.MissCount(),
		HIDWriteFailuresTotal: hidObs.totalFailures.Load(),
		SoftStopActive:        view.SoftStopActive,
		SoftStopScale:         view.SoftStopScale,
		PipelineConfigHash:    hash,
		UptimeS:               time.Since(startedAt).Seconds(),
		PluginQuarantineCount: plugins.QuarantinedCount(),
	}
	if view.HasActiveFault {
		snap.ActiveFault = &snapshot.FaultView{
			Kind:         view.FaultKind.String(),
			Severity:     view.Severity,
			RequiresAttn: view.FaultKind.RequiresImmediateResponse(),
			Recoverable:  view.Recoverable,
		}
	}
	metrics.SetActiveFaultSeverity(view.Severity)
	metrics.SetPluginQuarantineCount(snap.PluginQuarantineCount)
	metrics.SetSoftStopScale(snap.SoftStopScale)
	metrics.SetPLLPhaseErrorNS(loop.PLLPhaseErrorNS())
	return snap
}

// runAllocAudit reads the RT loop's current pipeline handle with an
// allocation guard active and logs whether that read was allocation-free.
// It runs no ticks and does not exercise the soft-stop scaler or the
// config hash. This never runs on the hot path itself; it is a startup
// self-check gated behind --debug-alloc.
func runAllocAudit(loop *scheduler.Loop) {
	bench := alloc.NewBenchmark("startup pipeline read")
	_ = loop.CurrentPipeline()
	report := bench.Finish()
	if report.Allocations == 0 {
		log.Printf("[main] debug-alloc: %s clean (0 allocations)", report.Context)
	} else {
		log.Printf("[main] debug-alloc: %s allocated %d times", report.Context, report.Allocations)
	}
}
