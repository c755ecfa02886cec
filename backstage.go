// Package backstage is the native audio engine behind AudioMoth Live: it
// owns the raw audio and STFT ring buffers, the capture resampler, the
// playback interpolator and heterodyne mixer, the autosave state machine,
// device enumeration and the frame-driven supervisor that reconciles
// requested vs. live capture/monitor/simulation state. A single Engine
// instance spans the process lifetime, matching the "global mutable
// state -> one engine struct" re-architecture spec.md §9 calls for.
package backstage

import (
	"math"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/audiomoth/backstage/internal/autosave"
	"github.com/audiomoth/backstage/internal/config"
	"github.com/audiomoth/backstage/internal/device"
	"github.com/audiomoth/backstage/internal/heterodyne"
	"github.com/audiomoth/backstage/internal/playback"
	"github.com/audiomoth/backstage/internal/resample"
	"github.com/audiomoth/backstage/internal/ring"
	"github.com/audiomoth/backstage/internal/simulation"
	"github.com/audiomoth/backstage/internal/stft"
	"github.com/audiomoth/backstage/internal/xtime"
)

const (
	eventQueueCapacity     = 64
	captureBufferSeconds   = 60
	maximumSampleRateHz    = 384000
	deviceChangeSettleSecs = 1.0
	timeMismatchToleranceMs = 2000
	transitionTimeout      = 2 * time.Second
	backgroundPumpInterval = 250 * time.Millisecond
)

// CaptureBufferSize is the fixed-size output buffer a clip capture is
// snapshotted into: 60 seconds at the highest supported sample rate.
const CaptureBufferSize = captureBufferSeconds * maximumSampleRateHz

// MonitorMode selects whether (and how) the live audio is routed to the
// monitoring playback device.
type MonitorMode = config.MonitorMode

const (
	MonitorOff          = config.MonitorOff
	MonitorPlaythrough  = config.MonitorPlaythrough
	MonitorHeterodyne   = config.MonitorHeterodyne
)

// Engine is the single process-lifetime instance of the native backstage.
// All exported methods are the host API surface of spec.md §6.
type Engine struct {
	log *log.Logger

	audioBuffer []int16
	stftBuffer  []float32
	stftEngine  *stft.Engine
	resampler   *resample.CaptureResampler

	// audioBufferMu guards the ring cursor bookkeeping shared between the
	// capture callback (sole writer) and every reader (playback,
	// snapshot, autosave event stamping).
	audioBufferMu sync.Mutex
	writeIndex    int32
	sampleCount   int64
	startTimeMs   int64

	autosaveStartTime        int64
	autosaveSampleCount      int64
	autosaveStartSampleCount int64

	// stopStartMu guards the handshake flags used by restart transitions.
	stopStartMu sync.Mutex
	started     bool
	stopped     bool

	deviceMu sync.Mutex
	deviceState device.State
	captureDevice device.AudioDevice
	timeDeviceStarted time.Time

	// playbackMu guards the lag-publishing fields shared between the
	// playback callback and the supervisor/simulation feedback path.
	playbackMu            sync.Mutex
	minimumPlaybackBufferLag int32
	playbackBufferCount      int32
	playbackReadIndex        int32
	interpolator             *playback.Interpolator
	playbackDevice           device.AudioDevice
	mixer                    *heterodyne.Mixer

	monitorMu   sync.Mutex
	monitorMode MonitorMode
	monitorFreq int32

	autosaveMu        sync.Mutex
	autosaveMinutes   int32
	autosaveShutdownCompleted bool
	autosaveErrorCB   func()
	hasEmittedStart   bool

	fileDestinationMu sync.Mutex
	fileDestination   string
	fileDestinationSet bool

	localTimeMu sync.Mutex
	localTime   bool

	pauseMu    sync.Mutex
	paused     bool
	pausedSnap CaptureSnapshot

	requestMu          sync.Mutex
	requestedRate      int32
	requestedHighRate  bool
	requestedSimOn     bool
	requestedSimIndex  int
	simAssetPath       string

	simMu      sync.Mutex
	simRunning bool
	simDriver  *simulation.Driver

	// backgroundMu guards the background loop's most recent device
	// enumeration observations, consumed by the Supervisor each frame.
	backgroundMu         sync.Mutex
	lastAudioMothFound   bool
	lastAudioMothInfo    device.Info
	lastOldAudioMothFound bool
	oldAudioMothLatched  bool

	queue        *autosave.EventQueue
	stateMachine *autosave.StateMachine

	backgroundStop chan struct{}
	backgroundDone chan struct{}

	redrawRequired bool
}

// New allocates an Engine with its ring buffers and DSP tables built, but
// does not start any capture, matching Initialise's two-phase contract
// (allocate, then the host wires its UI before the first GetFrame).
func New(cfg config.Config) *Engine {
	e := &Engine{
		log:         log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "backstage"}),
		audioBuffer: ring.NewAudioBuffer(),
		stftBuffer:  ring.NewSTFTBuffer(),
		stftEngine:  stft.New(),

		minimumPlaybackBufferLag: math.MaxInt32,
		interpolator:             playback.New(),

		monitorMode: cfg.Monitor,
		monitorFreq: cfg.MonitorFrequencyHz,

		autosaveMinutes: cfg.AutoSaveMinutes,
		localTime:       cfg.LocalTime,

		requestedRate:     cfg.RequestedSampleRate,
		requestedHighRate: cfg.HighDefaultSampleRate,
		simAssetPath:      cfg.SimulationAssetPath,
	}

	e.resampler = resample.New(e.audioBuffer, e.stftBuffer, e.stftEngine)

	e.deviceState.RequestedRate = cfg.RequestedSampleRate
	e.deviceState.MaxDefaultRate = 48000
	if cfg.HighDefaultSampleRate {
		e.deviceState.MaxDefaultRate = maximumSampleRateHz
	}

	e.queue = autosave.NewEventQueue(eventQueueCapacity)
	e.stateMachine = autosave.NewStateMachine(e, e.audioBuffer, e.queue)
	e.stateMachine.SetDurationMinutes(cfg.AutoSaveMinutes)

	if cfg.FileDestination != "" {
		e.fileDestination = cfg.FileDestination
		e.fileDestinationSet = true
	}

	return e
}

// FileDestination implements autosave.Environment.
func (e *Engine) FileDestination() (string, bool) {
	e.fileDestinationMu.Lock()
	defer e.fileDestinationMu.Unlock()
	return e.fileDestination, e.fileDestinationSet
}

// LocalTimeOffsetSeconds implements autosave.Environment.
func (e *Engine) LocalTimeOffsetSeconds() int32 {
	e.localTimeMu.Lock()
	local := e.localTime
	e.localTimeMu.Unlock()

	if !local {
		return 0
	}

	return xtime.GetLocalTimeOffset()
}

func (e *Engine) logComponent(component string) *log.Logger {
	return e.log.With("component", component)
}
