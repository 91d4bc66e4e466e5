package speech

import "errors"

// Sentinel errors surfaced through the bridge callbacks. All of them are
// non-fatal: the feature degrades to "unavailable this time".
var (
	// ErrUnavailable means the runtime has no speech capability at all.
	ErrUnavailable = errors.New("speech capability not available")
	// ErrPermissionDenied means microphone access was refused.
	ErrPermissionDenied = errors.New("microphone permission denied")
	// ErrRecognition means transcription failed mid-listen.
	ErrRecognition = errors.New("speech recognition failed")
)

// Support reports which speech capabilities the bridge actually has.
type Support struct {
	Recognition bool `json:"recognition"`
	Synthesis   bool `json:"synthesis"`
}

// Bridge wraps an external speech-to-text/text-to-speech capability. All
// operations are asynchronous and report errors through callbacks rather
// than returned faults, since the capability may be entirely absent.
// StopListening and StopSpeaking are safe to call when idle.
type Bridge interface {
	// StartListening begins a single speech-to-text capture. Exactly one of
	// onResult/onError is invoked, unless the capture is cancelled first.
	StartListening(onResult func(text string), onError func(err error))

	// StopListening cancels an in-flight capture.
	StopListening()

	// Speak vocalizes text, cancelling any vocalization already in flight.
	// onEnd is invoked when playback finishes, fails or is cancelled.
	Speak(text string, onEnd func())

	// StopSpeaking cancels in-flight vocalization.
	StopSpeaking()

	// Support reports available capabilities.
	Support() Support

	// Close releases the bridge.
	Close() error
}

// Unavailable is the bridge used when no speech service is configured.
// Every call degrades silently, per the capability-absent error taxonomy.
type Unavailable struct{}

// NewUnavailable returns a bridge with no capabilities.
func NewUnavailable() *Unavailable {
	return &Unavailable{}
}

func (u *Unavailable) StartListening(onResult func(string), onError func(error)) {
	if onError != nil {
		onError(ErrUnavailable)
	}
}

func (u *Unavailable) StopListening() {}

func (u *Unavailable) Speak(text string, onEnd func()) {
	if onEnd != nil {
		onEnd()
	}
}

func (u *Unavailable) StopSpeaking() {}

func (u *Unavailable) Support() Support { return Support{} }

func (u *Unavailable) Close() error { return nil }
