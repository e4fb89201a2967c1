// Package audio plays the bedside-monitor beep on each R wave.
package audio

import (
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"
)

const (
	sampleRate   = 44100
	channelCount = 2 // stereo
	bitDepth     = 2 // 16-bit
)

// Tone is one of the monitor's sounds.
type Tone int

const (
	// ToneBeat is the QRS beep.
	ToneBeat Tone = iota
	// ToneAlarm is the higher pitch used while ischemia is severe.
	ToneAlarm
)

func (t Tone) frequency() float64 {
	if t == ToneAlarm {
		return 1046.5 // C6
	}
	return 880 // A5
}

// beep is one sounding tone.
type beep struct {
	frequency float64
	phase     float64
	remaining int // samples left before release
	envelope  float64
	releasing bool
	active    bool
}

// Mixer renders queued beeps as 16-bit stereo PCM. It is the io.Reader the
// oto player pulls from.
type Mixer struct {
	mu           sync.Mutex
	beeps        []*beep
	maxBeeps     int
	beepSamples  int
	masterVolume float64
}

// NewMixer returns a mixer whose beeps last durationMs before releasing.
func NewMixer(durationMs float64) *Mixer {
	return &Mixer{
		maxBeeps:     8,
		beepSamples:  int(durationMs * sampleRate / 1000),
		masterVolume: 0.3,
	}
}

// Trigger starts a new tone, stealing the oldest one when all are busy.
func (m *Mixer) Trigger(t Tone) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var b *beep
	for _, v := range m.beeps {
		if !v.active {
			b = v
			break
		}
	}
	if b == nil {
		if len(m.beeps) < m.maxBeeps {
			b = &beep{}
			m.beeps = append(m.beeps, b)
		} else {
			b = m.beeps[0]
		}
	}

	*b = beep{
		frequency: t.frequency(),
		remaining: m.beepSamples,
		active:    true,
	}
}

// Active returns the number of tones still sounding.
func (m *Mixer) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.beeps {
		if b.active {
			n++
		}
	}
	return n
}

// SetVolume sets the master volume (0.0 - 1.0).
func (m *Mixer) SetVolume(vol float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.masterVolume = math.Max(0, math.Min(1, vol))
}

func (m *Mixer) Read(buf []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	numSamples := len(buf) / (channelCount * bitDepth)
	for i := 0; i < numSamples; i++ {
		var sample float64
		for _, b := range m.beeps {
			if !b.active {
				continue
			}
			sample += math.Sin(2*math.Pi*b.phase) * b.envelope * 0.5

			b.phase += b.frequency / sampleRate
			if b.phase >= 1.0 {
				b.phase -= 1.0
			}

			if !b.releasing {
				b.remaining--
				if b.remaining <= 0 {
					b.releasing = true
				}
			}
			if b.releasing {
				b.envelope *= 0.998
				if b.envelope < 0.001 {
					b.active = false
				}
			} else if b.envelope < 1.0 {
				b.envelope = math.Min(1.0, b.envelope+0.005)
			}
		}

		sample *= m.masterVolume
		if sample > 1.0 {
			sample = 1.0
		} else if sample < -1.0 {
			sample = -1.0
		}

		sampleInt := int16(sample * 32767)
		idx := i * channelCount * bitDepth
		buf[idx] = byte(sampleInt)
		buf[idx+1] = byte(sampleInt >> 8)
		buf[idx+2] = byte(sampleInt)
		buf[idx+3] = byte(sampleInt >> 8)
	}

	return numSamples * channelCount * bitDepth, nil
}

// Beeper drives a Mixer through the system audio device.
type Beeper struct {
	*Mixer
	otoCtx *oto.Context
	player *oto.Player
}

// NewBeeper opens the audio device and starts streaming silence.
func NewBeeper(durationMs float64) (*Beeper, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channelCount,
		Format:       oto.FormatSignedInt16LE,
	}

	otoCtx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-readyChan

	b := &Beeper{Mixer: NewMixer(durationMs), otoCtx: otoCtx}
	b.player = otoCtx.NewPlayer(b.Mixer)
	b.player.Play()
	return b, nil
}

// Close pauses playback. The oto context itself lives until process exit.
func (b *Beeper) Close() error {
	b.player.Pause()
	return nil
}
