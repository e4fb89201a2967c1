// Package export writes synthesized rhythms to files: a MIDI click track of
// wave onsets and a PNG strip chart.
package export

import (
	"fmt"
	"math"

	"github.com/icco/genecg/internal/ecg"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const (
	ticksPerQuarterNote = 960 // one quarter note per heartbeat
	clickChannel        = 9   // General MIDI percussion
)

// Wave is one of the clicked waveform components.
type Wave struct {
	Name     string
	Note     uint8
	Velocity uint8
	window   func(ecg.Layout) ecg.Window
}

// Waves are written as one track each, in this order after the tempo track.
var Waves = []Wave{
	{Name: "P", Note: 42, Velocity: 64, window: func(l ecg.Layout) ecg.Window { return l.P }},
	{Name: "QRS", Note: 36, Velocity: 110, window: func(l ecg.Layout) ecg.Window { return ecg.Window{Start: l.Q.Start, End: l.S.End} }},
	{Name: "T", Note: 38, Velocity: 80, window: func(l ecg.Layout) ecg.Window { return l.T }},
}

// ClickTrack builds a type-1 SMF with a tempo equal to the heart rate and a
// note held across each wave's window for every beat.
func ClickTrack(p ecg.Parameters, beats int) (*smf.SMF, error) {
	if beats <= 0 {
		return nil, fmt.Errorf("beat count must be positive, got %d", beats)
	}
	p = p.Sanitized()
	layout := ecg.NewLayout(p)
	rr := p.RR()

	// Beat n's clock starts at the earliest window so every tick is >= 0.
	origin := layout.P.Start
	for _, w := range Waves {
		origin = math.Min(origin, w.window(layout).Start)
	}
	toTick := func(n int, t float64) uint32 {
		return uint32(math.Round((float64(n)*rr + t - origin) / rr * ticksPerQuarterNote)) //nolint:gosec // t >= origin
	}

	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(ticksPerQuarterNote)

	var track0 smf.Track
	track0.Add(0, smf.MetaMeter(4, 4))
	track0.Add(0, smf.MetaTempo(p.HeartRate))
	track0.Close(0)
	if err := sm.Add(track0); err != nil {
		return nil, fmt.Errorf("error adding tempo track: %w", err)
	}

	endTick := toTick(beats, origin)
	for _, w := range Waves {
		var track smf.Track
		var lastTick uint32
		win := w.window(layout)
		for n := 0; n < beats; n++ {
			on := max(toTick(n, win.Start), lastTick)
			off := toTick(n, win.End)
			// A window wider than one beat is cut short before the next onset.
			if next := toTick(n+1, win.Start); off >= next {
				off = next - 1
			}
			if off <= on {
				off = on + 1
			}
			track.Add(on-lastTick, midi.NoteOn(clickChannel, w.Note, w.Velocity))
			track.Add(off-on, midi.NoteOff(clickChannel, w.Note))
			lastTick = off
		}
		if lastTick < endTick {
			track.Close(endTick - lastTick)
		} else {
			track.Close(0)
		}
		if err := sm.Add(track); err != nil {
			return nil, fmt.Errorf("error adding %s track: %w", w.Name, err)
		}
	}
	return sm, nil
}

// SaveMIDI writes ClickTrack to path.
func SaveMIDI(path string, p ecg.Parameters, beats int) error {
	sm, err := ClickTrack(p, beats)
	if err != nil {
		return err
	}
	if err := sm.WriteFile(path); err != nil {
		return fmt.Errorf("error writing MIDI file: %w", err)
	}
	return nil
}

// ReadHeartRate returns the first tempo of a MIDI file as beats per minute.
func ReadHeartRate(path string) (float64, error) {
	rd, err := smf.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("error reading MIDI file: %w", err)
	}
	tempoChanges := rd.TempoChanges()
	if len(tempoChanges) == 0 {
		return 0, fmt.Errorf("%s has no tempo", path)
	}
	return tempoChanges[0].BPM, nil
}

// CountOnsets returns the number of note-on events per wave track in a file
// written by SaveMIDI.
func CountOnsets(path string) (map[string]int, error) {
	rd, err := smf.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading MIDI file: %w", err)
	}
	counts := make(map[string]int, len(Waves))
	// Track 0 holds the tempo; wave tracks follow in Waves order.
	for i, w := range Waves {
		if i+1 >= len(rd.Tracks) {
			break
		}
		for _, ev := range rd.Tracks[i+1] {
			var channel, key, velocity uint8
			if ev.Message.GetNoteOn(&channel, &key, &velocity) && velocity > 0 {
				counts[w.Name]++
			}
		}
	}
	return counts, nil
}
