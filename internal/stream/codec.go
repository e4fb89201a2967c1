package stream

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/icco/genecg/internal/ecg"
	"github.com/icco/genecg/internal/session"
)

// EncodeStrip packs samples as little-endian float32.
func EncodeStrip(samples []float64) []byte {
	out := make([]byte, 4*len(samples))
	for i, v := range samples {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(float32(v)))
	}
	return out
}

// DecodeStrip is the inverse of EncodeStrip.
func DecodeStrip(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("strip payload of %d bytes is not a float32 array", len(b))
	}
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out, nil
}

// Status is the JSON summary published alongside each strip.
type Status struct {
	Ts          int64   `json:"ts"`
	HR          float64 `json:"hr"`
	IschemiaPct float64 `json:"ischemia_pct"`
	EffT        float64 `json:"eff_t"`
	EffST       float64 `json:"eff_st"`
	Beats       int     `json:"beats"`
	Step        int     `json:"step"`
	Progress    float64 `json:"progress"`
	Playing     bool    `json:"playing"`
}

// NewStatus summarizes a tick. ts is in Unix milliseconds.
func NewStatus(t session.Tick, ts int64) Status {
	return Status{
		Ts:          ts,
		HR:          t.Params.HeartRate,
		IschemiaPct: t.IschemiaPct,
		EffT:        t.Morphology.EffT,
		EffST:       t.Morphology.EffST,
		Beats:       t.Beats,
		Step:        t.Conduction.Step,
		Progress:    t.Conduction.Progress,
		Playing:     t.Conduction.Active,
	}
}

// CommandBatch is the wire form of one atomic parameter update. A bare JSON
// array of commands is accepted too.
type CommandBatch struct {
	Commands []ecg.Command `json:"commands"`
}

// DecodeCommands parses a command batch payload.
func DecodeCommands(data []byte) ([]ecg.Command, error) {
	var batch CommandBatch
	if err := json.Unmarshal(data, &batch); err == nil {
		return batch.Commands, nil
	}
	var cmds []ecg.Command
	if err := json.Unmarshal(data, &cmds); err != nil {
		return nil, fmt.Errorf("decoding command batch: %w", err)
	}
	return cmds, nil
}
