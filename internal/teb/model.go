package teb

import (
	"fmt"
	"strings"
	"time"
)

const (
	ModulationNRZ  Modulation = "NRZ"  // Non-return-to-zero
	ModulationNRZT Modulation = "NRZT" // Trapezoidal non-return-to-zero
	ModulationRZ   Modulation = "RZ"   // Return-to-zero
)

var validModulations = map[Modulation]struct{}{
	ModulationNRZ:  {},
	ModulationNRZT: {},
	ModulationRZ:   {},
}

// Modulation is a line-coding format understood by the simulator (-form flag).
type Modulation string

// Modulations returns all supported modulations in their canonical order.
func Modulations() []Modulation {
	return []Modulation{ModulationNRZ, ModulationNRZT, ModulationRZ}
}

// ParseModulation converts a case-insensitive modulation name.
func ParseModulation(s string) (Modulation, error) {
	m := Modulation(strings.ToUpper(strings.TrimSpace(s)))
	if err := m.Validate(); err != nil {
		return "", err
	}
	return m, nil
}

func (m Modulation) Validate() error {
	if _, ok := validModulations[m]; !ok {
		return fmt.Errorf("teb.Modulation: unknown modulation '%s'", string(m))
	}
	return nil
}

func (m Modulation) String() string {
	return string(m)
}

// Invocation describes a single simulator run.
type Invocation struct {
	Modulation    Modulation `json:"modulation"`    // -form
	SNR           float64    `json:"snr"`           // -snrpb, signal-to-noise ratio per bit in dB
	Codeur        bool       `json:"codeur"`        // -codeur, channel encoder enabled
	MessageLength int        `json:"messageLength"` // -mess
	SamplesPerBit int        `json:"samplesPerBit"` // -nbEch
	Repetition    int        `json:"repetition"`    // zero-based repetition index for this SNR
}

// Outcome is the terminal state of an Invocation: either a TEB value or the failure reason.
type Outcome struct {
	Invocation Invocation
	TEB        float64       // Valid only when Err is nil
	Err        error         // Failure reason, nil on success
	Duration   time.Duration // Wall-clock time of the simulator process
}

// Succeeded reports whether the invocation produced a value.
func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// Row is one line of a sweep result: TEB measured without and with the channel encoder at the same SNR.
type Row struct {
	Modulation    Modulation `json:"modulation"`
	SNR           float64    `json:"snr"`
	TEBWithout    float64    `json:"tebWithout"`
	TEBWithCodeur float64    `json:"tebWith"`
}
