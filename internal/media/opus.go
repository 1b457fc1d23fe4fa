// Package media provides the audio collaborators for a call: a Source that
// turns local PCM into an Opus track and a Sink that turns the remote Opus
// track back into PCM. Actual device capture and playback stay outside this
// package; any io.Reader/io.Writer pair will do.
package media

import (
	"encoding/binary"

	"gopkg.in/hraban/opus.v2"
)

// Voice pipeline constants: 48 kHz mono, 20 ms frames.
const (
	SampleRate    = 48000
	Channels      = 1
	FrameSize     = 960 // samples per channel per 20 ms frame
	FrameDuration = 20_000_000 // nanoseconds

	voiceBitrate = 64000
)

// Encoder encodes PCM audio to Opus.
type Encoder struct {
	encoder    *opus.Encoder
	sampleRate int
	channels   int
	frameSize  int
}

// NewEncoder creates an Opus encoder tuned for voice.
func NewEncoder(sampleRate, channels, frameSize int) (*Encoder, error) {
	enc, err := opus.NewEncoder(sampleRate, channels, opus.AppVoIP)
	if err != nil {
		return nil, err
	}
	enc.SetBitrate(voiceBitrate)

	return &Encoder{
		encoder:    enc,
		sampleRate: sampleRate,
		channels:   channels,
		frameSize:  frameSize,
	}, nil
}

// Encode encodes PCM int16 samples to an Opus frame.
func (e *Encoder) Encode(pcm []int16) ([]byte, error) {
	data := make([]byte, 1024)
	n, err := e.encoder.Encode(pcm, data)
	if err != nil {
		return nil, err
	}
	return data[:n], nil
}

// EncodeBytes encodes PCM bytes (little-endian int16) to an Opus frame.
func (e *Encoder) EncodeBytes(pcmBytes []byte) ([]byte, error) {
	return e.Encode(BytesToPCM(pcmBytes))
}

// Decoder decodes Opus frames back to PCM.
type Decoder struct {
	decoder   *opus.Decoder
	channels  int
	frameSize int
}

func NewDecoder(sampleRate, channels, frameSize int) (*Decoder, error) {
	dec, err := opus.NewDecoder(sampleRate, channels)
	if err != nil {
		return nil, err
	}
	return &Decoder{decoder: dec, channels: channels, frameSize: frameSize}, nil
}

// Decode decodes one Opus frame into little-endian PCM bytes.
func (d *Decoder) Decode(data []byte) ([]byte, error) {
	pcm := make([]int16, d.frameSize*d.channels)
	n, err := d.decoder.Decode(data, pcm)
	if err != nil {
		return nil, err
	}
	return PCMToBytes(pcm[:n*d.channels]), nil
}

// BytesToPCM converts little-endian int16 bytes to samples.
func BytesToPCM(b []byte) []int16 {
	pcm := make([]int16, len(b)/2)
	for i := range pcm {
		pcm[i] = int16(binary.LittleEndian.Uint16(b[i*2:]))
	}
	return pcm
}

// PCMToBytes converts samples to little-endian int16 bytes.
func PCMToBytes(pcm []int16) []byte {
	b := make([]byte, len(pcm)*2)
	for i, s := range pcm {
		binary.LittleEndian.PutUint16(b[i*2:], uint16(s))
	}
	return b
}

// ResampleMono resamples mono PCM bytes between sample rates using linear
// interpolation. Good enough for voice.
func ResampleMono(input []byte, inputRate, outputRate int) []byte {
	if inputRate == outputRate {
		return input
	}

	inputSamples := len(input) / 2
	ratio := float64(outputRate) / float64(inputRate)
	outputSamples := int(float64(inputSamples) * ratio)

	output := make([]byte, outputSamples*2)
	for i := 0; i < outputSamples; i++ {
		srcPos := float64(i) / ratio
		srcIdx := int(srcPos)
		frac := srcPos - float64(srcIdx)

		idx1, idx2 := srcIdx, srcIdx+1
		if idx1 >= inputSamples {
			idx1 = inputSamples - 1
		}
		if idx2 >= inputSamples {
			idx2 = inputSamples - 1
		}

		s1 := int16(binary.LittleEndian.Uint16(input[idx1*2:]))
		s2 := int16(binary.LittleEndian.Uint16(input[idx2*2:]))
		sample := int16(float64(s1)*(1-frac) + float64(s2)*frac)

		binary.LittleEndian.PutUint16(output[i*2:], uint16(sample))
	}
	return output
}
