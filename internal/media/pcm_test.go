package media

import "testing"

func TestPCMBytesRoundTrip(t *testing.T) {
	pcm := []int16{0, 1, -1, 32767, -32768, 12345, -12345}
	b := PCMToBytes(pcm)
	if len(b) != len(pcm)*2 {
		t.Fatalf("expected %d bytes, got %d", len(pcm)*2, len(b))
	}

	back := BytesToPCM(b)
	if len(back) != len(pcm) {
		t.Fatalf("expected %d samples, got %d", len(pcm), len(back))
	}
	for i := range pcm {
		if back[i] != pcm[i] {
			t.Errorf("sample %d mutated: %d != %d", i, back[i], pcm[i])
		}
	}
}

func TestResampleMonoIdentity(t *testing.T) {
	input := PCMToBytes([]int16{1, 2, 3, 4})
	out := ResampleMono(input, 48000, 48000)
	if &out[0] != &input[0] {
		t.Error("same-rate resample should return the input unchanged")
	}
}

func TestResampleMonoUpsampleLength(t *testing.T) {
	// 10 ms at 16 kHz becomes 10 ms at 48 kHz.
	input := make([]byte, 160*2)
	out := ResampleMono(input, 16000, 48000)
	if len(out) != 480*2 {
		t.Errorf("expected %d bytes, got %d", 480*2, len(out))
	}
}

func TestResampleMonoDownsampleLength(t *testing.T) {
	input := make([]byte, 480*2)
	out := ResampleMono(input, 48000, 16000)
	if len(out) != 160*2 {
		t.Errorf("expected %d bytes, got %d", 160*2, len(out))
	}
}

func TestResampleMonoInterpolates(t *testing.T) {
	// Doubling the rate of a two-sample ramp puts an interpolated value
	// between the originals.
	input := PCMToBytes([]int16{0, 100})
	out := BytesToPCM(ResampleMono(input, 24000, 48000))
	if len(out) != 4 {
		t.Fatalf("expected 4 samples, got %d", len(out))
	}
	if out[0] != 0 {
		t.Errorf("first sample should be preserved, got %d", out[0])
	}
	if out[1] != 50 {
		t.Errorf("expected the midpoint 50, got %d", out[1])
	}
}

func TestZeroReaderYieldsSilence(t *testing.T) {
	var r zeroReader
	buf := make([]byte, 64)
	buf[0] = 0xff
	n, err := r.Read(buf)
	if err != nil || n != len(buf) {
		t.Fatalf("unexpected read result: %d %v", n, err)
	}
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("byte %d not silenced: %x", i, b)
		}
	}
}
