package audio

import "testing"

func TestResample(t *testing.T) {
	tests := []struct {
		name    string
		in      []float32
		from    int
		to      int
		wantLen int
	}{
		{name: "same rate", in: []float32{0.1, 0.2, 0.3}, from: 24000, to: 24000, wantLen: 3},
		{name: "upsample 2x", in: []float32{0, 1, 0, -1}, from: 24000, to: 48000, wantLen: 8},
		{name: "downsample 2x", in: []float32{0, 1, 0, -1}, from: 48000, to: 24000, wantLen: 2},
		{name: "24k to 44.1k", in: make([]float32, 240), from: 24000, to: 44100, wantLen: 441},
		{name: "empty", in: nil, from: 24000, to: 48000, wantLen: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resample(tt.in, tt.from, tt.to)
			if len(got) != tt.wantLen {
				t.Fatalf("expected %d samples, got %d", tt.wantLen, len(got))
			}
		})
	}
}

func TestResample_Interpolates(t *testing.T) {
	got := Resample([]float32{0, 1}, 1, 2)
	want := []float32{0, 0.5, 1, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestResample_DoesNotAliasInput(t *testing.T) {
	in := []float32{0.5}
	out := Resample(in, 24000, 24000)
	out[0] = 0
	if in[0] != 0.5 {
		t.Fatal("resample must copy its input")
	}
}
