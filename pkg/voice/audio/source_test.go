package audio

import (
	"bytes"
	"encoding/binary"
	"log/slog"
	"testing"
	"time"
)

func pcmBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}

func TestReadLoop_FramesAndConverts(t *testing.T) {
	// Two full chunks plus a partial tail that must be discarded.
	samples := make([]int16, ChunkSamples*2+100)
	for i := range samples {
		samples[i] = int16(i - 500)
	}

	s := NewExecSource(slog.Default(), nil)
	go s.readLoop(bytes.NewReader(pcmBytes(samples)))

	var got [][]int16
	for chunk := range s.chunks {
		got = append(got, chunk)
	}

	if len(got) != 2 {
		t.Fatalf("got %d chunks, want 2", len(got))
	}
	for ci, chunk := range got {
		if len(chunk) != ChunkSamples {
			t.Fatalf("chunk %d has %d samples", ci, len(chunk))
		}
		for i, v := range chunk {
			want := int16(ci*ChunkSamples + i - 500)
			if v != want {
				t.Fatalf("chunk %d sample %d = %d, want %d", ci, i, v, want)
			}
		}
	}
}

func TestReadLoop_DropsWhenConsumerLags(t *testing.T) {
	// More chunks than the channel can buffer, with nobody reading.
	nChunks := chunkBuffer + 10
	samples := make([]int16, ChunkSamples*nChunks)

	s := NewExecSource(slog.Default(), nil)
	done := make(chan struct{})
	go func() {
		s.readLoop(bytes.NewReader(pcmBytes(samples)))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("readLoop blocked instead of dropping")
	}

	if got := s.Dropped(); got != 10 {
		t.Errorf("dropped = %d, want 10", got)
	}
	if len(s.chunks) != chunkBuffer {
		t.Errorf("buffered = %d, want %d", len(s.chunks), chunkBuffer)
	}
}

func TestNewExecSource_DefaultCommand(t *testing.T) {
	s := NewExecSource(nil, nil)
	if s.command[0] != "arecord" {
		t.Errorf("default command = %v", s.command)
	}
}
