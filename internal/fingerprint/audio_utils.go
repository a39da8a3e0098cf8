package fingerprint

import (
	"encoding/binary"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"
)

// bytesToFloat32 interprets raw bytes as little-endian IEEE-754 f32 samples,
// matching ffmpeg's "-f f32le" stdout format.
func bytesToFloat32(raw []byte) ([]float32, error) {
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("raw PCM length %d is not a multiple of 4 bytes", len(raw))
	}
	out := make([]float32, len(raw)/4)
	for i := range out {
		bits := binary.LittleEndian.Uint32(raw[i*4 : i*4+4])
		out[i] = math.Float32frombits(bits)
	}
	return out, nil
}

var durationPattern = regexp.MustCompile(`Duration:\s*(\d+):(\d+):(\d+(?:\.\d+)?)`)

// parseFFmpegDuration extracts the "Duration: HH:MM:SS.xx" line ffmpeg
// prints at its default verbosity when probing a file.
func parseFFmpegDuration(output string) (time.Duration, error) {
	m := durationPattern.FindStringSubmatch(output)
	if m == nil {
		return 0, fmt.Errorf("no duration found in ffmpeg output")
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	sec, _ := strconv.ParseFloat(m[3], 64)
	total := float64(h)*3600 + float64(min)*60 + sec
	return time.Duration(total * float64(time.Second)), nil
}
