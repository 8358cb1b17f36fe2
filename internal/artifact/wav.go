package artifact

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	wavHeaderSize    = 44
	wavBitsPerSample = 16
	wavChannels      = 1
)

// ErrNotWAV reports a payload without a RIFF/WAVE header.
var ErrNotWAV = errors.New("not a RIFF/WAVE payload")

// WAVInfo describes a decoded WAV header.
type WAVInfo struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
	DataOffset    int
	DataBytes     int
}

// Duration returns the clip length in seconds.
func (w WAVInfo) Duration() float64 {
	frameBytes := w.Channels * w.BitsPerSample / 8
	if w.SampleRate <= 0 || frameBytes <= 0 {
		return 0
	}
	return float64(w.DataBytes) / float64(frameBytes) / float64(w.SampleRate)
}

// IsWAV reports whether data starts with a RIFF/WAVE header.
func IsWAV(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

// EncodeWAV renders mono PCM16 samples as a canonical 44-byte-header WAV file.
func EncodeWAV(samples []int16, sampleRate int) []byte {
	dataBytes := len(samples) * 2
	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+dataBytes))
	byteRate := sampleRate * wavChannels * wavBitsPerSample / 8
	blockAlign := wavChannels * wavBitsPerSample / 8

	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, uint32(36+dataBytes))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(buf, binary.LittleEndian, uint16(wavChannels))
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(buf, binary.LittleEndian, uint32(byteRate))
	_ = binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(buf, binary.LittleEndian, uint16(wavBitsPerSample))
	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, uint32(dataBytes))
	_ = binary.Write(buf, binary.LittleEndian, samples)
	return buf.Bytes()
}

// InspectWAV parses the RIFF chunk list and returns the format and data size.
// Unknown chunks (LIST, fact) are skipped.
func InspectWAV(data []byte) (WAVInfo, error) {
	var info WAVInfo
	if !IsWAV(data) {
		return info, ErrNotWAV
	}
	var haveFormat, haveData bool
	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		switch id {
		case "fmt ":
			if size < 16 || body+16 > len(data) {
				return info, fmt.Errorf("wav: truncated fmt chunk")
			}
			audioFormat := binary.LittleEndian.Uint16(data[body : body+2])
			if audioFormat != 1 {
				return info, fmt.Errorf("wav: unsupported encoding %d (want PCM)", audioFormat)
			}
			info.Channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			info.SampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			info.BitsPerSample = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			haveFormat = true
		case "data":
			if body+size > len(data) {
				size = len(data) - body
			}
			info.DataOffset = body
			info.DataBytes = size
			haveData = true
		}
		if haveFormat && haveData {
			return info, nil
		}
		offset = body + size + size%2
	}
	if !haveFormat {
		return info, fmt.Errorf("wav: missing fmt chunk")
	}
	return info, fmt.Errorf("wav: missing data chunk")
}

// DecodeWAV returns the PCM16 samples of a mono or multi-channel WAV payload
// (interleaved) together with its header.
func DecodeWAV(data []byte) ([]int16, WAVInfo, error) {
	info, err := InspectWAV(data)
	if err != nil {
		return nil, info, err
	}
	if info.BitsPerSample != wavBitsPerSample {
		return nil, info, fmt.Errorf("wav: unsupported bit depth %d", info.BitsPerSample)
	}
	start := info.DataOffset
	end := start + info.DataBytes
	samples := make([]int16, (end-start)/2)
	if err := binary.Read(bytes.NewReader(data[start:end]), binary.LittleEndian, samples); err != nil {
		return nil, info, fmt.Errorf("wav: read samples: %w", err)
	}
	return samples, info, nil
}
