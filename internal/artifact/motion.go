package artifact

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	"streamer/internal/media"
)

// EncodeMotionCSV writes one pose per row. The header names each column
// j<joint>_<axis>.
func EncodeMotionCSV(motion *media.MotionData) ([]byte, error) {
	if motion == nil {
		return nil, fmt.Errorf("motion: nil data")
	}
	width := media.PoseWidth
	if len(motion.Poses) > 0 {
		width = len(motion.Poses[0])
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(poseHeader(width)); err != nil {
		return nil, fmt.Errorf("motion: write header: %w", err)
	}
	row := make([]string, width)
	for i, pose := range motion.Poses {
		if len(pose) != width {
			return nil, fmt.Errorf("motion: frame %d has %d values, want %d", i, len(pose), width)
		}
		for j, v := range pose {
			row[j] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("motion: write frame %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("motion: flush: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeMotionCSV parses rows written by EncodeMotionCSV. Metadata that CSV
// does not carry (name, timestamp, duration) is left for the caller.
func DecodeMotionCSV(data []byte) (*media.MotionData, error) {
	r := csv.NewReader(bytes.NewReader(data))
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("motion: decode csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("motion: empty csv")
	}
	motion := &media.MotionData{Poses: make([][]float64, 0, len(records)-1)}
	for i, record := range records[1:] {
		pose := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("motion: frame %d column %d: %w", i, j, err)
			}
			pose[j] = v
		}
		motion.Poses = append(motion.Poses, pose)
	}
	motion.FrameCount = len(motion.Poses)
	return motion, nil
}

// EncodeMotionJSON renders motion data with its metadata.
func EncodeMotionJSON(motion *media.MotionData) ([]byte, error) {
	if motion == nil {
		return nil, fmt.Errorf("motion: nil data")
	}
	data, err := json.Marshal(motion)
	if err != nil {
		return nil, fmt.Errorf("motion: encode json: %w", err)
	}
	return data, nil
}

// DecodeMotionJSON parses motion data written by EncodeMotionJSON.
func DecodeMotionJSON(data []byte) (*media.MotionData, error) {
	var motion media.MotionData
	if err := json.Unmarshal(data, &motion); err != nil {
		return nil, fmt.Errorf("motion: decode json: %w", err)
	}
	if motion.FrameCount == 0 {
		motion.FrameCount = len(motion.Poses)
	}
	return &motion, nil
}

var axes = [...]string{"x", "y", "z"}

func poseHeader(width int) []string {
	header := make([]string, width)
	for i := range header {
		header[i] = "j" + strconv.Itoa(i/3) + "_" + axes[i%3]
	}
	return header
}
