package artifact

import (
	"encoding/json"
	"fmt"

	"streamer/internal/media"
)

// EncodeFace renders a face expression as indented JSON.
func EncodeFace(face *media.FaceExpression) ([]byte, error) {
	if face == nil {
		return nil, fmt.Errorf("face: nil expression")
	}
	data, err := json.MarshalIndent(face, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("face: encode: %w", err)
	}
	return data, nil
}

// DecodeFace parses a face expression and checks that every frame has the
// expected number of blend shapes and emotions.
func DecodeFace(data []byte) (*media.FaceExpression, error) {
	var face media.FaceExpression
	if err := json.Unmarshal(data, &face); err != nil {
		return nil, fmt.Errorf("face: decode: %w", err)
	}
	for i, frame := range face.BlendShapes {
		if len(frame) != len(media.BlendShapeNames) {
			return nil, fmt.Errorf("face: frame %d has %d blend shapes, want %d", i, len(frame), len(media.BlendShapeNames))
		}
	}
	for i, frame := range face.Emotion {
		if len(frame) != len(media.Emotions) {
			return nil, fmt.Errorf("face: frame %d has %d emotions, want %d", i, len(frame), len(media.Emotions))
		}
	}
	if face.FrameCount == 0 {
		face.FrameCount = len(face.BlendShapes)
	}
	return &face, nil
}
