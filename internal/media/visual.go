package media

// FaceExpression holds per-frame blend shape weights and emotion vectors
// derived from one audio clip.
type FaceExpression struct {
	AudioName   string      `json:"audio_name"`
	BlendShapes [][]float64 `json:"blend_shapes"`
	Emotion     [][]float64 `json:"emotion"`
	Timestamp   float64     `json:"timestamp"`
	Duration    float64     `json:"duration"`
	FrameCount  int         `json:"frame_count"`
}

// MotionData holds per-frame pose vectors derived from one audio clip. The
// motion stage also feeds the most recent MotionData back into the next
// generation as its seed.
type MotionData struct {
	AudioName  string      `json:"audio_name"`
	Poses      [][]float64 `json:"poses"`
	Timestamp  float64     `json:"timestamp"`
	Duration   float64     `json:"duration"`
	FrameCount int         `json:"frame_count"`
}

// LastPose returns the final pose frame, or nil when the motion is empty.
func (m *MotionData) LastPose() []float64 {
	if m == nil || len(m.Poses) == 0 {
		return nil
	}
	return m.Poses[len(m.Poses)-1]
}

// StopRequest asks a stage to halt processing for a conversation.
type StopRequest struct {
	ConversationID string `json:"conversation_id"`
	Reason         string `json:"reason"`
}
