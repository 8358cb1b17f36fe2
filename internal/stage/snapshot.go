package stage

// Snapshot summarizes a stage for status reporting.
type Snapshot struct {
	Name       string     `json:"name"`
	Status     Status     `json:"status"`
	Inputs     int        `json:"inputs"`
	Outputs    int        `json:"outputs"`
	Stops      int        `json:"stops"`
	Exceptions int        `json:"exceptions"`
	Head       *Exception `json:"-"`
	Detail     string     `json:"detail,omitempty"`
}

// Ready reports whether the stage can make progress without caller action.
func (s Snapshot) Ready() bool {
	return s.Status != Error
}
