package narrative

type Tension struct {
	Level     string `json:"level"`
	Direction string `json:"direction"`
	Type      string `json:"type"`
}

type Scene struct {
	Topic   string  `json:"topic"`
	Tone    string  `json:"tone"`
	Tension Tension `json:"tension"`
}

func (s *Scene) Clone() *Scene {
	if s == nil {
		return nil
	}
	out := *s
	return &out
}
