package narrative

import "slices"

// Climate is the current weather at the scene.
type Climate struct {
	Temperature int    `json:"temperature"`
	Conditions  string `json:"conditions"`
	Wind        string `json:"wind,omitempty"`
	Daylight    string `json:"daylight,omitempty"`
}

type ForecastDay struct {
	Date       Time   `json:"date"`
	High       int    `json:"high"`
	Low        int    `json:"low"`
	Conditions string `json:"conditions"`
}

// Forecast is produced by the weather collaborator for one area.
type Forecast struct {
	Generated Time          `json:"generated"`
	Days      []ForecastDay `json:"days"`
}

func (c *Climate) Clone() *Climate {
	if c == nil {
		return nil
	}
	out := *c
	return &out
}

func (f Forecast) Clone() Forecast {
	f.Days = slices.Clone(f.Days)
	return f
}

// NarrativeEvent is a notable story beat recorded by the host. Milestones are
// derived from these outside of this module.
type NarrativeEvent struct {
	Source      TurnPosition `json:"source"`
	Description string       `json:"description"`
	Subjects    []string     `json:"subjects"`
	Witnesses   []string     `json:"witnesses"`
	Milestone   string       `json:"milestone,omitempty"`
}

// TurnPosition mirrors event.TurnRef without importing the event package.
type TurnPosition struct {
	TurnID    int `json:"turnId"`
	VariantID int `json:"variantId"`
}

func (n NarrativeEvent) Clone() NarrativeEvent {
	n.Subjects = slices.Clone(n.Subjects)
	n.Witnesses = slices.Clone(n.Witnesses)
	return n
}
