package narrative

import "slices"

type Location struct {
	Area     string   `json:"area"`
	Place    string   `json:"place"`
	Position string   `json:"position"`
	Props    []string `json:"props"`
}

func (l *Location) Clone() *Location {
	if l == nil {
		return nil
	}
	out := *l
	out.Props = slices.Clone(l.Props)
	return &out
}
