package event

import "fmt"

// TurnRef addresses one variant of one turn in the host conversation.
type TurnRef struct {
	TurnID    int `json:"turnId"`
	VariantID int `json:"variantId"`
}

func Ref(turnID, variantID int) TurnRef {
	return TurnRef{TurnID: turnID, VariantID: variantID}
}

func (r TurnRef) String() string {
	return fmt.Sprintf("%d.%d", r.TurnID, r.VariantID)
}
