package notify

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Action tags a callback payload with the handler it belongs to. The tags
// are two characters because Telegram caps callback data at 64 bytes and a
// payload also carries a 36-character debt id.
type Action string

const (
	// ActionRegister answers the registration consent question.
	ActionRegister Action = "rg"
	// ActionAcceptDebt is the debtor's answer to a debt proposal.
	ActionAcceptDebt Action = "ad"
	// ActionPickDebt selects one entry from the debtor's open-debts list.
	ActionPickDebt Action = "pd"
	// ActionPickClaim selects one entry from the creditor's open-claims list.
	ActionPickClaim Action = "pc"
	// ActionAssertPaid is the debtor's answer to "already paid?".
	ActionAssertPaid Action = "ap"
	// ActionConfirmPaid is the creditor's answer to the debtor's paid claim.
	ActionConfirmPaid Action = "cp"
	// ActionCloseClaim is the creditor's answer when closing an own claim.
	ActionCloseClaim Action = "cc"
)

const maxCallbackData = 64

// Payload is the single callback data schema used on every inline button.
// It is self-describing: the action tag routes the press to its handler
// without any registration-order or shape sniffing.
type Payload struct {
	Action Action `json:"a"`
	DebtID string `json:"id,omitempty"`
	Value  bool   `json:"v,omitempty"`
}

// Encode marshals the payload into callback data.
func (p Payload) Encode() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode payload")
	}
	if len(data) > maxCallbackData {
		return "", errors.Errorf("payload exceeds %d bytes: %s", maxCallbackData, data)
	}
	return string(data), nil
}

// DecodePayload parses callback data back into a payload.
func DecodePayload(data string) (Payload, error) {
	var p Payload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return Payload{}, errors.Wrapf(err, "failed to decode payload %q", data)
	}
	if p.Action == "" {
		return Payload{}, errors.Errorf("payload without action: %q", data)
	}
	return p, nil
}
