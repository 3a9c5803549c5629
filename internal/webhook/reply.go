package webhook

import "encoding/json"

// DefaultReply is shown when the workflow answered but none of the known
// fields carried text.
const DefaultReply = "Сообщение получено"

// replyEnvelope covers the object-shaped responses the workflow returns.
type replyEnvelope struct {
	Output   string `json:"output"`
	Response string `json:"response"`
	Message  string `json:"message"`
}

func (e replyEnvelope) text() (string, bool) {
	switch {
	case e.Output != "":
		return e.Output, true
	case e.Response != "":
		return e.Response, true
	case e.Message != "":
		return e.Message, true
	}
	return "", false
}

// DecodeReply extracts the display text from a workflow response body. The
// workflow returns one of four shapes; precedence is array-wrapped output,
// then output, then response, then message. ok is false when no known field
// carried text.
func DecodeReply(data []byte) (text string, ok bool) {
	var arr []replyEnvelope
	if err := json.Unmarshal(data, &arr); err == nil {
		if len(arr) > 0 && arr[0].Output != "" {
			return arr[0].Output, true
		}
		return "", false
	}

	var env replyEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", false
	}
	return env.text()
}
