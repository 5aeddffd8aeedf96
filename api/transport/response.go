package transport

import "encoding/json"

// Envelope is the standard API response wrapper used for both success and
// error payloads: a human-readable message plus the payload (null on errors).
type Envelope struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// NewSuccess returns a success envelope.
func NewSuccess(message string, data interface{}) Envelope {
	return Envelope{
		Message: message,
		Data:    data,
	}
}

// NewError returns an error envelope; error responses carry no data.
func NewError(message string) Envelope {
	return Envelope{
		Message: message,
		Data:    nil,
	}
}

// String returns the JSON representation (best-effort) for logging purposes.
func (e Envelope) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(out)
}
