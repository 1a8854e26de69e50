package repository

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// RPCResult is the normalized outcome of a stored procedure call. Callers
// never inspect the raw driver response.
type RPCResult struct {
	Success    bool
	Diagnostic string
	Data       json.RawMessage
}

// PayloadError is implemented by errors that carry the procedure's response
// body. Some clients report a perfectly good result through their error
// channel; the payload decides.
type PayloadError interface {
	error
	Payload() []byte
}

type rpcPayload struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ClassifyRPC decides success or failure from whatever a procedure call
// returned. It is a success when the error carries success=true, or when the
// data (an object or the first element of a list) does. Anything else is a
// failure with the most specific diagnostic available.
func ClassifyRPC(data []byte, callErr error) RPCResult {
	if callErr != nil {
		if p, ok := payloadFromError(callErr); ok && p.Success {
			return RPCResult{Success: true, Data: data}
		}
	}

	p, ok := decodePayload(data)
	if ok && p.Success {
		return RPCResult{Success: true, Data: data}
	}

	res := RPCResult{Data: data}
	switch {
	case ok && p.Error != "":
		res.Diagnostic = p.Error
	case ok && p.Message != "":
		res.Diagnostic = p.Message
	case callErr != nil:
		res.Diagnostic = callErr.Error()
	default:
		res.Diagnostic = "no error details"
	}
	return res
}

func payloadFromError(err error) (rpcPayload, bool) {
	var pe PayloadError
	if errors.As(err, &pe) {
		if p, ok := decodePayload(pe.Payload()); ok {
			return p, true
		}
	}

	// The message itself may be the JSON body.
	msg := err.Error()
	if i := strings.IndexAny(msg, "{["); i >= 0 {
		return decodePayload([]byte(msg[i:]))
	}
	return rpcPayload{}, false
}

func decodePayload(data []byte) (rpcPayload, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return rpcPayload{}, false
	}

	var p rpcPayload
	switch data[0] {
	case '{':
		if err := json.Unmarshal(data, &p); err != nil {
			return rpcPayload{}, false
		}
		return p, true
	case '[':
		var list []rpcPayload
		if err := json.Unmarshal(data, &list); err != nil || len(list) == 0 {
			return rpcPayload{}, false
		}
		return list[0], true
	}
	return rpcPayload{}, false
}
