package handlers

import (
	"encoding/json"
	"net/http"
)

type Payload struct {
	Key   string
	Value any
}

func toPayload(key string, value any) Payload {
	return Payload{Key: key, Value: value}
}

// respond writes the response envelope. Every core operation answers
// with {success, message, ...extras}.
func respond(w http.ResponseWriter, code int, success bool, message string, extras ...Payload) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	body := map[string]any{
		"success": success,
		"message": message,
	}
	for _, p := range extras {
		body[p.Key] = p.Value
	}
	json.NewEncoder(w).Encode(body)
}

func respondSuccess(w http.ResponseWriter, code int, message string, extras ...Payload) {
	respond(w, code, true, message, extras...)
}

func respondError(w http.ResponseWriter, code int, message, errMsg string, extras ...Payload) {
	extras = append(extras, toPayload("error", errMsg))
	respond(w, code, false, message, extras...)
}
