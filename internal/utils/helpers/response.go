package helpers

import (
	"encoding/json"
	"net/http"
	"time"
)

type Response struct {
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	RetryAfter *time.Time  `json:"retry_after,omitempty"`
}

func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(Response{Data: data})
	if err != nil {
		return
	}
}

func Error(w http.ResponseWriter, status int, errMsg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(Response{Error: errMsg})
	if err != nil {
		return
	}
}

// RateLimited answers 429 with the estimated time the window frees up, both
// in the body and the Retry-After header.
func RateLimited(w http.ResponseWriter, retryAfter time.Time) {
	w.Header().Set("Content-Type", "application/json")
	if !retryAfter.IsZero() {
		w.Header().Set("Retry-After", retryAfter.UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(http.StatusTooManyRequests)
	resp := Response{Error: "too many attempts, try again later"}
	if !retryAfter.IsZero() {
		resp.RetryAfter = &retryAfter
	}
	err := json.NewEncoder(w).Encode(resp)
	if err != nil {
		return
	}
}
