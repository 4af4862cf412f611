// Pulserank - Content Personalization and Ranking Engine
// Copyright 2026 J. Thompson (jthompson-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jthompson-dev/pulserank

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// apiResponse is the envelope for all API responses.
type apiResponse struct {
	Status    string      `json:"status"`
	Data      interface{} `json:"data,omitempty"`
	Error     *apiError   `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// apiError carries a machine-readable code and a human-readable message.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// respondJSON writes a success envelope.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(&apiResponse{
		Status:    "success",
		Data:      data,
		Timestamp: time.Now(),
	})
}

// respondError writes an error envelope. The underlying error, when
// present, is included as detail; internal errors should pass nil to avoid
// leaking internals.
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(&apiResponse{
		Status: "error",
		Error: &apiError{
			Code:    code,
			Message: message,
			Detail:  detail,
		},
		Timestamp: time.Now(),
	})
}
