// Package rpc implements the HTTP+JSON transport shared by every
// jinshu service-to-service call: the receiver's enqueue endpoint, the
// pusher's push-to-comet endpoint, and the authorizer's credential
// check endpoint.
//
// The original source builds these as tonic/gRPC services. This
// environment has no protoc/protoc-gen-go toolchain available to
// regenerate .proto-derived stubs, and fabricating hand-written gRPC
// wire stubs behind a replace directive would violate the "never
// fabricate dependencies" rule, so every RPC here is a plain HTTP
// endpoint exchanging JSON bodies — the request/response shapes and
// status-code mapping mirror the original's tonic::Status contract
// (see status.rs) exactly, just carried over net/http instead of
// over a generated gRPC client.
package rpc

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Code mirrors the subset of grpc/tonic status codes jinshu actually
// uses (status.rs only ever constructs Internal and InvalidArgument;
// NotFound is added here for the session/credential lookups that the
// distilled spec introduces).
type Code int

const (
	CodeOK Code = iota
	CodeInvalidArgument
	CodeNotFound
	CodeInternal
)

func (c Code) httpStatus() int {
	switch c {
	case CodeOK:
		return http.StatusOK
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Status is an RPC-layer error carrying a Code, the Go analogue of
// tonic::Status.
type Status struct {
	Code    Code
	Message string
}

func (s *Status) Error() string {
	return s.Message
}

// StatusInternal builds a Status with Code = CodeInternal from any
// printable error, mirroring status::internal.
func StatusInternal(err error) *Status {
	return &Status{Code: CodeInternal, Message: err.Error()}
}

// StatusInvalidArgument builds a Status with Code = CodeInvalidArgument,
// mirroring status::invalid_argument.
func StatusInvalidArgument(err error) *Status {
	return &Status{Code: CodeInvalidArgument, Message: err.Error()}
}

// StatusNotFound builds a Status with Code = CodeNotFound.
func StatusNotFound(err error) *Status {
	return &Status{Code: CodeNotFound, Message: err.Error()}
}

// AsStatus unwraps err into a *Status, defaulting to Internal when err
// is not already one.
func AsStatus(err error) *Status {
	if err == nil {
		return nil
	}
	if s, ok := err.(*Status); ok {
		return s
	}
	return StatusInternal(err)
}

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// WriteError renders err as the JSON error body every jinshu RPC
// client expects, with the matching HTTP status code.
func WriteError(w http.ResponseWriter, err error) {
	status := AsStatus(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status.httpStatus())
	_ = json.NewEncoder(w).Encode(errorBody{Code: int(status.Code), Message: status.Message})
}

// ReadError reconstructs a *Status from an HTTP response whose status
// code is not 2xx.
func ReadError(resp *http.Response) error {
	var body errorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("rpc: response status %d: failed to decode error body: %w", resp.StatusCode, err)
	}
	return &Status{Code: Code(body.Code), Message: body.Message}
}
