package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoReq struct {
	N int `json:"n"`
}

type echoResp struct {
	N int `json:"n"`
}

func TestHandleSuccess(t *testing.T) {
	handler := Handle(func(ctx context.Context, req echoReq) (echoResp, error) {
		return echoResp{N: req.N * 2}, nil
	})

	body, _ := json.Marshal(echoReq{N: 21})
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got echoResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 42, got.N)
}

func TestHandleStatusError(t *testing.T) {
	handler := Handle(func(ctx context.Context, req echoReq) (echoResp, error) {
		return echoResp{}, StatusNotFound(errors.New("gone"))
	})

	body, _ := json.Marshal(echoReq{N: 1})
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleMalformedBody(t *testing.T) {
	handler := Handle(func(ctx context.Context, req echoReq) (echoResp, error) {
		return echoResp{}, nil
	})

	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewReader([]byte("not json")))
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
