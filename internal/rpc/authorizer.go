package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jinshuio/jinshu/internal/protocol"
	"github.com/jinshuio/jinshu/internal/session"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// signIn is the shape stored at session.SignInKey(user_id), seeded by
// whatever out-of-band login flow issues tokens (out of scope of this
// repo — see spec.md Non-goals). Mirrors the anonymous SignIn struct
// in jinshu-authorizer/src/authorizer.rs.
type signIn struct {
	UserID    protocol.UserId `json:"user_id"`
	Token     protocol.Token  `json:"token"`
	Extension json.RawMessage `json:"extension"`
}

// SignInRequest is the authorizer's POST /sign_in request body.
type SignInRequest struct {
	UserID protocol.UserId `json:"user_id"`
	Token  protocol.Token  `json:"token"`
}

// SignInResponse mirrors SignInResult: whether the credential is
// valid, and the opaque extension payload threaded through unparsed.
type SignInResponse struct {
	Ok        bool            `json:"ok"`
	Extension json.RawMessage `json:"extension,omitempty"`
}

// Authorizer implements the credential check service (spec.md §4.2):
// does the (user_id, token) pair match what was cached at sign-in time.
type Authorizer struct {
	redis *redis.Client
}

func NewAuthorizer(client *redis.Client) *Authorizer {
	return &Authorizer{redis: client}
}

// SignIn compares req against the cached sign-in entry, logging the
// lookup the way authorizer.rs's #[tracing::instrument] does.
func (a *Authorizer) SignIn(ctx context.Context, req SignInRequest) (SignInResponse, error) {
	logrus.WithFields(logrus.Fields{"user_id": req.UserID, "token": req.Token}).Info("sign in")

	key := session.SignInKey(req.UserID)
	value, err := a.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return SignInResponse{Ok: false}, nil
	}
	if err != nil {
		return SignInResponse{}, StatusInternal(fmt.Errorf("authorizer: load sign-in cache: %w", err))
	}

	var cached signIn
	if err := json.Unmarshal([]byte(value), &cached); err != nil {
		return SignInResponse{}, StatusInternal(fmt.Errorf("authorizer: parse sign-in cache: %w", err))
	}

	ok := cached.UserID == req.UserID && cached.Token == req.Token
	return SignInResponse{Ok: ok, Extension: cached.Extension}, nil
}

// Handler returns the mux registering POST /sign_in against a.
func (a *Authorizer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/sign_in", Handle(a.SignIn))
	return mux
}

// AuthorizerClient is the comet-side caller of the authorizer service.
type AuthorizerClient struct {
	client *Client
}

func NewAuthorizerClient(baseURL string) *AuthorizerClient {
	return &AuthorizerClient{client: NewClient(baseURL)}
}

func (c *AuthorizerClient) SignIn(ctx context.Context, userID protocol.UserId, token protocol.Token) (SignInResponse, error) {
	var resp SignInResponse
	err := c.client.Call(ctx, "/sign_in", SignInRequest{UserID: userID, Token: token}, &resp)
	return resp, err
}
