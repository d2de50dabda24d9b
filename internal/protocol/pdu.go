package protocol

import "encoding/json"

// Pdu is one protocol data unit exchanged on the client<->ingress wire:
// a TransactionId plus either a Request or a Response.
type Pdu struct {
	ID   TransactionId
	Body Body
}

// Body holds exactly one of Req or Resp.
type Body struct {
	Req  *Request
	Resp *Response
}

func (b Body) IsRequest() bool  { return b.Req != nil }
func (b Body) IsResponse() bool { return b.Resp != nil }

// RequestKind tags the Request union.
type RequestKind string

const (
	ReqSignIn  RequestKind = "SignIn"
	ReqSignOut RequestKind = "SignOut"
	ReqPing    RequestKind = "Ping"
	ReqSend    RequestKind = "Send"
	ReqPush    RequestKind = "Push"
)

// Request is the tagged union of client/ingress requests.
type Request struct {
	Kind RequestKind

	// SignIn fields.
	UserID UserId
	Token  Token

	// Send/Push fields.
	Message Message
}

func (r Request) ToPdu(id TransactionId) Pdu {
	return Pdu{ID: id, Body: Body{Req: &r}}
}

// ResponseKind tags the Response union.
type ResponseKind string

const (
	RespOk           ResponseKind = "Ok"
	RespSignedIn     ResponseKind = "SignedIn"
	RespInvalidToken ResponseKind = "InvalidToken"
	RespPong         ResponseKind = "Pong"
	RespQueued       ResponseKind = "Queued"
	RespRejected     ResponseKind = "Rejected"
	RespError        ResponseKind = "Error"
	// RespKicked is an extension over the original protocol (see
	// SPEC_FULL.md open-question #3): sent to a connection that is
	// about to be evicted by a second successful sign-in for the same
	// user, just before its teardown runs.
	RespKicked ResponseKind = "Kicked"
)

// Response is the tagged union of ingress responses.
type Response struct {
	Kind ResponseKind

	// SignedIn field. nil means no extension was stored.
	Extension json.RawMessage

	// InvalidToken field.
	UserID UserId

	// Queued/Rejected field.
	MessageID MessageId

	// Rejected/Error/Kicked field.
	Cause string
}

func (r Response) ToPdu(id TransactionId) Pdu {
	return Pdu{ID: id, Body: Body{Resp: &r}}
}
