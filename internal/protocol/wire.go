package protocol

import (
	"encoding/json"
	"fmt"
)

// wirePdu is the canonical tagged-union shape shared by every codec
// variant: a "type" discriminator for Body (Req/Resp), a "method" or
// "status" discriminator for the Request/Response payload, with every
// variant's fields flattened into one struct. This mirrors the
// #[serde(tag = "...")] shape of the Rust original so each codec only
// has to know how to (de)serialize one flat struct.
type wirePdu struct {
	Time uint32 `cbor:"time" json:"time" msgpack:"time"`
	Seq  uint32 `cbor:"seq" json:"seq" msgpack:"seq"`

	Type string `cbor:"type" json:"type" msgpack:"type"`

	Method string `cbor:"method,omitempty" json:"method,omitempty" msgpack:"method,omitempty"`
	Status string `cbor:"status,omitempty" json:"status,omitempty" msgpack:"status,omitempty"`

	UserID string `cbor:"user_id,omitempty" json:"user_id,omitempty" msgpack:"user_id,omitempty"`
	Token  string `cbor:"token,omitempty" json:"token,omitempty" msgpack:"token,omitempty"`

	Message *wireMessage `cbor:"message,omitempty" json:"message,omitempty" msgpack:"message,omitempty"`

	Extension json.RawMessage `cbor:"extension,omitempty" json:"extension,omitempty" msgpack:"extension,omitempty"`
	MessageID string          `cbor:"id,omitempty" json:"id,omitempty" msgpack:"id,omitempty"`
	Cause     string          `cbor:"cause,omitempty" json:"cause,omitempty" msgpack:"cause,omitempty"`
}

type wireMessage struct {
	ID        string      `cbor:"id" json:"id" msgpack:"id"`
	Timestamp uint64      `cbor:"timestamp" json:"timestamp" msgpack:"timestamp"`
	From      string      `cbor:"from" json:"from" msgpack:"from"`
	To        string      `cbor:"to" json:"to" msgpack:"to"`
	Content   cborContent `cbor:"content" json:"content" msgpack:"content"`
}

func toWireMessage(m Message) (*wireMessage, error) {
	wc, err := m.Content.toWire()
	if err != nil {
		return nil, err
	}
	return &wireMessage{
		ID:        Simple(m.ID),
		Timestamp: m.Timestamp,
		From:      Simple(m.From),
		To:        Simple(m.To),
		Content:   wc,
	}, nil
}

func (w *wireMessage) fromWire() (Message, error) {
	if w == nil {
		return Message{}, fmt.Errorf("%w: missing message", ErrInvalidContentFormat)
	}
	id, err := ParseID(w.ID)
	if err != nil {
		return Message{}, err
	}
	from, err := ParseID(w.From)
	if err != nil {
		return Message{}, err
	}
	to, err := ParseID(w.To)
	if err != nil {
		return Message{}, err
	}
	content, err := w.Content.fromWire()
	if err != nil {
		return Message{}, err
	}
	return Message{ID: id, Timestamp: w.Timestamp, From: from, To: to, Content: content}, nil
}

func toWirePdu(p Pdu) (wirePdu, error) {
	w := wirePdu{Time: p.ID.Time, Seq: p.ID.Seq}

	switch {
	case p.Body.IsRequest():
		w.Type = "Req"
		req := p.Body.Req
		w.Method = string(req.Kind)
		switch req.Kind {
		case ReqSignIn:
			w.UserID = Simple(req.UserID)
			w.Token = Simple(req.Token)
		case ReqSend, ReqPush:
			wm, err := toWireMessage(req.Message)
			if err != nil {
				return wirePdu{}, err
			}
			w.Message = wm
		case ReqSignOut, ReqPing:
			// no payload
		default:
			return wirePdu{}, fmt.Errorf("%w: unknown request method %q", ErrInvalidContentFormat, req.Kind)
		}

	case p.Body.IsResponse():
		w.Type = "Resp"
		resp := p.Body.Resp
		w.Status = string(resp.Kind)
		switch resp.Kind {
		case RespSignedIn:
			w.Extension = resp.Extension
		case RespInvalidToken:
			w.UserID = Simple(resp.UserID)
		case RespQueued:
			w.MessageID = Simple(resp.MessageID)
		case RespRejected:
			w.MessageID = Simple(resp.MessageID)
			w.Cause = resp.Cause
		case RespError, RespKicked:
			w.Cause = resp.Cause
		case RespOk, RespPong:
			// no payload
		default:
			return wirePdu{}, fmt.Errorf("%w: unknown response status %q", ErrInvalidContentFormat, resp.Kind)
		}

	default:
		return wirePdu{}, fmt.Errorf("%w: pdu has neither request nor response body", ErrInvalidContentFormat)
	}

	return w, nil
}

func (w wirePdu) fromWirePdu() (Pdu, error) {
	id := TransactionId{Time: w.Time, Seq: w.Seq}

	switch w.Type {
	case "Req":
		req := Request{Kind: RequestKind(w.Method)}
		switch req.Kind {
		case ReqSignIn:
			uid, err := ParseID(w.UserID)
			if err != nil {
				return Pdu{}, err
			}
			tok, err := ParseID(w.Token)
			if err != nil {
				return Pdu{}, err
			}
			req.UserID, req.Token = uid, tok
		case ReqSend, ReqPush:
			msg, err := w.Message.fromWire()
			if err != nil {
				return Pdu{}, err
			}
			req.Message = msg
		case ReqSignOut, ReqPing:
		default:
			return Pdu{}, fmt.Errorf("%w: unknown request method %q", ErrInvalidContentFormat, w.Method)
		}
		return req.ToPdu(id), nil

	case "Resp":
		resp := Response{Kind: ResponseKind(w.Status)}
		switch resp.Kind {
		case RespSignedIn:
			resp.Extension = w.Extension
		case RespInvalidToken:
			uid, err := ParseID(w.UserID)
			if err != nil {
				return Pdu{}, err
			}
			resp.UserID = uid
		case RespQueued:
			mid, err := ParseID(w.MessageID)
			if err != nil {
				return Pdu{}, err
			}
			resp.MessageID = mid
		case RespRejected:
			mid, err := ParseID(w.MessageID)
			if err != nil {
				return Pdu{}, err
			}
			resp.MessageID = mid
			resp.Cause = w.Cause
		case RespError, RespKicked:
			resp.Cause = w.Cause
		case RespOk, RespPong:
		default:
			return Pdu{}, fmt.Errorf("%w: unknown response status %q", ErrInvalidContentFormat, w.Status)
		}
		return resp.ToPdu(id), nil

	default:
		return Pdu{}, fmt.Errorf("%w: unknown body type %q", ErrInvalidContentFormat, w.Type)
	}
}
