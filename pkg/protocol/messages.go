// pkg/protocol/messages.go
package protocol

import "fmt"

type MessageType int32

// tag values are part of the wire format and must never change
const (
	TypeConnect            MessageType = 19
	TypeConnectResponse    MessageType = 20
	TypeDisconnect         MessageType = 21
	TypeQueryUsers         MessageType = 22
	TypeQueryUsersResponse MessageType = 23
	TypeBroadcast          MessageType = 24
	TypeDirect             MessageType = 25
	TypeFailed             MessageType = 26
	TypeInsult             MessageType = 27
)

func (t MessageType) String() string {
	switch t {
	case TypeConnect:
		return "connect"
	case TypeConnectResponse:
		return "connect_response"
	case TypeDisconnect:
		return "disconnect"
	case TypeQueryUsers:
		return "query_users"
	case TypeQueryUsersResponse:
		return "query_users_response"
	case TypeBroadcast:
		return "broadcast"
	case TypeDirect:
		return "direct"
	case TypeFailed:
		return "failed"
	case TypeInsult:
		return "insult"
	}
	return fmt.Sprintf("unknown(%d)", int32(t))
}

// ServerName is the sender used for announcements made by the server itself.
const ServerName = "Server"

// Message is one frame on the wire. The set of implementations is closed:
// only the variants declared in this package satisfy it.
type Message interface {
	Type() MessageType
	encodeFields(w *frameWriter)
}

type Connect struct {
	Username string
}

type ConnectResponse struct {
	Success bool
	Message string
}

type Disconnect struct {
	Username string
}

type QueryUsers struct {
	Username string
}

type QueryUsersResponse struct {
	Users []string
}

type Broadcast struct {
	Sender  string
	Content string
}

type Direct struct {
	Sender    string
	Recipient string
	Content   string
}

type Failed struct {
	Reason string
}

type Insult struct {
	Sender    string
	Recipient string
}

func (Connect) Type() MessageType            { return TypeConnect }
func (ConnectResponse) Type() MessageType    { return TypeConnectResponse }
func (Disconnect) Type() MessageType         { return TypeDisconnect }
func (QueryUsers) Type() MessageType         { return TypeQueryUsers }
func (QueryUsersResponse) Type() MessageType { return TypeQueryUsersResponse }
func (Broadcast) Type() MessageType          { return TypeBroadcast }
func (Direct) Type() MessageType             { return TypeDirect }
func (Failed) Type() MessageType             { return TypeFailed }
func (Insult) Type() MessageType             { return TypeInsult }

func (m Connect) encodeFields(w *frameWriter) {
	w.writeString(m.Username)
}

func (m ConnectResponse) encodeFields(w *frameWriter) {
	w.writeBool(m.Success)
	w.writeString(m.Message)
}

func (m Disconnect) encodeFields(w *frameWriter) {
	w.writeString(m.Username)
}

func (m QueryUsers) encodeFields(w *frameWriter) {
	w.writeString(m.Username)
}

func (m QueryUsersResponse) encodeFields(w *frameWriter) {
	w.writeStrings(m.Users)
}

func (m Broadcast) encodeFields(w *frameWriter) {
	w.writeString(m.Sender)
	w.writeString(m.Content)
}

func (m Direct) encodeFields(w *frameWriter) {
	w.writeString(m.Sender)
	w.writeString(m.Recipient)
	w.writeString(m.Content)
}

func (m Failed) encodeFields(w *frameWriter) {
	w.writeString(m.Reason)
}

func (m Insult) encodeFields(w *frameWriter) {
	w.writeString(m.Sender)
	w.writeString(m.Recipient)
}

// create a successful or failed connect response
func NewConnectResponse(success bool, message string) ConnectResponse {
	return ConnectResponse{Success: success, Message: message}
}

// create a failure notice
func NewFailed(reason string) Failed {
	return Failed{Reason: reason}
}

// create an announcement sent on behalf of the server
func NewServerBroadcast(content string) Broadcast {
	return Broadcast{Sender: ServerName, Content: content}
}

// create a user list response; a nil slice is sent as an empty list
func NewQueryUsersResponse(users []string) QueryUsersResponse {
	if users == nil {
		users = []string{}
	}
	return QueryUsersResponse{Users: users}
}
