// pkg/protocol/codec.go
package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// upper bounds for length prefixes, enforced on both encode and decode
const (
	MaxStringLength = 1 << 20
	MaxListLength   = 1 << 16
)

type frameWriter struct {
	buf bytes.Buffer
	err error
}

func (w *frameWriter) writeInt(v int32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	w.buf.Write(b[:])
}

func (w *frameWriter) writeBool(v bool) {
	if v {
		w.buf.WriteByte(1)
		return
	}
	w.buf.WriteByte(0)
}

func (w *frameWriter) writeString(s string) {
	if len(s) > MaxStringLength && w.err == nil {
		w.err = NewError(ErrCodeMalformedFrame, fmt.Sprintf("string too long: %d bytes", len(s)))
	}
	w.writeInt(int32(len(s)))
	w.buf.WriteString(s)
}

func (w *frameWriter) writeStrings(list []string) {
	if len(list) > MaxListLength && w.err == nil {
		w.err = NewError(ErrCodeMalformedFrame, fmt.Sprintf("list too long: %d entries", len(list)))
	}
	w.writeInt(int32(len(list)))
	for _, s := range list {
		w.writeString(s)
	}
}

// Encode returns the complete frame for msg: tag first, then the fields. A
// field over MaxStringLength or MaxListLength fails with ErrMalformedFrame,
// since the peer's decoder would reject it.
func Encode(msg Message) ([]byte, error) {
	if msg == nil {
		return nil, fmt.Errorf("encode: nil message")
	}
	w := &frameWriter{}
	w.writeInt(int32(msg.Type()))
	msg.encodeFields(w)
	if w.err != nil {
		return nil, fmt.Errorf("encode %s: %w", msg.Type(), w.err)
	}
	return w.buf.Bytes(), nil
}

// WriteMessage encodes msg and writes it with a single Write call.
func WriteMessage(w io.Writer, msg Message) error {
	data, err := Encode(msg)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", msg.Type(), err)
	}
	return nil
}

type frameReader struct {
	r io.Reader
}

// readFull maps a stream ending inside a frame to ErrTruncatedStream and
// leaves any other I/O error wrapped but intact.
func (fr *frameReader) readFull(p []byte) error {
	if _, err := io.ReadFull(fr.r, p); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return NewError(ErrCodeTruncatedStream, "stream closed mid-frame")
		}
		return fmt.Errorf("read frame: %w", err)
	}
	return nil
}

func (fr *frameReader) readInt() (int32, error) {
	var b [4]byte
	if err := fr.readFull(b[:]); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b[:])), nil
}

func (fr *frameReader) readBool() (bool, error) {
	var b [1]byte
	if err := fr.readFull(b[:]); err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

func (fr *frameReader) readString() (string, error) {
	n, err := fr.readInt()
	if err != nil {
		return "", err
	}
	if n < 0 || n > MaxStringLength {
		return "", NewError(ErrCodeMalformedFrame, fmt.Sprintf("invalid string length: %d", n))
	}
	if n == 0 {
		return "", nil
	}
	data := make([]byte, n)
	if err := fr.readFull(data); err != nil {
		return "", err
	}
	return string(data), nil
}

func (fr *frameReader) readStrings() ([]string, error) {
	n, err := fr.readInt()
	if err != nil {
		return nil, err
	}
	if n < 0 || n > MaxListLength {
		return nil, NewError(ErrCodeMalformedFrame, fmt.Sprintf("invalid list length: %d", n))
	}
	list := make([]string, 0, n)
	for i := int32(0); i < n; i++ {
		s, err := fr.readString()
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, nil
}

// ReadMessage reads exactly one frame from r. A stream that ends cleanly
// before the tag yields io.EOF; one that ends inside a frame yields
// ErrTruncatedStream.
func ReadMessage(r io.Reader) (Message, error) {
	fr := &frameReader{r: r}

	var tag [4]byte
	n, err := io.ReadFull(r, tag[:])
	switch {
	case err == io.EOF && n == 0:
		return nil, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		return nil, NewError(ErrCodeTruncatedStream, "stream closed inside message tag")
	case err != nil:
		return nil, fmt.Errorf("read message tag: %w", err)
	}

	msgType := MessageType(int32(binary.BigEndian.Uint32(tag[:])))
	return fr.readBody(msgType)
}

func (fr *frameReader) readBody(msgType MessageType) (Message, error) {
	switch msgType {
	case TypeConnect:
		username, err := fr.readString()
		if err != nil {
			return nil, err
		}
		return Connect{Username: username}, nil

	case TypeConnectResponse:
		success, err := fr.readBool()
		if err != nil {
			return nil, err
		}
		message, err := fr.readString()
		if err != nil {
			return nil, err
		}
		return ConnectResponse{Success: success, Message: message}, nil

	case TypeDisconnect:
		username, err := fr.readString()
		if err != nil {
			return nil, err
		}
		return Disconnect{Username: username}, nil

	case TypeQueryUsers:
		username, err := fr.readString()
		if err != nil {
			return nil, err
		}
		return QueryUsers{Username: username}, nil

	case TypeQueryUsersResponse:
		users, err := fr.readStrings()
		if err != nil {
			return nil, err
		}
		return QueryUsersResponse{Users: users}, nil

	case TypeBroadcast:
		fields, err := fr.readFields(2)
		if err != nil {
			return nil, err
		}
		return Broadcast{Sender: fields[0], Content: fields[1]}, nil

	case TypeDirect:
		fields, err := fr.readFields(3)
		if err != nil {
			return nil, err
		}
		return Direct{Sender: fields[0], Recipient: fields[1], Content: fields[2]}, nil

	case TypeFailed:
		reason, err := fr.readString()
		if err != nil {
			return nil, err
		}
		return Failed{Reason: reason}, nil

	case TypeInsult:
		fields, err := fr.readFields(2)
		if err != nil {
			return nil, err
		}
		return Insult{Sender: fields[0], Recipient: fields[1]}, nil
	}

	return nil, NewError(ErrCodeUnknownMessageType, fmt.Sprintf("unknown message type: %d", int32(msgType)))
}

func (fr *frameReader) readFields(n int) ([]string, error) {
	fields := make([]string, n)
	for i := range fields {
		s, err := fr.readString()
		if err != nil {
			return nil, err
		}
		fields[i] = s
	}
	return fields, nil
}

// Decode parses a buffer holding exactly one frame.
func Decode(data []byte) (Message, error) {
	r := bytes.NewReader(data)
	msg, err := ReadMessage(r)
	if err == io.EOF {
		return nil, NewError(ErrCodeTruncatedStream, "empty buffer")
	}
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, NewError(ErrCodeMalformedFrame, fmt.Sprintf("%d trailing bytes after %s", r.Len(), msg.Type()))
	}
	return msg, nil
}
