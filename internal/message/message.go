// Package message defines the cliprelay wire protocol.
//
// Every frame is one UTF-8 text datagram. The datagram boundary is the frame
// boundary, so there is no length prefix and no terminator.
//
//	data frame: <decimal-sequence>:<payload>
//	ack frame:  ACK:<decimal-sequence>
//
// The payload may itself contain ':' — decoding splits on the first one only.
package message

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// Separator splits the sequence from the payload in a data frame.
	Separator = ":"

	ackPrefix = "ACK" + Separator
)

var (
	// ErrMalformed is returned for a data frame without a separator or with a
	// sequence that is not a decimal uint64.
	ErrMalformed = errors.New("malformed frame")

	// ErrNotAck is returned when a datagram is not an acknowledgment frame.
	ErrNotAck = errors.New("not an ack frame")
)

// Message is one clipboard payload tagged with its sequence number.
type Message struct {
	Seq     uint64
	Payload string
}

// Encode returns the data frame for m.
func (m Message) Encode() []byte {
	b := make([]byte, 0, 20+len(Separator)+len(m.Payload))
	b = strconv.AppendUint(b, m.Seq, 10)
	b = append(b, Separator...)
	return append(b, m.Payload...)
}

// Decode parses a data frame.
func Decode(b []byte) (Message, error) {
	seqStr, payload, ok := strings.Cut(string(b), Separator)
	if !ok {
		return Message{}, fmt.Errorf("%w: missing separator", ErrMalformed)
	}
	seq, err := strconv.ParseUint(seqStr, 10, 64)
	if err != nil {
		return Message{}, fmt.Errorf("%w: sequence %q", ErrMalformed, seqStr)
	}
	return Message{Seq: seq, Payload: payload}, nil
}

// EncodeAck returns the acknowledgment frame for seq.
func EncodeAck(seq uint64) []byte {
	return strconv.AppendUint([]byte(ackPrefix), seq, 10)
}

// DecodeAck parses an acknowledgment frame and returns the echoed sequence.
// Trailing bytes after the digits make the frame invalid, so "ACK:12" never
// matches sequence 1.
func DecodeAck(b []byte) (uint64, error) {
	s, ok := strings.CutPrefix(string(b), ackPrefix)
	if !ok {
		return 0, ErrNotAck
	}
	seq, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: sequence %q", ErrNotAck, s)
	}
	return seq, nil
}
