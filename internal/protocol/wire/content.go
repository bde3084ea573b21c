package wire

import (
	"fmt"

	"whisper/internal/codec"
	"whisper/internal/domain/types"
)

// SenderKeyDistribution is the Content part that installs a group chain.
type SenderKeyDistribution struct {
	GroupID string
	Message []byte
}

// Content is the plaintext container of a pairwise message: a text body,
// a sender key distribution, or both.
type Content struct {
	Conversation          string
	SenderKeyDistribution *SenderKeyDistribution
}

// MarshalContent encodes c as {1 conversation, 2 {1 groupId, 2 message}}.
func MarshalContent(c Content) []byte {
	var b []byte
	if c.Conversation != "" {
		b = appendBytes(b, 1, []byte(c.Conversation))
	}
	if d := c.SenderKeyDistribution; d != nil {
		var inner []byte
		inner = appendBytes(inner, 1, []byte(d.GroupID))
		inner = appendBytes(inner, 2, d.Message)
		b = appendBytes(b, 2, inner)
	}
	return b
}

// UnmarshalContent decodes bytes written by MarshalContent.
func UnmarshalContent(b []byte) (Content, error) {
	f, err := parseFields(b)
	if err != nil {
		return Content{}, err
	}
	var c Content
	if v, ok := f.bytes[1]; ok {
		c.Conversation = string(v)
	}
	if v, ok := f.bytes[2]; ok {
		inner, err := parseFields(v)
		if err != nil {
			return Content{}, err
		}
		groupID, ok := inner.bytes[1]
		if !ok || len(groupID) == 0 {
			return Content{}, fmt.Errorf("%w: distribution without group id", types.ErrInvalidMessage)
		}
		c.SenderKeyDistribution = &SenderKeyDistribution{
			GroupID: string(groupID),
			Message: inner.bytes[2],
		}
	}
	return c, nil
}

// EncodeContent produces the plaintext handed to a cipher: the marshalled
// content, compressed, then padded.
func EncodeContent(c Content) ([]byte, error) {
	compressed, err := codec.Deflate(MarshalContent(c))
	if err != nil {
		return nil, err
	}
	return codec.Pad(compressed)
}

// DecodeContent reverses EncodeContent on a decrypted plaintext.
func DecodeContent(plaintext []byte) (Content, error) {
	unpadded, err := codec.Unpad(plaintext)
	if err != nil {
		return Content{}, err
	}
	raw, err := codec.Inflate(unpadded)
	if err != nil {
		return Content{}, fmt.Errorf("%w: %v", types.ErrInvalidMessage, err)
	}
	return UnmarshalContent(raw)
}
