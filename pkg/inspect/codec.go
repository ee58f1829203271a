package inspect

import (
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/net/websocket"

	"github.com/opd-ai/go-broadphase/pkg/simulation"
)

// Codec names accepted in the codec query parameter.
const (
	CodecJSON    = "json"
	CodecMsgpack = "msgpack"
)

// Frame types sent to clients.
const (
	FrameSnapshot = "snapshot"
	FrameAck      = "ack"
	FrameError    = "error"
)

// Frame is one message from the inspector to a client.
type Frame struct {
	Type     string               `json:"type" msgpack:"type"`
	Snapshot *simulation.Snapshot `json:"snapshot,omitempty" msgpack:"snapshot,omitempty"`
	Command  string               `json:"command,omitempty" msgpack:"command,omitempty"`
	Error    string               `json:"error,omitempty" msgpack:"error,omitempty"`
}

// MsgpackCodec sends values as binary msgpack frames.
var MsgpackCodec = websocket.Codec{
	Marshal: func(v interface{}) ([]byte, byte, error) {
		data, err := msgpack.Marshal(v)
		return data, websocket.BinaryFrame, err
	},
	Unmarshal: func(data []byte, _ byte, v interface{}) error {
		return msgpack.Unmarshal(data, v)
	},
}

// codecFor maps a codec name to its websocket codec. Unknown names fall back
// to JSON.
func codecFor(name string) (websocket.Codec, string) {
	if name == CodecMsgpack {
		return MsgpackCodec, CodecMsgpack
	}
	return websocket.JSON, CodecJSON
}
