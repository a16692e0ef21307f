package rpc

import "fmt"

const codecName = "tysketch"

// wireMessage is implemented by every message this package's codec knows
// how to (de)serialize.
type wireMessage interface {
	Marshal() ([]byte, error)
	Unmarshal([]byte) error
}

// codec is a grpc/encoding.Codec over wireMessage, registered under
// codecName so both client and server select it via
// grpc.CallContentSubtype(codecName) without needing generated
// proto.Message types.
type codec struct{}

func (codec) Marshal(v interface{}) ([]byte, error) {
	m, ok := v.(wireMessage)
	if !ok {
		return nil, fmt.Errorf("rpc: codec: %T does not implement wireMessage", v)
	}
	return m.Marshal()
}

func (codec) Unmarshal(data []byte, v interface{}) error {
	m, ok := v.(wireMessage)
	if !ok {
		return fmt.Errorf("rpc: codec: %T does not implement wireMessage", v)
	}
	return m.Unmarshal(data)
}

func (codec) Name() string { return codecName }
