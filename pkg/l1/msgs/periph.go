package msgs

import (
	"github.com/golang/protobuf/proto"

	fx "github.com/robotalks/perictl/pkg/framework"
	"github.com/robotalks/perictl/pkg/periph"
)

// PeriphRequest dispatches a single (address, command, data) request.
type PeriphRequest struct {
	Address uint32 `protobuf:"varint,1,opt,name=address,proto3" json:"address"`
	Command uint32 `protobuf:"varint,2,opt,name=command,proto3" json:"command"`
	Data    uint32 `protobuf:"varint,3,opt,name=data,proto3" json:"data,omitempty"`
}

// NewPeriphRequest creates a PeriphRequest.
func NewPeriphRequest(req periph.Request) *PeriphRequest {
	return &PeriphRequest{
		Address: uint32(req.Address),
		Command: uint32(req.Command),
		Data:    req.Data,
	}
}

// Request converts to periph.Request. Address and command are truncated to a byte.
func (m *PeriphRequest) Request() periph.Request {
	return periph.Request{
		Address: periph.Address(m.Address),
		Command: periph.Command(m.Command),
		Data:    m.Data,
	}
}

// NewMessage implements Message.
func (m *PeriphRequest) NewMessage() fx.Message { return &PeriphRequest{} }

// TypeID implements SerializableMessage.
func (m *PeriphRequest) TypeID() uint32 { return PeriphRequestTypeID }

// Serializable implements SerializableMessage.
func (m *PeriphRequest) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *PeriphRequest) ProtoMessage() {}

// Reset implements proto.Message.
func (m *PeriphRequest) Reset() { *m = PeriphRequest{} }

// String implements proto.Message.
func (m *PeriphRequest) String() string { return proto.CompactTextString(m) }

// PeriphResult is the reply of PeriphRequest.
type PeriphResult struct {
	Result uint32 `protobuf:"varint,1,opt,name=result,proto3" json:"result"`
}

// NewMessage implements Message.
func (m *PeriphResult) NewMessage() fx.Message { return &PeriphResult{} }

// TypeID implements SerializableMessage.
func (m *PeriphResult) TypeID() uint32 { return PeriphResultTypeID }

// Serializable implements SerializableMessage.
func (m *PeriphResult) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *PeriphResult) ProtoMessage() {}

// Reset implements proto.Message.
func (m *PeriphResult) Reset() { *m = PeriphResult{} }

// String implements proto.Message.
func (m *PeriphResult) String() string { return proto.CompactTextString(m) }

// PeriphListQuery queries the address map.
type PeriphListQuery struct {
}

// NewMessage implements Message.
func (m *PeriphListQuery) NewMessage() fx.Message { return &PeriphListQuery{} }

// TypeID implements SerializableMessage.
func (m *PeriphListQuery) TypeID() uint32 { return PeriphListQueryTypeID }

// Serializable implements SerializableMessage.
func (m *PeriphListQuery) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *PeriphListQuery) ProtoMessage() {}

// Reset implements proto.Message.
func (m *PeriphListQuery) Reset() { *m = PeriphListQuery{} }

// String implements proto.Message.
func (m *PeriphListQuery) String() string { return proto.CompactTextString(m) }

// PeriphList is the reply of PeriphListQuery.
type PeriphList struct {
	Peripherals []*PeriphInfo `protobuf:"bytes,1,rep,name=peripherals,proto3" json:"peripherals,omitempty"`
}

// NewMessage implements Message.
func (m *PeriphList) NewMessage() fx.Message { return &PeriphList{} }

// TypeID implements SerializableMessage.
func (m *PeriphList) TypeID() uint32 { return PeriphListTypeID }

// Serializable implements SerializableMessage.
func (m *PeriphList) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *PeriphList) ProtoMessage() {}

// Reset implements proto.Message.
func (m *PeriphList) Reset() { *m = PeriphList{} }

// String implements proto.Message.
func (m *PeriphList) String() string { return proto.CompactTextString(m) }

// Find finds a peripheral by name.
func (m *PeriphList) Find(name string) *PeriphInfo {
	for _, info := range m.Peripherals {
		if info.Name == name {
			return info
		}
	}
	return nil
}

// PeriphInfo describes a peripheral and its command vocabulary.
type PeriphInfo struct {
	Address  uint32         `protobuf:"varint,1,opt,name=address,proto3" json:"address"`
	Name     string         `protobuf:"bytes,2,opt,name=name,proto3" json:"name,omitempty"`
	Kind     string         `protobuf:"bytes,3,opt,name=kind,proto3" json:"kind,omitempty"`
	Commands []*CommandInfo `protobuf:"bytes,4,rep,name=commands,proto3" json:"commands,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *PeriphInfo) ProtoMessage() {}

// Reset implements proto.Message.
func (m *PeriphInfo) Reset() { *m = PeriphInfo{} }

// String implements proto.Message.
func (m *PeriphInfo) String() string { return proto.CompactTextString(m) }

// Command finds a command by name.
func (m *PeriphInfo) Command(name string) *CommandInfo {
	for _, cmd := range m.Commands {
		if cmd.Name == name {
			return cmd
		}
	}
	return nil
}

// CommandInfo describes a command.
type CommandInfo struct {
	Code    uint32 `protobuf:"varint,1,opt,name=code,proto3" json:"code"`
	Name    string `protobuf:"bytes,2,opt,name=name,proto3" json:"name,omitempty"`
	Returns bool   `protobuf:"varint,3,opt,name=returns,proto3" json:"returns,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *CommandInfo) ProtoMessage() {}

// Reset implements proto.Message.
func (m *CommandInfo) Reset() { *m = CommandInfo{} }

// String implements proto.Message.
func (m *CommandInfo) String() string { return proto.CompactTextString(m) }

// PeriphStats is an Event message reporting dispatch counters.
type PeriphStats struct {
	Requests uint64 `protobuf:"varint,1,opt,name=requests,proto3" json:"requests"`
	Failures uint64 `protobuf:"varint,2,opt,name=failures,proto3" json:"failures"`
	// LastFailure is the last failed request, if any.
	LastFailure *PeriphRequest `protobuf:"bytes,3,opt,name=last_failure,proto3" json:"last_failure,omitempty"`
}

// NewMessage implements Message.
func (m *PeriphStats) NewMessage() fx.Message { return &PeriphStats{} }

// TypeID implements SerializableMessage.
func (m *PeriphStats) TypeID() uint32 { return PeriphStatsTypeID }

// Serializable implements SerializableMessage.
func (m *PeriphStats) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *PeriphStats) ProtoMessage() {}

// Reset implements proto.Message.
func (m *PeriphStats) Reset() { *m = PeriphStats{} }

// String implements proto.Message.
func (m *PeriphStats) String() string { return proto.CompactTextString(m) }
