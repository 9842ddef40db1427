// Package msgs provides L1 protocol support and all message schemas.
package msgs

// L1 protocol is communicated between the peripheral controller and L2
// tools (CLI, monitor). Every message travels in a Typed envelope carrying
// the type ID and, for commands and their replies, a sequence number.
//
// Producer: L1 controller, L2 tools
// Consumer: L1 controller, L2 tools
