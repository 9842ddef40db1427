// Package comm provides L0 link support.
package comm

// L0 link is communicated between a host and the peripheral controller
// over a byte-oriented serial bus (SPI/I2C).
//
// Two bindings carry the same (address, command, data) request:
//
//   - SPI-style 4-byte frames: addr | cmd | data_hi | data_lo, answered by
//     the 32-bit result word (big-endian).
//   - I2C-slave packets: [SOP, CMD, EOP], answered by a 1-byte status.
//
// There is no sequencing or checksum. A partial frame is discarded when
// the link stays idle longer than the timeout, and a malformed packet is
// rejected as a whole. Exactly one request is in flight per link.
//
// Producer: host
// Consumer: peripheral controller
