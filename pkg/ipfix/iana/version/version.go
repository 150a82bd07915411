package version

// ProtocolVersion is the 16-bit version field at the front of an IPFIX
// message header.
type ProtocolVersion uint16

// IPFIX is the only protocol version this decoder accepts (RFC 7011 §3.1).
const IPFIX ProtocolVersion = 10
