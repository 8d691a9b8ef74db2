// Package rplidar drives a 360° range scanner that speaks the RPLIDAR
// serial protocol (A1/A2 family).
//
// The wire format is a request/response protocol: requests start with
// 0xA5, responses start with a 7-byte descriptor (0xA5 0x5A, 30-bit length,
// 2-bit send mode, data type). A started scan streams 5-byte measurement
// nodes forever. The decoder tolerates line noise: a node whose start flags
// disagree, whose check bit is clear or whose angle is out of range is
// treated as garbled, one byte is dropped and decoding resynchronises on
// the next byte.
//
// Device implements scan.Source, splitting the node stream into
// revolutions on the start flag.
package rplidar
