// Package server implements the ROT13 UDP echo server and its monitoring HTTP API.
// The UDP side handles one datagram at a time: receive, log, rotate, reply.
package server
