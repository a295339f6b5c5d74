// Command client sends one datagram to a ROT13 echo server and prints the reply.
//
//	client -addr 127.0.0.1:10000 Hello, World!
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:10000", "Server address")
	timeout := flag.Duration("timeout", 2*time.Second, "How long to wait for the reply")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	message := strings.Join(flag.Args(), " ")
	if message == "" {
		data, err := io.ReadAll(io.LimitReader(os.Stdin, 1024))
		if err != nil {
			logger.Error("Failed to read stdin", slog.String("error", err.Error()))
			os.Exit(1)
		}
		message = string(data)
	}

	reply, err := exchange(*addr, []byte(message), *timeout)
	if err != nil {
		logger.Error("Exchange failed",
			slog.String("addr", *addr),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	fmt.Println(string(reply))
}

// exchange sends payload to addr and waits for a single reply datagram
func exchange(addr string, payload []byte, timeout time.Duration) ([]byte, error) {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", addr, err)
	}

	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	defer conn.Close()

	if _, err := conn.Write(payload); err != nil {
		return nil, fmt.Errorf("failed to send datagram: %w", err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, fmt.Errorf("failed to set read deadline: %w", err)
	}

	buf := make([]byte, 65535)
	n, err := conn.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("failed to read reply: %w", err)
	}

	return buf[:n], nil
}
