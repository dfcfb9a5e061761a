package feed

import (
	"bufio"
	"fmt"
	"net"

	"go.uber.org/zap"
)

// Server is the TCP side of the feed: connect, receive one welcome
// line, then newline-delimited JSON events until disconnect.
type Server struct {
	Addr string
	Hub  *Hub

	ln net.Listener
}

func NewServer(addr string, hub *Hub) *Server {
	return &Server{Addr: addr, Hub: hub}
}

func (s *Server) Run() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("feed listen %s: %w", s.Addr, err)
	}
	s.ln = ln
	zap.S().Infow("feed tcp server listening", "addr", s.Addr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}

		s.Hub.AddTCP(conn)
		stats := s.Hub.Stats()
		_, _ = fmt.Fprintf(conn, `{"type":"welcome","transport":"tcp","clients":%d}`+"\n", stats.TCPClients)
		zap.S().Debugw("feed tcp client connected", "remote", conn.RemoteAddr().String())

		go func(c net.Conn) {
			defer func() {
				s.Hub.RemoveTCP(c)
				zap.S().Debugw("feed tcp client disconnected", "remote", c.RemoteAddr().String())
			}()

			// consume and discard anything the client sends
			sc := bufio.NewScanner(c)
			for sc.Scan() {
			}
		}(conn)
	}
}

func (s *Server) Close() error {
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}
