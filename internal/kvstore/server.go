package kvstore

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Prakti/striptease"
	"github.com/Prakti/striptease/frame"
	"github.com/Prakti/striptease/message"
)

// Server keeps blobs in memory and answers store and fetch requests.
type Server struct {
	log      zerolog.Logger
	messages *message.Registry

	// Codec compresses response frames. Requests may use any codec.
	Codec  frame.Codec
	Limits frame.Limits

	mu   sync.RWMutex
	data map[string][]byte
}

func NewServer(logger zerolog.Logger) *Server {
	return &Server{
		log:      logger.With().Str("component", "kvstore").Logger(),
		messages: Messages(),
		Limits:   frame.DefaultLimits(),
		data:     make(map[string][]byte),
	}
}

// Serve accepts connections on ln until ctx is done, handling each on its
// own goroutine. It closes ln and waits for open connections before
// returning.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	s.log.Info().Str("addr", ln.Addr().String()).Msg("kvstore: listening")
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.ServeConn(ctx, conn); err != nil && !errors.Is(err, context.Canceled) {
				s.log.Warn().Err(err).Str("remote", conn.RemoteAddr().String()).Msg("kvstore: connection failed")
			}
		}()
	}
}

// ServeConn handles requests on conn until the peer hangs up, a request is
// malformed, or ctx is done. conn is closed on return.
func (s *Server) ServeConn(ctx context.Context, conn net.Conn) error {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	log := s.log.With().Str("remote", conn.RemoteAddr().String()).Logger()
	log.Debug().Msg("kvstore: connection opened")

	r := frame.NewReader(conn)
	r.Limits = s.Limits
	w := frame.NewWriter(conn, s.Codec)
	w.Limits = s.Limits

	for {
		f, err := r.ReadFrame()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				log.Debug().Msg("kvstore: connection closed by peer")
				return nil
			}
			return err
		}

		req, err := s.messages.Decode(f.Payload)
		if err != nil {
			return err
		}
		id, values, err := s.handle(req)
		if err != nil {
			return err
		}
		reply, err := s.messages.Encode(id, values)
		if err != nil {
			return err
		}
		if err := w.WriteFrame(reply); err != nil {
			return err
		}
	}
}

func (s *Server) handle(req message.Message) (uint8, striptease.Values, error) {
	trans := req.Values["trans"]
	name := req.Values["name"]
	key, _ := name.Bytes()

	switch req.ID {
	case MsgStoreRequest:
		data, _ := req.Values.Bytes("data")
		status := s.store(string(key), data)
		s.log.Debug().Bytes("name", key).Int("bytes", len(data)).Uint8("status", status).Msg("kvstore: store")
		return MsgStoreResponse, striptease.Values{
			"trans":  trans,
			"name":   name,
			"status": striptease.Uint(uint64(status)),
		}, nil

	case MsgFetchRequest:
		status, data := s.fetch(string(key))
		s.log.Debug().Bytes("name", key).Uint8("status", status).Msg("kvstore: fetch")
		return MsgFetchResponse, striptease.Values{
			"trans":  trans,
			"status": striptease.Uint(uint64(status)),
			"name":   name,
			"data":   striptease.Bytes(data),
		}, nil
	}
	return 0, nil, ErrUnexpectedMessage
}

func (s *Server) store(name string, data []byte) uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[name] = append([]byte(nil), data...)
	return StatusOK
}

func (s *Server) fetch(name string) (uint8, []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[name]
	if !ok {
		return StatusNotFound, nil
	}
	return StatusOK, data
}

// Len is the number of stored keys.
func (s *Server) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
