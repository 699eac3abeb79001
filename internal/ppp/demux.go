package ppp

import (
	"errors"
	"log/slog"
)

// handleChanReadable is registered with the Reactor for the channel
// descriptor.
func (s *Session) handleChanReadable() { s.demux(true) }

// handleUnitReadable is registered with the Reactor for the unit
// descriptor.
func (s *Session) handleUnitReadable() { s.demux(false) }

// demux is the shared FrameDemux read loop for both descriptors. It
// reads non-blocking until EAGAIN, dispatching each frame by its
// 16-bit protocol tag. The critical reentrancy rule: a handler
// invocation may tear the session down (closing the descriptor to
// closedFD); the loop must observe that immediately after the call and
// return without reading again.
func (s *Session) demux(isChannel bool) {
	for {
		fd, handlers := s.demuxTarget(isChannel)
		if fd == closedFD {
			return
		}

		n, err := s.mux.Read(fd, s.buf)
		if err != nil {
			if errors.Is(err, ErrWouldBlock) {
				return
			}
			s.logger.Warn("demux read error", slog.Bool("channel", isChannel), slog.String("error", err.Error()))
			return
		}

		if n == 0 {
			if isChannel {
				s.metrics.FrameDropped("channel-eof")
				s.Terminate(TermNASError, true)
			}
			return
		}

		if n < 2 {
			s.logger.Warn("short read", slog.Bool("channel", isChannel), slog.Int("n", n))
			s.metrics.FrameDropped("short-read")
			continue
		}

		s.metrics.FrameDemuxed(isChannel)

		proto := uint16(s.buf[0])<<8 | uint16(s.buf[1])

		if s.verbose.Load() {
			s.logger.Info("frame demuxed",
				slog.Bool("channel", isChannel),
				slog.Int("n", n),
				slog.Int("proto", int(proto)),
			)
		}

		reg := handlers.find(proto)
		if reg == nil {
			if s.protocolRejectTag != nil {
				s.protocolRejectTag(proto)
				s.metrics.ProtocolRejectSent(proto)
			}
			s.metrics.FrameDropped("unknown-protocol")
			continue
		}

		s.metrics.FrameDemuxed(isChannel)
		reg.Recv(s.Buf(n))

		if fd, _ := s.demuxTarget(isChannel); fd == closedFD {
			return
		}
	}
}

// demuxTarget resolves the current descriptor and handler list for
// isChannel. Read fresh on every iteration (and again after dispatching
// to a handler) since a handler may have torn the session down.
func (s *Session) demuxTarget(isChannel bool) (int, *handlerList) {
	if isChannel {
		return s.chanFD, s.chanHandlers
	}
	return s.unitFD, s.unitHandlers
}
