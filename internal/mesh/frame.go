package mesh

import (
	"fmt"
	"io"
	"time"

	pb "github.com/meshtastic/go/generated"
	"google.golang.org/protobuf/proto"
)

// encodeFrame wraps a protobuf payload in the stream framing.
func encodeFrame(payload []byte) []byte {
	frame := make([]byte, 0, len(payload)+4)
	frame = append(frame, start1, start2, byte(len(payload)>>8), byte(len(payload)))
	return append(frame, payload...)
}

func (s *Session) writeMessage(msg *pb.ToRadio) error {
	payload, err := proto.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling frame: %w", err)
	}
	if len(payload) > maxFrameLen {
		return fmt.Errorf("frame payload %d bytes exceeds %d", len(payload), maxFrameLen)
	}
	if _, err := s.conn.Write(encodeFrame(payload)); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// readMessage returns the next decodable FromRadio frame, or nil when the
// deadline passes first. Undecodable payloads are skipped: the byte
// stream may carry debug console noise between frames.
func (s *Session) readMessage(deadline time.Time) (*pb.FromRadio, error) {
	for {
		payload, err := s.readFrame(deadline)
		if err != nil || payload == nil {
			return nil, err
		}
		fr := &pb.FromRadio{}
		if err := proto.Unmarshal(payload, fr); err != nil {
			s.log.Debug().Err(err).Int("len", len(payload)).Msg("Skipping undecodable frame")
			continue
		}
		return fr, nil
	}
}

// readFrame scans for the next framed payload, resynchronizing past any
// garbage. Returns (nil, nil) when the deadline passes without a
// complete frame.
func (s *Session) readFrame(deadline time.Time) ([]byte, error) {
	for {
		b, ok, err := s.readByte(deadline)
		if err != nil || !ok {
			return nil, err
		}
		if b != start1 {
			continue
		}

		b, ok, err = s.readByte(deadline)
		if err != nil || !ok {
			return nil, err
		}
		if b != start2 {
			continue
		}

		hi, ok, err := s.readByte(deadline)
		if err != nil || !ok {
			return nil, err
		}
		lo, ok, err := s.readByte(deadline)
		if err != nil || !ok {
			return nil, err
		}

		length := int(hi)<<8 | int(lo)
		if length == 0 || length > maxFrameLen {
			// length is implausible, treat the magic as noise and resync
			continue
		}

		payload := make([]byte, length)
		ok, err = s.readFull(payload, deadline)
		if err != nil || !ok {
			return nil, err
		}
		return payload, nil
	}
}

// readByte reads one byte, looping over the port's short read timeouts
// until the deadline. ok is false on deadline or clean EOF.
func (s *Session) readByte(deadline time.Time) (byte, bool, error) {
	var b [1]byte
	for time.Now().Before(deadline) {
		n, err := s.conn.Read(b[:])
		if err == io.EOF {
			return 0, false, nil
		}
		if err != nil {
			return 0, false, err
		}
		if n > 0 {
			return b[0], true, nil
		}
	}
	return 0, false, nil
}

func (s *Session) readFull(p []byte, deadline time.Time) (bool, error) {
	read := 0
	for read < len(p) {
		if !time.Now().Before(deadline) {
			return false, nil
		}
		n, err := s.conn.Read(p[read:])
		if err == io.EOF {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		read += n
	}
	return true, nil
}
