// Package mesh implements the stateful serial session protocol spoken by
// mesh radios: protobuf messages wrapped in a simple two-byte-magic
// stream framing.
package mesh

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	pb "github.com/meshtastic/go/generated"
	"github.com/rs/zerolog"
	"go.bug.st/serial"

	"meshbeacon/internal/discovery"
	"meshbeacon/internal/nodedb"
)

// Stream framing: START1 START2, big-endian uint16 length, protobuf body.
const (
	start1      = 0x94
	start2      = 0xc3
	maxFrameLen = 512
)

const (
	baudRate      = 115200
	readTimeout   = 100 * time.Millisecond
	bootSettle    = 2 * time.Second  // radio boot time after the port opens
	configTimeout = 15 * time.Second // identity must arrive within this
	drainBudget   = 250 * time.Millisecond
)

// ErrNotConnected is returned for operations on a closed session.
var ErrNotConnected = errors.New("not connected to radio")

// Session is a stateful connection to a radio over its stream protocol.
// It holds the port exclusively between Connect and Close, learns the
// local node identity during the connect handshake, and passively records
// every node the radio reports into the registry.
type Session struct {
	portName string
	db       *nodedb.Store // may be nil
	log      zerolog.Logger

	mu         sync.Mutex
	conn       io.ReadWriteCloser
	myNum      uint32
	battery    int
	hasBattery bool
	packetID   uint32
}

// NewSession prepares a session for the given port. An empty port name
// means auto-detect on Connect.
func NewSession(portName string, db *nodedb.Store, log zerolog.Logger) *Session {
	return &Session{
		portName: portName,
		db:       db,
		log:      log,
		battery:  -1,
		packetID: rand.Uint32(),
	}
}

// Connect opens the serial port, waits out the radio's boot settle, and
// blocks until the radio has reported its own node number. Failure here
// is fatal to the caller; a partially opened port is released before
// returning.
func (s *Session) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		return nil
	}

	name := s.portName
	if name == "" {
		var err error
		name, err = discovery.FindPort()
		if err != nil {
			return fmt.Errorf("locating radio: %w", err)
		}
	}

	port, err := serial.Open(name, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return fmt.Errorf("opening %s: %w", name, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return fmt.Errorf("configuring %s: %w", name, err)
	}
	s.conn = port

	s.log.Info().Str("port", name).Msg("Radio port opened, waiting for boot")
	time.Sleep(bootSettle)

	if err := s.handshake(); err != nil {
		s.closeLocked()
		return err
	}

	s.log.Info().Uint32("node_num", s.myNum).Msg("Connected to radio")
	return nil
}

// handshake requests the radio's config dump and consumes frames until
// the local node identity is known.
func (s *Session) handshake() error {
	configID := rand.Uint32()
	want := &pb.ToRadio{
		PayloadVariant: &pb.ToRadio_WantConfigId{WantConfigId: configID},
	}
	if err := s.writeMessage(want); err != nil {
		return fmt.Errorf("requesting radio config: %w", err)
	}

	deadline := time.Now().Add(configTimeout)
	for time.Now().Before(deadline) {
		fr, err := s.readMessage(deadline)
		if err != nil {
			return fmt.Errorf("reading radio config: %w", err)
		}
		if fr == nil {
			break
		}
		s.handleFrame(fr)

		if v, ok := fr.GetPayloadVariant().(*pb.FromRadio_ConfigCompleteId); ok {
			if v.ConfigCompleteId == configID && s.myNum != 0 {
				return nil
			}
		}
	}

	if s.myNum != 0 {
		return nil
	}
	return fmt.Errorf("radio did not report its node identity within %s", configTimeout)
}

// SendText transmits a text message to the given node number
// (0xffffffff broadcasts). At-most-once: the radio does not confirm
// delivery and the session does not queue.
func (s *Session) SendText(dest uint32, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return ErrNotConnected
	}

	// pick up telemetry the radio streamed since the last call
	s.drainLocked()

	s.packetID++
	pkt := &pb.MeshPacket{
		From:     s.myNum,
		To:       dest,
		Id:       s.packetID,
		HopLimit: 3,
		PayloadVariant: &pb.MeshPacket_Decoded{
			Decoded: &pb.Data{
				Portnum: pb.PortNum_TEXT_MESSAGE_APP,
				Payload: []byte(text),
			},
		},
	}
	out := &pb.ToRadio{PayloadVariant: &pb.ToRadio_Packet{Packet: pkt}}
	if err := s.writeMessage(out); err != nil {
		return fmt.Errorf("sending text: %w", err)
	}
	return nil
}

// LocalNode returns the radio's own node number, known after Connect.
func (s *Session) LocalNode() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.myNum
}

// BatteryLevel reports the radio's last known battery percentage,
// refreshing it from any frames streamed since the previous call. The
// second return is false until the radio has reported metrics once.
func (s *Session) BatteryLevel() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return 0, false
	}
	s.drainLocked()
	if !s.hasBattery {
		return 0, false
	}
	return s.battery, true
}

// Close releases the port. Idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

func (s *Session) closeLocked() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// drainLocked consumes frames the radio has already pushed without
// waiting for new ones beyond a small budget.
func (s *Session) drainLocked() {
	deadline := time.Now().Add(drainBudget)
	for {
		fr, err := s.readMessage(deadline)
		if err != nil || fr == nil {
			return
		}
		s.handleFrame(fr)
	}
}

func (s *Session) handleFrame(fr *pb.FromRadio) {
	switch v := fr.GetPayloadVariant().(type) {
	case *pb.FromRadio_MyInfo:
		s.myNum = v.MyInfo.GetMyNodeNum()
	case *pb.FromRadio_NodeInfo:
		s.recordNode(v.NodeInfo)
	}
}

func (s *Session) recordNode(ni *pb.NodeInfo) {
	battery := -1
	if dm := ni.GetDeviceMetrics(); dm != nil {
		battery = int(dm.GetBatteryLevel())
	}

	if ni.GetNum() == s.myNum && battery >= 0 {
		s.battery = battery
		s.hasBattery = true
	}

	if s.db == nil {
		return
	}
	rec := nodedb.Record{Num: ni.GetNum(), Battery: battery}
	if u := ni.GetUser(); u != nil {
		rec.ID = u.GetId()
		rec.LongName = u.GetLongName()
		rec.ShortName = u.GetShortName()
	}
	if err := s.db.Upsert(rec); err != nil {
		s.log.Warn().Err(err).Uint32("node", rec.Num).Msg("Failed to record node")
	}
}
