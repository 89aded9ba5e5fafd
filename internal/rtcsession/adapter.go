// Package rtcsession adapts pion/webrtc's callback-driven PeerConnection
// into the single cooperative event stream the session driver (§4.G)
// expects from the idealized "peer-state library" described in §6.
//
// The peer-state library in §6 is modeled as a pull-based sans-io state
// machine: Poll() returns Transmit/Event/Timeout, and the caller owns all
// socket I/O. pion/webrtc is the opposite shape: it owns its ICE/DTLS/SRTP
// I/O internally over whatever net.PacketConn it is handed, and pushes state
// changes out through callbacks. This adapter bridges the two: pion is
// handed the UDP socket via SettingEngine.SetICEUDPMux so the server still
// binds and advertises the address (§4.F), and every pion callback is
// funneled into one buffered Events channel so the rest of the system keeps
// its single-select-loop shape (§9's design note against spawning a task per
// event). Because pion transmits directly over the mux, the "Transmit"
// output never needs to be surfaced here; see Driver for how this
// collapses the original six-step poll loop into an equivalent select.
package rtcsession

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/pion/interceptor"
	"github.com/pion/rtcp"
	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"
	"github.com/pion/webrtc/v4"

	"github.com/ethan/cloudrender-relay/pkg/logger"
)

// EventKind identifies the dispatch cases in §4.G's event-dispatch table.
type EventKind int

const (
	EventICEStateChange EventKind = iota
	EventMediaAdded
	EventDataChannelOpen
	EventChannelData
	EventBWEEstimate
)

// ICEState is the subset of ICE connection states the driver cares about.
type ICEState int

const (
	ICEStateOther ICEState = iota
	ICEStateConnected
	ICEStateDisconnected
)

// Event is one dispatch-worthy occurrence from the adapter.
type Event struct {
	Kind EventKind

	ICEState   ICEState           // EventICEStateChange
	Mid        string             // EventMediaAdded
	PT         webrtc.PayloadType // EventMediaAdded
	Label      string             // EventDataChannelOpen / EventChannelData
	Data       []byte             // EventChannelData
	BitrateBps float64            // EventBWEEstimate
}

const videoPayloadType = webrtc.PayloadType(96)
const rtpClockRate = 90_000

// Adapter wraps one pion PeerConnection plus the single video track this
// server supports (§3 Non-goals: one track per session, no simulcast).
type Adapter struct {
	pc    *webrtc.PeerConnection
	track *webrtc.TrackLocalStaticRTP

	payloader  *codecs.H264Payloader
	seqNum     uint16
	mu         sync.Mutex

	events chan Event

	mid string

	log *logger.Logger
}

// Config configures the adapter's PeerConnection construction.
type Config struct {
	UDPConn  net.PacketConn
	PublicIP net.IP
	Log      *logger.Logger
}

// NewAdapter builds a PeerConnection configured with ICE-lite, a single H.264
// video codec and pion's default interceptors, applies the SDP offer, and
// returns the SDP answer plus the Adapter wired to drain its events. No
// bandwidth estimator or bitrate ceiling is configured.
func NewAdapter(cfg Config, offerSDP string) (*Adapter, string, error) {
	se := webrtc.SettingEngine{}
	se.SetLite(true)
	se.SetICEUDPMux(webrtc.NewICEUDPMux(nil, cfg.UDPConn))
	se.SetNAT1To1IPs([]string{cfg.PublicIP.String()}, webrtc.ICECandidateTypeHost)

	me := &webrtc.MediaEngine{}
	if err := me.RegisterCodec(webrtc.RTPCodecParameters{
		RTPCodecCapability: webrtc.RTPCodecCapability{
			MimeType:    webrtc.MimeTypeH264,
			ClockRate:   rtpClockRate,
			SDPFmtpLine: "level-asymmetry-allowed=1;packetization-mode=1;profile-level-id=42e01f",
		},
		PayloadType: videoPayloadType,
	}, webrtc.RTPCodecTypeVideo); err != nil {
		return nil, "", fmt.Errorf("rtcsession: register codec: %w", err)
	}

	ir := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(me, ir); err != nil {
		return nil, "", fmt.Errorf("rtcsession: register interceptors: %w", err)
	}

	api := webrtc.NewAPI(
		webrtc.WithSettingEngine(se),
		webrtc.WithMediaEngine(me),
		webrtc.WithInterceptorRegistry(ir),
	)

	pc, err := api.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		return nil, "", fmt.Errorf("rtcsession: new peer connection: %w", err)
	}

	track, err := webrtc.NewTrackLocalStaticRTP(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeH264, ClockRate: rtpClockRate},
		"video", "cloudrender",
	)
	if err != nil {
		return nil, "", fmt.Errorf("rtcsession: new track: %w", err)
	}

	sender, err := pc.AddTrack(track)
	if err != nil {
		return nil, "", fmt.Errorf("rtcsession: add track: %w", err)
	}

	a := &Adapter{
		pc:        pc,
		track:     track,
		payloader: &codecs.H264Payloader{},
		seqNum:    uint16(time.Now().UnixNano() & 0xFFFF),
		events:    make(chan Event, 64),
		log:       cfg.Log,
	}

	a.wireCallbacks(sender)

	if err := pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeOffer,
		SDP:  offerSDP,
	}); err != nil {
		return nil, "", fmt.Errorf("rtcsession: set remote description: %w", err)
	}

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		return nil, "", fmt.Errorf("rtcsession: create answer: %w", err)
	}

	gatherComplete := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(answer); err != nil {
		return nil, "", fmt.Errorf("rtcsession: set local description: %w", err)
	}
	<-gatherComplete

	// Media is added the moment negotiation assigns our sendonly video
	// transceiver a mid; §4.G's "Media added" dispatch fires here rather
	// than from a later callback, since this server only ever sends one
	// locally-originated track (it has no OnTrack for remote media).
	for _, tr := range pc.GetTransceivers() {
		if tr.Sender() == sender {
			a.mid = tr.Mid()
			break
		}
	}
	a.events <- Event{Kind: EventMediaAdded, Mid: a.mid, PT: videoPayloadType}

	local := pc.LocalDescription()
	return a, local.SDP, nil
}

func (a *Adapter) wireCallbacks(sender *webrtc.RTPSender) {
	a.pc.OnICEConnectionStateChange(func(s webrtc.ICEConnectionState) {
		ev := Event{Kind: EventICEStateChange}
		switch s {
		case webrtc.ICEConnectionStateConnected, webrtc.ICEConnectionStateCompleted:
			ev.ICEState = ICEStateConnected
		case webrtc.ICEConnectionStateDisconnected, webrtc.ICEConnectionStateFailed, webrtc.ICEConnectionStateClosed:
			ev.ICEState = ICEStateDisconnected
		default:
			ev.ICEState = ICEStateOther
		}
		a.emit(ev)
	})

	a.pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		label := dc.Label()
		if label == "events" {
			a.emit(Event{Kind: EventDataChannelOpen, Label: label})
			dc.OnMessage(func(msg webrtc.DataChannelMessage) {
				a.emit(Event{Kind: EventChannelData, Label: label, Data: msg.Data})
			})
			return
		}
		// Other labels are protocol misuse by peer: log and ignore (§7).
		a.log.Info("rtcsession: ignoring data channel with unexpected label", "label", label)
	})

	go a.readRTCP(sender)
}

// readRTCP drains RTCP for the video sender, translating
// ReceiverEstimatedMaximumBitrate reports into BWE-estimate events. This is
// the adapter's sole source of "Egress BWE estimate" events, since pion does
// not expose a pull-based BWE controller the way the idealized peer-state
// library does; congestion control itself is consumed as a black box (§1
// Non-goals).
func (a *Adapter) readRTCP(sender *webrtc.RTPSender) {
	for {
		pkts, _, err := sender.ReadRTCP()
		if err != nil {
			return
		}
		for _, pkt := range pkts {
			switch p := pkt.(type) {
			case *rtcp.ReceiverEstimatedMaximumBitrate:
				a.emit(Event{Kind: EventBWEEstimate, BitrateBps: p.Bitrate})
			case *rtcp.PictureLossIndication, *rtcp.FullIntraRequest:
				// Keyframe requests: surfaced to the encoder stage would
				// require a ForceKeyframe hook on Backend; not present in
				// this server's Backend contract (§4.D), so these are
				// logged and otherwise ignored, matching "all others:
				// ignored" in §4.G's dispatch table.
				a.log.DebugSession("keyframe request received")
			}
		}
	}
}

func (a *Adapter) emit(ev Event) {
	select {
	case a.events <- ev:
	default:
		a.log.Warn("rtcsession: event channel full, dropping event", "kind", ev.Kind)
	}
}

// Events returns the channel of dispatch-worthy events the driver selects
// on.
func (a *Adapter) Events() <-chan Event {
	return a.events
}

// SetCurrentBitrate and SetDesiredBitrate are the peer-state's BWE
// controller hooks from §6. pion does not expose a direct bitrate-hint API
// the way the idealized sans-io library does; these are retained as
// diagnostic hints (logged at DebugBWE) rather than wired into pion's GCC
// interceptor internals, consistent with congestion control being a
// consumed black box.
func (a *Adapter) SetCurrentBitrate(bps uint64) {
	a.log.DebugBWE("current bitrate pushed to peer-state", "bps", bps)
}

func (a *Adapter) SetDesiredBitrate(bps uint64) {
	a.log.DebugBWE("desired bitrate pushed to peer-state", "bps", bps)
}

// WriteTrack packetizes payload as H.264 RTP and writes it out on the bound
// video track, stamped with rtpTimestamp (already on the 90kHz clock per
// §4.G's track-write algorithm).
func (a *Adapter) WriteTrack(rtpTimestamp uint32, payload []byte) error {
	if len(payload) == 0 {
		return nil // empty payloads silently dropped, per §4.G
	}

	const mtu = 1200
	a.mu.Lock()
	packets := a.payloader.Payload(mtu, payload)
	for i, p := range packets {
		pkt := &rtp.Packet{
			Header: rtp.Header{
				Version:        2,
				Marker:         i == len(packets)-1,
				PayloadType:    uint8(videoPayloadType),
				SequenceNumber: a.seqNum,
				Timestamp:      rtpTimestamp,
			},
			Payload: p,
		}
		a.seqNum++
		if err := a.track.WriteRTP(pkt); err != nil {
			a.mu.Unlock()
			return fmt.Errorf("rtcsession: write rtp: %w", err)
		}
	}
	a.mu.Unlock()
	return nil
}

// Mid returns the negotiated mid for the bound video track.
func (a *Adapter) Mid() string { return a.mid }

// Close tears down the PeerConnection.
func (a *Adapter) Close() error {
	return a.pc.Close()
}
