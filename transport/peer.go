package transport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/pion/webrtc/v3"
	"github.com/sirupsen/logrus"
)

// ErrPeerFailed indicates the peer connection reached the failed state.
var ErrPeerFailed = errors.New("peer connection failed")

// Peer wraps a pion PeerConnection for a single remote endpoint. Session
// descriptions are exchanged out of band as base64-encoded JSON after ICE
// gathering has completed, so no trickle signaling is required.
type Peer struct {
	pc *webrtc.PeerConnection

	mu        sync.Mutex
	onChannel func(*DataChannel)
	onFailed  func(error)
}

// NewPeer creates a peer connection using the given STUN/TURN server URLs.
func NewPeer(iceServers []string) (*Peer, error) {
	cfg := webrtc.Configuration{}
	if len(iceServers) > 0 {
		cfg.ICEServers = []webrtc.ICEServer{{URLs: iceServers}}
	}

	pc, err := webrtc.NewPeerConnection(cfg)
	if err != nil {
		return nil, fmt.Errorf("create peer connection: %w", err)
	}

	p := &Peer{pc: pc}

	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		logrus.WithFields(logrus.Fields{
			"function": "Peer.OnDataChannel",
			"label":    dc.Label(),
		}).Info("Remote data channel announced")

		p.mu.Lock()
		fn := p.onChannel
		p.mu.Unlock()
		if fn != nil {
			fn(NewDataChannel(dc, p.maxMessageSize))
		}
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		logrus.WithFields(logrus.Fields{
			"function": "Peer.OnConnectionStateChange",
			"state":    state.String(),
		}).Debug("Peer connection state changed")

		if state != webrtc.PeerConnectionStateFailed {
			return
		}
		p.mu.Lock()
		fn := p.onFailed
		p.mu.Unlock()
		if fn != nil {
			fn(ErrPeerFailed)
		}
	})

	logrus.WithFields(logrus.Fields{
		"function":    "NewPeer",
		"ice_servers": iceServers,
	}).Info("Peer connection created")

	return p, nil
}

func (p *Peer) maxMessageSize() uint64 {
	sctp := p.pc.SCTP()
	if sctp == nil {
		return 0
	}
	return uint64(sctp.GetCapabilities().MaxMessageSize)
}

// OnChannel sets the function called for each data channel opened by the remote side.
func (p *Peer) OnChannel(fn func(*DataChannel)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChannel = fn
}

// OnFailed sets the function called if the connection fails.
func (p *Peer) OnFailed(fn func(error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onFailed = fn
}

// Open creates an ordered, reliable data channel with the given label.
func (p *Peer) Open(label string) (*DataChannel, error) {
	ordered := true
	dc, err := p.pc.CreateDataChannel(label, &webrtc.DataChannelInit{Ordered: &ordered})
	if err != nil {
		return nil, fmt.Errorf("create data channel %q: %w", label, err)
	}
	return NewDataChannel(dc, p.maxMessageSize), nil
}

// Offer creates the local offer and returns it encoded for out-of-band exchange.
func (p *Peer) Offer(ctx context.Context) (string, error) {
	offer, err := p.pc.CreateOffer(nil)
	if err != nil {
		return "", fmt.Errorf("create offer: %w", err)
	}
	return p.setLocal(ctx, offer)
}

// Answer applies a remote offer and returns the encoded local answer.
func (p *Peer) Answer(ctx context.Context, encodedOffer string) (string, error) {
	offer, err := DecodeDescription(encodedOffer)
	if err != nil {
		return "", err
	}
	if err := p.pc.SetRemoteDescription(offer); err != nil {
		return "", fmt.Errorf("set remote offer: %w", err)
	}

	answer, err := p.pc.CreateAnswer(nil)
	if err != nil {
		return "", fmt.Errorf("create answer: %w", err)
	}
	return p.setLocal(ctx, answer)
}

// Accept applies the remote answer to a previously created offer.
func (p *Peer) Accept(encodedAnswer string) error {
	answer, err := DecodeDescription(encodedAnswer)
	if err != nil {
		return err
	}
	if err := p.pc.SetRemoteDescription(answer); err != nil {
		return fmt.Errorf("set remote answer: %w", err)
	}
	return nil
}

// setLocal applies sd and waits for ICE gathering so the returned
// description carries every candidate.
func (p *Peer) setLocal(ctx context.Context, sd webrtc.SessionDescription) (string, error) {
	gathered := webrtc.GatheringCompletePromise(p.pc)
	if err := p.pc.SetLocalDescription(sd); err != nil {
		return "", fmt.Errorf("set local description: %w", err)
	}

	select {
	case <-gathered:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	return EncodeDescription(*p.pc.LocalDescription())
}

// Close tears down the peer connection and every data channel on it.
func (p *Peer) Close() error {
	return p.pc.Close()
}

// EncodeDescription serializes a session description for copy/paste exchange.
func EncodeDescription(sd webrtc.SessionDescription) (string, error) {
	raw, err := json.Marshal(sd)
	if err != nil {
		return "", fmt.Errorf("encode session description: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeDescription parses the output of EncodeDescription.
func DecodeDescription(encoded string) (webrtc.SessionDescription, error) {
	var sd webrtc.SessionDescription
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return sd, fmt.Errorf("decode session description: %w", err)
	}
	if err := json.Unmarshal(raw, &sd); err != nil {
		return sd, fmt.Errorf("decode session description: %w", err)
	}
	return sd, nil
}
