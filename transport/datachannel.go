package transport

import (
	"fmt"

	"github.com/opd-ai/peerdrop/limits"
	"github.com/pion/webrtc/v3"
	"github.com/sirupsen/logrus"
)

// DataChannel adapts a pion WebRTC data channel to the Adapter interface.
type DataChannel struct {
	dc         *webrtc.DataChannel
	maxMsgSize func() uint64
}

// NewDataChannel wraps dc. maxMessageSize reports the negotiated SCTP message
// size limit; nil or a zero result selects DefaultMaxMessageSize.
func NewDataChannel(dc *webrtc.DataChannel, maxMessageSize func() uint64) *DataChannel {
	logrus.WithFields(logrus.Fields{
		"function": "NewDataChannel",
		"label":    dc.Label(),
	}).Debug("Wrapping WebRTC data channel")

	return &DataChannel{dc: dc, maxMsgSize: maxMessageSize}
}

// Label returns the data channel label.
func (d *DataChannel) Label() string {
	return d.dc.Label()
}

// Send transmits data as one binary message.
func (d *DataChannel) Send(data []byte) error {
	switch d.dc.ReadyState() {
	case webrtc.DataChannelStateOpen:
	case webrtc.DataChannelStateClosing, webrtc.DataChannelStateClosed:
		return ErrClosed
	default:
		return ErrNotOpen
	}

	if limit := d.MaxMessageSize(); uint64(len(data)) > limit {
		return fmt.Errorf("%w: size %d exceeds limit %d", limits.ErrMessageTooLarge, len(data), limit)
	}

	return d.dc.Send(data)
}

// BufferedAmount returns the bytes queued in the SCTP send buffer.
func (d *DataChannel) BufferedAmount() uint64 {
	return d.dc.BufferedAmount()
}

// MaxMessageSize returns the negotiated message size limit.
func (d *DataChannel) MaxMessageSize() uint64 {
	if d.maxMsgSize != nil {
		if n := d.maxMsgSize(); n > 0 {
			return n
		}
	}
	return DefaultMaxMessageSize
}

// Bind routes the data channel's events to h. pion invokes the open handler
// immediately if the channel is already open.
func (d *DataChannel) Bind(h Handler) {
	label := d.dc.Label()

	d.dc.OnOpen(func() {
		logrus.WithFields(logrus.Fields{
			"function": "DataChannel.OnOpen",
			"label":    label,
		}).Info("Data channel open")
		h.HandleOpen()
	})
	d.dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		h.HandleMessage(msg.Data)
	})
	d.dc.OnClose(func() {
		logrus.WithFields(logrus.Fields{
			"function": "DataChannel.OnClose",
			"label":    label,
		}).Info("Data channel closed")
		h.HandleClose()
	})
	d.dc.OnError(func(err error) {
		logrus.WithFields(logrus.Fields{
			"function": "DataChannel.OnError",
			"label":    label,
			"error":    err.Error(),
		}).Error("Data channel error")
		h.HandleError(err)
	})
}

// Close closes the data channel.
func (d *DataChannel) Close() error {
	return d.dc.Close()
}
