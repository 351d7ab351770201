package notify

import (
	"github.com/opd-ai/peerdrop/session"
	"github.com/sirupsen/logrus"
)

// Logger writes every event to a logrus entry.
type Logger struct {
	entry *logrus.Entry
}

// NewLogger returns a Logger writing to entry, or to the standard logger if entry is nil.
func NewLogger(entry *logrus.Entry) *Logger {
	if entry == nil {
		entry = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Logger{entry: entry}
}

// FileReceived implements Notifier.
func (l *Logger) FileReceived(sessionID string, f ReceivedFile) {
	l.entry.WithFields(logrus.Fields{
		"function":   "FileReceived",
		"session_id": sessionID,
		"file_name":  f.Name,
		"file_type":  f.Type,
		"file_size":  len(f.Data),
		"path":       f.Path,
	}).Info("File received")
}

// TransferProgress implements Notifier.
func (l *Logger) TransferProgress(sessionID string, percent int) {
	l.entry.WithFields(logrus.Fields{
		"function":   "TransferProgress",
		"session_id": sessionID,
		"percent":    percent,
	}).Debug("Transfer progress")
}

// SessionStatusChanged implements Notifier.
func (l *Logger) SessionStatusChanged(sessionID string, status session.Status) {
	l.entry.WithFields(logrus.Fields{
		"function":   "SessionStatusChanged",
		"session_id": sessionID,
		"status":     status.String(),
	}).Info("Session status changed")
}

// TransportError implements Notifier.
func (l *Logger) TransportError(sessionID string, err error) {
	l.entry.WithFields(logrus.Fields{
		"function":   "TransportError",
		"session_id": sessionID,
		"error":      errString(err),
	}).Error("Transport error")
}

// TransferFailed implements Notifier.
func (l *Logger) TransferFailed(sessionID, fileName string, err error) {
	l.entry.WithFields(logrus.Fields{
		"function":   "TransferFailed",
		"session_id": sessionID,
		"file_name":  fileName,
		"error":      errString(err),
	}).Warn("Transfer failed")
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
