package email

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNotifyFailure(t *testing.T) {
	n := NewSMTPNotifier("mailhog", 1025, "noreply@booktrailer.local", zap.NewNop())
	var gotAddr string
	var gotTo []string
	var gotMsg string
	n.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}

	require.NoError(t, n.NotifyFailure(context.Background(), "author@example.com", "job-1", "book-9", "voice synthesis is not configured"))
	assert.Equal(t, "mailhog:1025", gotAddr)
	assert.Equal(t, []string{"author@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: Your book trailer could not be generated [Book book-9]")
	assert.Contains(t, gotMsg, "Error: voice synthesis is not configured")
}

func TestNotifyFailure_SendError(t *testing.T) {
	n := NewSMTPNotifier("mailhog", 1025, "x@y", zap.NewNop())
	n.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("connection refused") }
	assert.Error(t, n.NotifyFailure(context.Background(), "a@b", "j", "b", "e"))
}

func TestNotifyFailure_Unconfigured(t *testing.T) {
	n := NewSMTPNotifier("", 1025, "x@y", zap.NewNop())
	n.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send must not be called without a host")
		return nil
	}
	assert.NoError(t, n.NotifyFailure(context.Background(), "a@b", "j", "b", "e"))
}
