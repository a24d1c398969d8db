package notify

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingSender struct {
	name     string
	messages []string
	err      error
}

func (r *recordingSender) Send(_ context.Context, message string) error {
	if r.err != nil {
		return r.err
	}
	r.messages = append(r.messages, message)
	return nil
}

func (r *recordingSender) Name() string { return r.name }

func TestNotifierFanOut(t *testing.T) {
	a := &recordingSender{name: "a"}
	b := &recordingSender{name: "b"}
	n := NewNotifier([]Sender{a, b}, discardLogger())

	require.NoError(t, n.Notify(context.Background(), "EDGE 0.032 | btc-70k-may31"))
	assert.Equal(t, []string{"EDGE 0.032 | btc-70k-may31"}, a.messages)
	assert.Equal(t, []string{"EDGE 0.032 | btc-70k-may31"}, b.messages)
}

func TestNotifierCollectsFailures(t *testing.T) {
	bad := &recordingSender{name: "bad", err: errors.New("boom")}
	good := &recordingSender{name: "good"}
	n := NewNotifier([]Sender{bad, good}, discardLogger())

	err := n.Notify(context.Background(), "msg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad: boom")
	assert.Equal(t, []string{"msg"}, good.messages, "failure does not block other senders")
}

func TestNotifierNoSenders(t *testing.T) {
	n := NewNotifier(nil, discardLogger())
	assert.NoError(t, n.Notify(context.Background(), "msg"))
}

func TestSlackSender(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		got = string(body)
	}))
	defer srv.Close()

	s := NewSlackSender(srv.URL)
	require.NoError(t, s.Send(context.Background(), "EDGE 0.070 | fomc-jun25"))
	assert.JSONEq(t, `{"text": "EDGE 0.070 | fomc-jun25"}`, got)
}

func TestSlackSenderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_payload", http.StatusBadRequest)
	}))
	defer srv.Close()

	s := NewSlackSender(srv.URL)
	err := s.Send(context.Background(), "msg")
	assert.ErrorContains(t, err, "status 400")
}

func TestStdoutSender(t *testing.T) {
	var buf bytes.Buffer
	s := &StdoutSender{w: &buf}

	require.NoError(t, s.Send(context.Background(), "hello"))
	assert.Equal(t, "hello\n", buf.String())
}
