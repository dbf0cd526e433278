package session

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sol1corejz/linkly/internal/client/clienttest"
	"github.com/sol1corejz/linkly/internal/validation"
)

func TestSession_ShortenSuccess(t *testing.T) {
	tests := []string{
		"https://example.com",
		"http://go.dev/doc?x=1",
		"https://www.google.com/search?q=go+lang",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			srv := clienttest.NewServer(t)
			s := New(srv.Client(t))
			assert.Equal(t, PhaseIdle, s.Snapshot().Phase)

			release := srv.Hold(http.MethodPost)
			done := make(chan error, 1)
			go func() {
				_, err := s.Shorten(context.Background(), input)
				done <- err
			}()

			assert.Eventually(t, func() bool {
				return s.Snapshot().IsLoading()
			}, time.Second, 5*time.Millisecond)

			release()
			require.NoError(t, <-done)

			st := s.Snapshot()
			assert.Equal(t, PhaseSuccess, st.Phase)
			require.NotNil(t, st.Result)
			assert.Equal(t, input, st.Result.OriginalURL)
			assert.Empty(t, st.Error)
		})
	}
}

func TestSession_InvalidInput(t *testing.T) {
	for _, input := range []string{"", "   ", "not a url", "example.com"} {
		t.Run(input, func(t *testing.T) {
			srv := clienttest.NewServer(t)
			s := New(srv.Client(t))

			rec, err := s.Shorten(context.Background(), input)
			assert.Nil(t, rec)

			var verr *validation.Error
			require.True(t, errors.As(err, &verr))

			st := s.Snapshot()
			assert.Equal(t, PhaseError, st.Phase)
			assert.Equal(t, "Please enter a valid URL", st.Error)
			assert.Equal(t, 0, srv.Calls(http.MethodPost))
		})
	}
}

func TestSession_RequestError(t *testing.T) {
	srv := clienttest.NewServer(t)
	srv.Fail(http.MethodPost, http.StatusBadRequest, `{"message":"URL is blocked"}`)
	s := New(srv.Client(t))

	_, err := s.Shorten(context.Background(), "https://example.com")
	require.Error(t, err)

	st := s.Snapshot()
	assert.Equal(t, PhaseError, st.Phase)
	assert.Equal(t, "URL is blocked", st.Error)
	assert.Nil(t, st.Result)
}

func TestSession_ClearIsIdempotent(t *testing.T) {
	srv := clienttest.NewServer(t)
	s := New(srv.Client(t))

	_, err := s.Shorten(context.Background(), "https://example.com")
	require.NoError(t, err)

	s.Clear()
	first := s.Snapshot()
	s.Clear()
	second := s.Snapshot()

	assert.Equal(t, PhaseIdle, first.Phase)
	assert.Nil(t, first.Result)
	assert.Empty(t, first.Error)
	assert.Equal(t, first, second)
}

func TestSession_ClearKeepsInFlightRequest(t *testing.T) {
	srv := clienttest.NewServer(t)
	s := New(srv.Client(t))

	release := srv.Hold(http.MethodPost)
	done := make(chan error, 1)
	go func() {
		_, err := s.Shorten(context.Background(), "https://example.com")
		done <- err
	}()
	require.Eventually(t, func() bool { return s.Snapshot().IsLoading() }, time.Second, 5*time.Millisecond)

	s.Clear()
	assert.True(t, s.Snapshot().IsLoading())

	release()
	require.NoError(t, <-done)
	assert.Equal(t, PhaseSuccess, s.Snapshot().Phase)
}

func TestSession_LatestRequestWins(t *testing.T) {
	srv := clienttest.NewServer(t)
	s := New(srv.Client(t))

	release := srv.Hold(http.MethodPost)
	defer release()

	first := make(chan error, 1)
	go func() {
		_, err := s.Shorten(context.Background(), "https://first.example")
		first <- err
	}()
	require.Eventually(t, func() bool { return srv.Calls(http.MethodPost) == 1 }, time.Second, 5*time.Millisecond)

	rec, err := s.Shorten(context.Background(), "https://second.example")
	require.NoError(t, err)
	assert.Equal(t, "https://second.example", rec.OriginalURL)

	assert.ErrorIs(t, <-first, ErrStale)

	st := s.Snapshot()
	assert.Equal(t, PhaseSuccess, st.Phase)
	assert.Equal(t, "https://second.example", st.Result.OriginalURL)
}

func TestSession_Close(t *testing.T) {
	srv := clienttest.NewServer(t)
	s := New(srv.Client(t))

	release := srv.Hold(http.MethodPost)
	defer release()

	done := make(chan error, 1)
	go func() {
		_, err := s.Shorten(context.Background(), "https://example.com")
		done <- err
	}()
	require.Eventually(t, func() bool { return s.Snapshot().IsLoading() }, time.Second, 5*time.Millisecond)

	s.Close()
	assert.ErrorIs(t, <-done, ErrStale)
	assert.True(t, s.Snapshot().IsLoading())

	_, err := s.Shorten(context.Background(), "https://example.com")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestState_Fresh(t *testing.T) {
	now := time.Now()
	st := State{Phase: PhaseSuccess, ChangedAt: now.Add(-time.Second)}
	assert.True(t, st.Fresh(now, 2*time.Second))
	assert.False(t, st.Fresh(now, 500*time.Millisecond))
	assert.True(t, st.Fresh(now, 0))
	assert.False(t, State{Phase: PhaseLoading, ChangedAt: now}.Fresh(now, time.Second))
}
