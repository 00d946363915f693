package websocket

import (
	"context"
	"errors"
	"testing"
	"time"

	"ai-ghostwriter-be/internal/editor"
	"ai-ghostwriter-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// idleScheduler never fires, so no completion is ever requested.
type idleScheduler struct{}

type idleTimer struct{}

func (idleTimer) Stop() bool { return true }

func (idleScheduler) AfterFunc(d time.Duration, f func()) editor.Timer { return idleTimer{} }

type fakeAuthorizer struct {
	owned map[string]bool
	err   error
}

func (f *fakeAuthorizer) OwnedSourceIDs(ctx context.Context, ownerId string, ids []string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	res := []string{}
	for _, id := range ids {
		if f.owned[id] {
			res = append(res, id)
		}
	}
	return res, nil
}

func newTestSession() *editor.Session {
	return editor.NewSession("s1", "u1", editor.DefaultConfig(), editor.Dependencies{Scheduler: idleScheduler{}})
}

func TestDispatch(t *testing.T) {
	tests := []struct {
		name    string
		frames  []string
		wantErr error
		check   func(t *testing.T, snap editor.Snapshot)
	}{
		{
			name:   "input replaces document",
			frames: []string{`{"type":"input","text":"hello","cursor":5}`},
			check: func(t *testing.T, snap editor.Snapshot) {
				assert.Equal(t, "hello", snap.Text)
				assert.Equal(t, 5, snap.Cursor)
			},
		},
		{
			name:   "cursor clamps",
			frames: []string{`{"type":"input","text":"hello","cursor":5}`, `{"type":"cursor","cursor":99}`},
			check:  func(t *testing.T, snap editor.Snapshot) { assert.Equal(t, 5, snap.Cursor) },
		},
		{
			name:   "tab without suggestion is harmless",
			frames: []string{`{"type":"input","text":"hi","cursor":2}`, `{"type":"key","key":"Tab"}`},
			check:  func(t *testing.T, snap editor.Snapshot) { assert.Equal(t, "hi", snap.Text) },
		},
		{
			name:   "escape",
			frames: []string{`{"type":"key","key":"Escape"}`},
		},
		{
			name:   "stop while idle",
			frames: []string{`{"type":"stop"}`},
			check:  func(t *testing.T, snap editor.Snapshot) { assert.Equal(t, "idle", snap.State) },
		},
		{
			name:    "malformed",
			frames:  []string{`{"type":`},
			wantErr: ErrMalformedMessage,
		},
		{
			name:    "unknown type",
			frames:  []string{`{"type":"paste"}`},
			wantErr: ErrUnknownMessage,
		},
		{
			name:    "unknown key",
			frames:  []string{`{"type":"key","key":"Enter"}`},
			wantErr: ErrUnknownKey,
		},
		{
			name:    "empty selection",
			frames:  []string{`{"type":"input","text":"hello","cursor":5}`, `{"type":"select_modify","start":2,"end":2,"instruction":"fix"}`},
			wantErr: editor.ErrInvalidSelection,
		},
		{
			name:    "blank instruction",
			frames:  []string{`{"type":"input","text":"hello","cursor":5}`, `{"type":"select_modify","start":0,"end":5,"instruction":"  "}`},
			wantErr: editor.ErrEmptyInstruction,
		},
		{
			name:    "accept without modification",
			frames:  []string{`{"type":"accept_modification"}`},
			wantErr: editor.ErrNoModification,
		},
		{
			name:    "reject without modification",
			frames:  []string{`{"type":"reject_modification"}`},
			wantErr: editor.ErrNoModification,
		},
		{
			name:   "configure keeps owned sources",
			frames: []string{`{"type":"configure","source_ids":["mine","theirs"],"model":"gpt-4o-mini"}`},
			check: func(t *testing.T, snap editor.Snapshot) {
				assert.Equal(t, []string{"mine"}, snap.Sources)
				assert.Equal(t, "gpt-4o-mini", snap.Model)
			},
		},
		{
			name:    "configure with no owned sources",
			frames:  []string{`{"type":"configure","source_ids":["theirs"]}`},
			wantErr: ErrNoOwnedSources,
		},
		{
			name:   "configure without sources clears the scope",
			frames: []string{`{"type":"configure","source_ids":["mine"]}`, `{"type":"configure","source_ids":[]}`},
			check: func(t *testing.T, snap editor.Snapshot) {
				assert.Empty(t, snap.Sources)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDispatcher(&fakeAuthorizer{owned: map[string]bool{"mine": true}}, logger.NewNopLogger())
			session := newTestSession()
			defer session.Close()

			var err error
			for _, frame := range tt.frames {
				if err = d.Dispatch(context.Background(), session, []byte(frame)); err != nil {
					break
				}
			}

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, IsClientError(err))
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, session.Snapshot())
			}
		})
	}
}

func TestDispatch_ConfigureForeignSourcesKeepsScope(t *testing.T) {
	d := NewDispatcher(&fakeAuthorizer{owned: map[string]bool{"mine": true}}, logger.NewNopLogger())
	session := newTestSession()
	defer session.Close()

	require.NoError(t, d.Dispatch(context.Background(), session, []byte(`{"type":"configure","source_ids":["mine"]}`)))
	err := d.Dispatch(context.Background(), session, []byte(`{"type":"configure","source_ids":["theirs","other"]}`))

	assert.ErrorIs(t, err, ErrNoOwnedSources)
	assert.Equal(t, []string{"mine"}, session.Snapshot().Sources)
}

func TestDispatch_ConfigureAuthorizerFailure(t *testing.T) {
	boom := errors.New("db down")
	d := NewDispatcher(&fakeAuthorizer{err: boom}, logger.NewNopLogger())
	session := newTestSession()
	defer session.Close()

	err := d.Dispatch(context.Background(), session, []byte(`{"type":"configure","source_ids":["a"]}`))
	assert.ErrorIs(t, err, boom)
	assert.False(t, IsClientError(err))
	assert.Empty(t, session.Snapshot().Sources)
}
