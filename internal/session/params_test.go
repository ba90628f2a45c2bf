package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewParameters_Defaults(t *testing.T) {
	p := NewParameters(&memoryParamStore{}, DefaultWindowSize, DefaultSaveInterval, zaptest.NewLogger(t))
	n, b := p.Get()
	assert.Equal(t, 10, n)
	assert.Equal(t, 5, b)
}

func TestNewParameters_LoadsAndClampsStoredValues(t *testing.T) {
	store := &memoryParamStore{n: 250, b: 0, stored: true}
	p := NewParameters(store, DefaultWindowSize, DefaultSaveInterval, zaptest.NewLogger(t))
	n, b := p.Get()
	assert.Equal(t, MaxWindowSize, n)
	assert.Equal(t, MinSaveInterval, b)
}

func TestNewParameters_LoadErrorFallsBackToDefaults(t *testing.T) {
	store := &memoryParamStore{n: 20, b: 20, stored: true, loadErr: errors.New("corrupt")}
	p := NewParameters(store, 7, 9, zaptest.NewLogger(t))
	n, b := p.Get()
	assert.Equal(t, 7, n)
	assert.Equal(t, 9, b)
}

func TestParameters_SetClampsAndReportsChange(t *testing.T) {
	tests := []struct {
		name        string
		n, b        int
		wantN       int
		wantB       int
		wantChanged bool
	}{
		{name: "unchanged", n: 10, b: 5, wantN: 10, wantB: 5, wantChanged: false},
		{name: "window only", n: 20, b: 5, wantN: 20, wantB: 5, wantChanged: true},
		{name: "interval only", n: 10, b: 60, wantN: 10, wantB: 60, wantChanged: true},
		{name: "clamped high", n: 500, b: 5000, wantN: 99, wantB: 999, wantChanged: true},
		{name: "clamped low", n: -3, b: 0, wantN: 1, wantB: 1, wantChanged: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memoryParamStore{}
			p := NewParameters(store, 10, 5, zaptest.NewLogger(t))

			changed := p.Set(tt.n, tt.b)
			n, b := p.Get()
			assert.Equal(t, tt.wantChanged, changed)
			assert.Equal(t, tt.wantN, n)
			assert.Equal(t, tt.wantB, b)

			if tt.wantChanged {
				require.Equal(t, 1, store.saves)
				assert.Equal(t, tt.wantN, store.n)
				assert.Equal(t, tt.wantB, store.b)
			} else {
				assert.Zero(t, store.saves)
			}
		})
	}
}

func TestParameters_PersistFailureKeepsNewValues(t *testing.T) {
	store := &memoryParamStore{saveErr: errors.New("read-only")}
	p := NewParameters(store, 10, 5, zaptest.NewLogger(t))

	assert.True(t, p.Set(3, 30))
	n, b := p.Get()
	assert.Equal(t, 3, n)
	assert.Equal(t, 30, b)
	assert.Equal(t, 3, p.WindowSize())
}

func TestParameters_PersistSkipsStaleRevision(t *testing.T) {
	store := &memoryParamStore{}
	p := NewParameters(store, 10, 5, zaptest.NewLogger(t))

	_, older := p.apply(11, 5)
	_, newer := p.apply(12, 5)
	p.persist(newer)
	p.persist(older)

	assert.Equal(t, 1, store.saves)
	assert.Equal(t, 12, store.n)
}

func TestParameters_NilStore(t *testing.T) {
	p := NewParameters(nil, 10, 5, zaptest.NewLogger(t))
	assert.True(t, p.Set(11, 6))
	assert.False(t, p.Set(11, 6))
}
