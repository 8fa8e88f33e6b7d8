package p2p

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeMarshal(t *testing.T) {
	e := NewEnvelope(ModuleSync, Action(2), []byte{0, 0, 0, 0, 0, 0, 0, 9, 0, 0, 0, 64})
	bz := e.Marshal()

	require.Len(t, bz, HeadLength+12)
	assert.Equal(t, []byte{0x00, 0x00, 0x01, 0x02, 0x00, 0x00, 0x00, 0x0c}, bz[:HeadLength])

	got, err := UnmarshalEnvelope(bz)
	require.NoError(t, err)
	assert.Equal(t, e, got)
}

func TestUnmarshalEnvelopeErrors(t *testing.T) {
	testCases := []struct {
		name string
		bz   []byte
	}{
		{"empty", nil},
		{"short head", []byte{0, 0, 1, 2, 0}},
		{"body shorter than declared", []byte{0, 0, 1, 2, 0, 0, 0, 4, 0xaa}},
		{"body longer than declared", []byte{0, 0, 1, 2, 0, 0, 0, 0, 0xaa}},
		{"body too large", []byte{0, 0, 1, 2, 0xff, 0xff, 0xff, 0xff}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := UnmarshalEnvelope(tc.bz)
			assert.Error(t, err)
		})
	}
}

type recordingReceiver struct {
	src  []uint64
	envs []Envelope
}

func (r *recordingReceiver) Receive(src uint64, e Envelope) {
	r.src = append(r.src, src)
	r.envs = append(r.envs, e)
}

func TestMemNetwork(t *testing.T) {
	net := NewMemNetwork(nil)
	a, b := &recordingReceiver{}, &recordingReceiver{}
	ta := net.Join(1, a)
	net.Join(2, b)

	e := NewEnvelope(ModuleSync, Action(3), []byte{0xc0})
	require.NoError(t, ta.Send(2, e))
	require.Len(t, b.envs, 1)
	assert.Equal(t, uint64(1), b.src[0])
	assert.Equal(t, e, b.envs[0])
	assert.Empty(t, a.envs)

	assert.Error(t, ta.Send(3, e))

	net.Leave(2)
	assert.Error(t, ta.Send(2, e))
}
