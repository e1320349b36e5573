package dispatcher

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talehto/voice-alarm-app/internal/waketimer"
)

// fakeStarter records announced ids.
type fakeStarter struct {
	ids []int64
}

func (f *fakeStarter) Announce(id int64) {
	f.ids = append(f.ids, id)
}

// TestOnFire_ValidPayload hands the decoded id to the starter.
func TestOnFire_ValidPayload(t *testing.T) {
	t.Parallel()

	starter := &fakeStarter{}
	d := New(starter)

	d.OnFire(waketimer.EncodePayload(42))

	require.Equal(t, []int64{42}, starter.ids)
}

// TestOnFire_MalformedPayloads are dropped without starting anything and
// without panicking.
func TestOnFire_MalformedPayloads(t *testing.T) {
	t.Parallel()

	starter := &fakeStarter{}
	d := New(starter)

	for _, payload := range [][]byte{
		nil,
		{},
		[]byte("not json"),
		[]byte(`{}`),
		[]byte(`{"alarm_id": 0}`),
		[]byte(`{"alarm_id": -3}`),
		[]byte(`{"alarm_id": "seven"}`),
	} {
		d.OnFire(payload)
	}

	require.Empty(t, starter.ids)
}
