package pulsecore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseModargs(t *testing.T) {
	tests := []struct {
		name    string
		arg     string
		valid   []string
		want    Modargs
		wantErr bool
	}{
		{name: "empty", arg: "", want: Modargs{}},
		{name: "blank", arg: "  \t", want: Modargs{}},
		{name: "plain", arg: "rate=44100 channels=2", want: Modargs{"rate": "44100", "channels": "2"}},
		{name: "single quotes", arg: "name='my source' x=1", want: Modargs{"name": "my source", "x": "1"}},
		{name: "double quotes", arg: `file="/tmp/a b.wav"`, want: Modargs{"file": "/tmp/a b.wav"}},
		{name: "empty value", arg: "a= b=2", want: Modargs{"a": "", "b": "2"}},
		{name: "valid keys", arg: "rate=1", valid: []string{"rate"}, want: Modargs{"rate": "1"}},
		{name: "unknown key", arg: "bogus=1", valid: []string{"rate"}, wantErr: true},
		{name: "duplicate", arg: "a=1 a=2", wantErr: true},
		{name: "missing value", arg: "flag", wantErr: true},
		{name: "missing key", arg: "=1", wantErr: true},
		{name: "unterminated", arg: "a='oops", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseModargs(tt.arg, tt.valid)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidModargs)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestModargs_Getters(t *testing.T) {
	ma, err := ParseModargs("rate=48000 bad=x on=true", nil)
	require.NoError(t, err)

	require.Equal(t, "x", ma.Get("bad", "d"))
	require.Equal(t, "d", ma.Get("missing", "d"))

	n, err := ma.GetUint32("rate", 1)
	require.NoError(t, err)
	require.Equal(t, uint32(48000), n)

	n, err = ma.GetUint32("missing", 7)
	require.NoError(t, err)
	require.Equal(t, uint32(7), n)

	_, err = ma.GetUint32("bad", 0)
	require.ErrorIs(t, err, ErrInvalidModargs)

	b, err := ma.GetBool("on", false)
	require.NoError(t, err)
	require.True(t, b)
	_, err = ma.GetBool("bad", false)
	require.ErrorIs(t, err, ErrInvalidModargs)
}

func TestModargs_GetSampleSpec(t *testing.T) {
	def := SampleSpec{Format: SampleS16LE, Rate: 44100, Channels: 2}

	ma, err := ParseModargs("rate=8000 channels=1 format=float32ne", nil)
	require.NoError(t, err)
	ss, err := ma.GetSampleSpec(def)
	require.NoError(t, err)
	require.Equal(t, SampleSpec{Format: SampleFloat32NE, Rate: 8000, Channels: 1}, ss)

	ss, err = Modargs{}.GetSampleSpec(def)
	require.NoError(t, err)
	require.Equal(t, def, ss)

	for _, arg := range []string{"channels=0", "channels=300", "rate=0", "format=alaw"} {
		ma, err := ParseModargs(arg, nil)
		require.NoError(t, err)
		_, err = ma.GetSampleSpec(def)
		require.ErrorIs(t, err, ErrInvalidSampleSpec, arg)
	}
}
