package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackIndividual(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    uint16
		wantErr bool
	}{
		{name: "min", in: "0.0.0", want: 0x0000},
		{name: "max", in: "15.15.255", want: 0xFFFF},
		{name: "typical", in: "1.1.5", want: 0x1105},
		{name: "area out of range", in: "16.0.0", wantErr: true},
		{name: "line out of range", in: "0.16.0", wantErr: true},
		{name: "device out of range", in: "0.0.256", wantErr: true},
		{name: "wrong field count", in: "1.1", wantErr: true},
		{name: "non numeric", in: "a.b.c", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Pack(tt.in, Individual)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPackGroup3Level(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    uint16
		wantErr bool
	}{
		{name: "min", in: "0/0/0", want: 0x0000},
		{name: "max", in: "31/7/255", want: 0xFFFF},
		{name: "typical", in: "1/2/3", want: 0x0A03},
		{name: "main out of range", in: "32/0/0", wantErr: true},
		{name: "middle out of range", in: "0/8/0", wantErr: true},
		{name: "sub out of range", in: "0/0/256", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Pack(tt.in, Group3Level)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPackGroup2Level(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    uint16
		wantErr bool
	}{
		{name: "min", in: "0/0", want: 0x0000},
		{name: "max", in: "31/2047", want: 0xFFFF},
		{name: "sub out of range", in: "0/2048", wantErr: true},
		{name: "main out of range", in: "32/0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Pack(tt.in, Group2Level)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	forms := []struct {
		form Form
		strs []string
	}{
		{Individual, []string{"0.0.0", "15.15.255", "1.1.5", "8.2.200"}},
		{Group3Level, []string{"0/0/0", "31/7/255", "1/2/3", "2/0/1"}},
		{Group2Level, []string{"0/0", "31/2047", "1/512"}},
	}

	for _, f := range forms {
		for _, s := range f.strs {
			v, err := Pack(s, f.form)
			require.NoError(t, err)
			got, err := Unpack(v, f.form)
			require.NoError(t, err)
			assert.Equal(t, s, got)
		}
	}
}
