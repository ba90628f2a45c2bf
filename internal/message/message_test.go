package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSample(t *testing.T) {
	tests := []struct {
		name    string
		enc     SampleEncoding
		data    []byte
		want    int
		wantErr error
	}{
		{name: "binary little endian", enc: EncodingBinary, data: []byte{0x26, 0x02}, want: 550},
		{name: "binary max", enc: EncodingBinary, data: []byte{0xff, 0xff}, want: 65535},
		{name: "binary short frame", enc: EncodingBinary, data: []byte{0x26}, wantErr: ErrInvalidSample},
		{name: "binary long frame", enc: EncodingBinary, data: []byte{1, 2, 3}, wantErr: ErrInvalidSample},
		{name: "text", enc: EncodingText, data: []byte(" 1234\r\n"), want: 1234},
		{name: "text zero", enc: EncodingText, data: []byte("0"), want: 0},
		{name: "text negative", enc: EncodingText, data: []byte("-7"), wantErr: ErrInvalidSample},
		{name: "text garbage", enc: EncodingText, data: []byte("12a"), wantErr: ErrInvalidSample},
		{name: "json", enc: EncodingJSON, data: []byte(`{"value": 812}`), want: 812},
		{name: "json negative", enc: EncodingJSON, data: []byte(`{"value": -3}`), wantErr: ErrInvalidSample},
		{name: "json fractional", enc: EncodingJSON, data: []byte(`{"value": 8.5}`), wantErr: ErrInvalidSample},
		{name: "json missing value", enc: EncodingJSON, data: []byte(`{"v": 1}`), wantErr: ErrMissingField},
		{name: "json string value", enc: EncodingJSON, data: []byte(`{"value": "1"}`), wantErr: ErrMissingField},
		{name: "json malformed", enc: EncodingJSON, data: []byte(`{"value":`), wantErr: ErrJSONUnmarshalFailed},
		{name: "unknown encoding", enc: "base64", data: []byte("AA=="), wantErr: ErrUnknownEncoding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeSample(tt.enc, tt.data)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeFrame(t *testing.T) {
	frame := EncodeFrame(1999)
	assert.Equal(t, []byte{0xcf, 0x07}, frame)
	assert.Equal(t, 1999, DecodeFrame(frame))
}

func TestParseSampleEncoding(t *testing.T) {
	enc, err := ParseSampleEncoding("json")
	require.NoError(t, err)
	assert.Equal(t, EncodingJSON, enc)

	_, err = ParseSampleEncoding("")
	require.ErrorIs(t, err, ErrUnknownEncoding)
}

func TestParseFix(t *testing.T) {
	lat, lon, err := ParseFix([]byte(`{"latitude": 47.4979, "longitude": 19.0402, "accuracy": 4}`))
	require.NoError(t, err)
	assert.Equal(t, 47.4979, lat)
	assert.Equal(t, 19.0402, lon)

	lat, lon, err = ParseFix([]byte(`{"lat": 0, "lng": 0}`))
	require.NoError(t, err, "the (0,0) sentinel is a valid message")
	assert.Zero(t, lat)
	assert.Zero(t, lon)

	_, _, err = ParseFix([]byte(`{"latitude": null, "longitude": 19}`))
	require.ErrorIs(t, err, ErrMissingField)

	_, _, err = ParseFix([]byte(`[1, 2]`))
	require.ErrorIs(t, err, ErrJSONUnmarshalFailed)
}

func TestDynamicMessage_GetFieldSnippet(t *testing.T) {
	msg := DynamicMessage{"note": "a very long description"}
	assert.Equal(t, "a very...", msg.GetFieldSnippet("note", 6))
	assert.Equal(t, "<missing>", msg.GetFieldSnippet("other", 6))
	assert.Equal(t, "...", msg.GetFieldSnippet("note", 0))
}
