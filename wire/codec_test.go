package wire_test

import (
	"bytes"
	"testing"

	"github.com/bramblewire/securelink/wire"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := wire.Header{
		Version:        wire.ProtocolVersion,
		Type:           wire.MessageTypeData,
		SequenceNumber: 42,
		TimestampUnix:  1732000000,
		PayloadSize:    123,
		Flags:          0,
	}
	buf := wire.EncodeHeader(h)
	require.Len(t, buf, wire.HeaderSize)

	got, err := wire.DecodeHeader(buf)
	require.NoError(t, err)
	require.Equal(t, h, got)
}

func TestDecodeHeaderRejectsWrongLength(t *testing.T) {
	_, err := wire.DecodeHeader(make([]byte, wire.HeaderSize-1))
	require.Error(t, err)
	var me *wire.ErrMalformed
	require.ErrorAs(t, err, &me)
}

func TestDecodeHeaderRejectsOversizedPayload(t *testing.T) {
	h := wire.Header{PayloadSize: wire.MaxMessageSize + 1}
	buf := wire.EncodeHeader(h)
	_, err := wire.DecodeHeader(buf)
	require.Error(t, err)
}

func TestHandshakeRecordRoundTrip(t *testing.T) {
	var r wire.HandshakeRecord
	r.ClientID = 0xAABBCCDD
	copy(r.SessionID[:], bytes.Repeat([]byte{0x11}, wire.SessionIDSize))
	r.ForwardSecrecyMode = wire.ForwardSecrecyPerfect
	copy(r.EphemeralPublicKey[:], bytes.Repeat([]byte{0x22}, wire.DHPublicKeySize))
	copy(r.Nonce[:], bytes.Repeat([]byte{0x33}, wire.IVSize))
	r.Signature = bytes.Repeat([]byte{0x44}, wire.SignatureSize)

	buf := wire.EncodeHandshakeRecord(r)
	got, err := wire.DecodeHandshakeRecord(buf)
	require.NoError(t, err)

	r.SignatureLength = uint16(len(r.Signature))
	require.Equal(t, r, got)
}

func TestHandshakeRecordRoundTripShortSignature(t *testing.T) {
	// Ed25519 and compact secp256k1 signatures are shorter than RSA-2048's;
	// the codec must not assume SignatureSize.
	var r wire.HandshakeRecord
	r.Signature = bytes.Repeat([]byte{0x55}, 64)

	buf := wire.EncodeHandshakeRecord(r)
	got, err := wire.DecodeHandshakeRecord(buf)
	require.NoError(t, err)
	require.Equal(t, 64, len(got.Signature))
}

func TestDecodeHandshakeRecordRejectsTruncated(t *testing.T) {
	var r wire.HandshakeRecord
	r.Signature = bytes.Repeat([]byte{0x66}, wire.SignatureSize)
	buf := wire.EncodeHandshakeRecord(r)

	_, err := wire.DecodeHandshakeRecord(buf[:len(buf)-10])
	require.Error(t, err)
}

func TestDecodeHandshakeRecordRejectsTrailingBytes(t *testing.T) {
	var r wire.HandshakeRecord
	buf := wire.EncodeHandshakeRecord(r)
	buf = append(buf, 0xFF)

	_, err := wire.DecodeHandshakeRecord(buf)
	require.Error(t, err)
}

func TestEncryptedRecordRoundTrip(t *testing.T) {
	var r wire.EncryptedRecord
	copy(r.SessionID[:], bytes.Repeat([]byte{0x77}, wire.SessionIDSize))
	r.MessageID = 7
	copy(r.IV[:], bytes.Repeat([]byte{0x88}, wire.IVSize))
	r.Ciphertext = []byte("ciphertext-and-tag-bytes-here-0123456789")

	buf := wire.EncodeEncryptedRecord(r)
	got, err := wire.DecodeEncryptedRecord(buf)
	require.NoError(t, err)
	require.Equal(t, r, got)
}

func TestDecodeEncryptedRecordRejectsShort(t *testing.T) {
	_, err := wire.DecodeEncryptedRecord(make([]byte, 3))
	require.Error(t, err)
}

func TestErrorRecordRoundTrip(t *testing.T) {
	for _, code := range []wire.ErrorCode{
		wire.ErrorCodeProtocolError,
		wire.ErrorCodeBadSignature,
		wire.ErrorCodeDecryptFail,
		wire.ErrorCodeReplay,
		wire.ErrorCodeTimeout,
		wire.ErrorCodeDuplicateSession,
		wire.ErrorCodeInternal,
	} {
		buf := wire.EncodeErrorRecord(wire.ErrorRecord{Code: code})
		got, err := wire.DecodeErrorRecord(buf)
		require.NoError(t, err)
		require.Equal(t, code, got.Code)
	}
}

func TestDecodeErrorRecordRejectsWrongLength(t *testing.T) {
	_, err := wire.DecodeErrorRecord([]byte{1, 2, 3})
	require.Error(t, err)
}
