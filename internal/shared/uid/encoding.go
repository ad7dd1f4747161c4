package uid

import (
	"fmt"
	"strconv"
	"strings"

	bwsnowflake "github.com/bwmarrin/snowflake"
)

// Encoding is a textual representation of a snowflake id. The codecs come
// from bwmarrin/snowflake, whose bit layout matches ours, except hex which
// it does not provide.
type Encoding string

const (
	EncodingDecimal Encoding = "decimal"
	EncodingBase2   Encoding = "base2"
	EncodingBase32  Encoding = "base32"
	EncodingBase36  Encoding = "base36"
	EncodingBase58  Encoding = "base58"
	EncodingBase64  Encoding = "base64"
	EncodingHex     Encoding = "hex"
)

// ParseEncoding normalizes an encoding name. Empty input yields EncodingDecimal.
func ParseEncoding(value string) (Encoding, error) {
	enc := Encoding(strings.TrimSpace(strings.ToLower(value)))
	switch enc {
	case "", "int", "int64":
		return EncodingDecimal, nil
	case EncodingDecimal, EncodingBase2, EncodingBase32, EncodingBase36, EncodingBase58, EncodingBase64, EncodingHex:
		return enc, nil
	default:
		return "", fmt.Errorf("uid: unknown encoding %q", value)
	}
}

// Format renders id in the given encoding.
func Format(id int64, enc Encoding) (string, error) {
	sf := bwsnowflake.ParseInt64(id)
	switch enc {
	case "", EncodingDecimal:
		return sf.String(), nil
	case EncodingBase2:
		return sf.Base2(), nil
	case EncodingBase32:
		return sf.Base32(), nil
	case EncodingBase36:
		return sf.Base36(), nil
	case EncodingBase58:
		return sf.Base58(), nil
	case EncodingBase64:
		return sf.Base64(), nil
	case EncodingHex:
		return strconv.FormatInt(id, 16), nil
	default:
		return "", fmt.Errorf("uid: unknown encoding %q", enc)
	}
}

// Parse converts a formatted id back to its integer value.
func Parse(value string, enc Encoding) (int64, error) {
	value = strings.TrimSpace(value)

	var (
		sf  bwsnowflake.ID
		err error
	)
	switch enc {
	case "", EncodingDecimal:
		sf, err = bwsnowflake.ParseString(value)
	case EncodingBase2:
		sf, err = bwsnowflake.ParseBase2(value)
	case EncodingBase32:
		sf, err = bwsnowflake.ParseBase32([]byte(value))
	case EncodingBase36:
		sf, err = bwsnowflake.ParseBase36(value)
	case EncodingBase58:
		sf, err = bwsnowflake.ParseBase58([]byte(value))
	case EncodingBase64:
		sf, err = bwsnowflake.ParseBase64(value)
	case EncodingHex:
		var n int64
		n, err = strconv.ParseInt(strings.TrimPrefix(value, "0x"), 16, 64)
		sf = bwsnowflake.ParseInt64(n)
	default:
		return 0, fmt.Errorf("uid: unknown encoding %q", enc)
	}
	if err != nil {
		return 0, fmt.Errorf("uid: failed to parse %s id %q: %w", enc, value, err)
	}
	return sf.Int64(), nil
}
