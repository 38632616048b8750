package tradedata

import (
	"bytes"
	"errors"

	"github.com/fox-one/msgpack"
	"github.com/shopspring/decimal"
)

// Encode packs values in order
func Encode(values ...interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	for _, v := range values {
		if err := enc.Encode(v); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// Scan unpacks body into dst in order
func Scan(body []byte, dst ...interface{}) error {
	dec := msgpack.NewDecoder(bytes.NewReader(body))
	for _, v := range dst {
		if err := dec.Decode(v); err != nil {
			return err
		}
	}

	return nil
}

// Unwrapper trade data of an async unwrapper hop or a liquidation withdrawal
type Unwrapper struct {
	MinOutput decimal.Decimal
	// executed withdrawal keys consumed by the hop
	Keys []string
}

// EncodeUnwrapper pack min output & keys
func EncodeUnwrapper(data Unwrapper) []byte {
	min := data.MinOutput
	if min.IsNegative() {
		min = decimal.Zero
	}

	body, err := Encode(min.String(), data.Keys)
	if err != nil {
		return nil
	}

	return body
}

// DecodeUnwrapper empty body decodes as zero min output without keys
func DecodeUnwrapper(body []byte) (*Unwrapper, error) {
	data := &Unwrapper{MinOutput: decimal.Zero}
	if len(body) == 0 {
		return data, nil
	}

	var (
		min  string
		keys []string
	)

	if err := Scan(body, &min, &keys); err != nil {
		return nil, err
	}

	v, err := decimal.NewFromString(min)
	if err != nil {
		return nil, err
	}

	if v.IsNegative() {
		return nil, errors.New("negative min output")
	}

	data.MinOutput = v
	data.Keys = keys
	return data, nil
}
