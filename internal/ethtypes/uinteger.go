package ethtypes

import (
	"strconv"

	"github.com/goccy/go-json"
)

// Uinteger unmarshals the beacon REST dialect's habit of encoding large
// integers (slots, epochs, validator indices, balances) as JSON strings
// rather than JSON numbers, while still marshaling back out the same way.
type Uinteger uint64

func (i Uinteger) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatUint(uint64(i), 10))
}

func (i *Uinteger) UnmarshalJSON(data []byte) error {
	// Most beacon responses quote the value; tolerate a bare number too.
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		value, err := strconv.ParseUint(asString, 10, 64)
		if err != nil {
			return err
		}
		*i = Uinteger(value)
		return nil
	}

	var asNumber uint64
	if err := json.Unmarshal(data, &asNumber); err != nil {
		return err
	}
	*i = Uinteger(asNumber)
	return nil
}

func (i Uinteger) String() string {
	return strconv.FormatUint(uint64(i), 10)
}
