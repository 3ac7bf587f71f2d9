package store

import (
	"encoding/binary"
	"time"

	"github.com/vmihailenco/msgpack/v4"
)

func tsToBytes(ts time.Time) []byte {
	buf := make([]byte, 8)
	d := ts.UnixNano()
	binary.BigEndian.PutUint64(buf, uint64(d))
	return buf
}

func msgpackMarshalPanic(val interface{}) []byte {
	b, err := msgpack.Marshal(val)
	if err != nil {
		panic(err)
	}
	return b
}

func msgpackUnmarshal(b []byte, val interface{}) error {
	return msgpack.Unmarshal(b, val)
}
