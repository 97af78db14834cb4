// plan package identifies compiled statements by their shape and caches
// what the engine derives from them
package plan

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Key is the identity of a compiled statement. It depends only on the generated
// SQL and flags, never on bind values, so queries differing only in literal
// values share a plan.
type Key struct {
	SQL               string
	RawSQL            bool
	RowNumberIncluded bool
	LogWhereSQL       string
}

func NewKey(sql string, rawSQL bool, rowNumberIncluded bool, logWhereSQL string) Key {
	return Key{SQL: sql, RawSQL: rawSQL, RowNumberIncluded: rowNumberIncluded, LogWhereSQL: logWhereSQL}
}

func (k Key) Hash() uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(k.SQL)
	_, _ = d.Write([]byte{0, flag(k.RawSQL), flag(k.RowNumberIncluded), 0})
	_, _ = d.WriteString(k.LogWhereSQL)
	return d.Sum64()
}

func flag(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// PartialKey is the hash based form used in logs and summaries
func (k Key) PartialKey() string {
	return strconv.FormatUint(k.Hash(), 16) + "_0"
}

func (k Key) String() string {
	return k.PartialKey() + ":r"
}

// flightKey is unique per key, unlike the hash
func (k Key) flightKey() string {
	return k.SQL + "\x00" + string([]byte{'0' + flag(k.RawSQL), '0' + flag(k.RowNumberIncluded)}) + "\x00" + k.LogWhereSQL
}
