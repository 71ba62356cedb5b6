package normalize

import (
	"fmt"
	"hash/fnv"
	"time"

	"github.com/shopspring/decimal"
)

// Signature hashes (userID, vendor, amount, date) into a duplicate
// signature. It is intentionally coarse: two charges with identical vendor,
// amount, and posted date collide, which is this system's definition of a
// duplicate.
func Signature(userID, vendor string, amount decimal.Decimal, date time.Time) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%s|%s", userID, vendor, amount.StringFixed(2), date.Format("2006-01-02"))
	return h.Sum64()
}
