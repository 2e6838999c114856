package dedup

import (
	"hash/fnv"

	"github.com/agentstation/caremap/pkg/schema"
	"github.com/agentstation/caremap/pkg/transform"
)

// Key is the identity of a provider: phone digits and first address line.
type Key struct {
	Phone    string
	Address1 string
}

// String renders the key for logs.
func (k Key) String() string {
	return k.Phone + "|" + k.Address1
}

// KeyOf returns the identity key of a record. It reports false when phone
// or address1 is null; such a record has no comparable identity. Phones are
// compared by their digits, so a phone without digits keys as "". address1
// is compared exactly, case and whitespace included.
func KeyOf(rec *schema.Record) (Key, bool) {
	phone := rec.Get(schema.FieldPhone)
	addr := rec.Get(schema.FieldAddress1)
	if phone.IsNull() || addr.IsNull() {
		return Key{}, false
	}

	return Key{Phone: transform.NormalizePhone(phone.Text()), Address1: addr.Text()}, true
}

// hashKey produces a uint64 hash of the key using FNV-1a.
func hashKey(k Key) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(k.Phone))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(k.Address1))
	return h.Sum64()
}
