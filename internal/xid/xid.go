package xid

import (
	"fmt"

	"github.com/google/uuid"
)

// New returns a prefixed unique id, e.g. "cust-8f14e45f-ea3c-...".
// The prefix makes ids self-describing in logs and audit trails.
func New(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}
