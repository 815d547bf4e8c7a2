package idx

import (
	"crypto/rand"
	"encoding/base32"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ID is a ULID in canonical string form. IDs minted later sort after
// earlier ones.
type ID string

// lowerCrockford is Crockford's base32 alphabet in lowercase, so suffixes
// stay valid IRC nick/username characters.
var lowerCrockford = base32.NewEncoding("0123456789abcdefghjkmnpqrstvwxyz").WithPadding(base32.NoPadding)

var (
	globalOnce sync.Once
	global     *generator
)

// generator is a tool to safely generate ULIDs concurrently using a monotonic
// source.
type generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func (g *generator) NewAt(t time.Time) ID {
	g.mu.Lock()
	defer g.mu.Unlock()

	u := ulid.MustNew(ulid.Timestamp(t), g.entropy)
	return ID(u.String())
}

func initGlobal() {
	src := ulid.Monotonic(rand.Reader, 0) // Max Monotonic Window
	global = &generator{entropy: src}
}

// New returns a new lexicographically sortable ULID-based ID using the
// current time in UTC and a monotonic entropy source.
func New() ID {
	return NewAt(time.Now().UTC())
}

// NewAt generates an ID at the provided time (UTC), useful for tests.
func NewAt(t time.Time) ID {
	globalOnce.Do(initGlobal)
	return global.NewAt(t)
}

// Suffix returns n random lowercase base32 characters. Unlike ULIDs these
// carry no timestamp, so two suffixes minted in the same millisecond do not
// share a prefix.
func Suffix(n int) string {
	if n <= 0 {
		return ""
	}
	buf := make([]byte, (n*5+7)/8)
	_, _ = rand.Read(buf) // crypto/rand never returns an error on supported platforms
	return lowerCrockford.EncodeToString(buf)[:n]
}

// String returns the canonical string form.
func (id ID) String() string { return string(id) }
