package entropy

import (
	"context"
	crand "crypto/rand"
	"fmt"
)

// OSRandomBytes is the fixed chunk length drawn from the host CSPRNG per request.
const OSRandomBytes = 32

// OSRandom draws bytes from the operating system's CSPRNG. It is the one
// source the service refuses to run without: Verify is called at startup and
// a failure there is fatal.
type OSRandom struct{}

func NewOSRandom() *OSRandom {
	return &OSRandom{}
}

func (o *OSRandom) Name() string {
	return "os_random"
}

func (o *OSRandom) Collect(ctx context.Context) ([]byte, error) {
	buf := make([]byte, OSRandomBytes)
	if _, err := crand.Read(buf); err != nil {
		return nil, fmt.Errorf("os random read failed: %w", err)
	}
	return buf, nil
}

// Verify checks that the host CSPRNG is usable. Call once at startup; the
// process must not come up if this fails.
func (o *OSRandom) Verify() error {
	_, err := o.Collect(context.Background())
	return err
}
