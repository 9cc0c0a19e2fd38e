// Package serial provides the bounded-timeout serial boundary for the
// sensor link.
//
// The upstream sensor writes fixed ASCII lines ("Current reading: <float> A")
// at its own pace; the bridge performs one bounded read per publish cycle.
// A read that times out with zero bytes is a quiet cycle, not an error;
// the synthetic channels still publish.
//
// The real device is driven through go.bug.st/serial (115200 8N1 by
// default). Consumers depend only on the small Port interface so tests can
// inject scripted fakes.
package serial
