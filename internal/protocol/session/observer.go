package session

// Observer receives session counters. Implementations must be safe for
// concurrent use.
type Observer interface {
	DocumentDecoded()
	ParseFailed()
	Overflow(discarded int)
	Sent(bytes int)
	SendFailed()
	WouldBlock()
}

type nopObserver struct{}

func (nopObserver) DocumentDecoded() {}
func (nopObserver) ParseFailed()     {}
func (nopObserver) Overflow(int)     {}
func (nopObserver) Sent(int)         {}
func (nopObserver) SendFailed()      {}
func (nopObserver) WouldBlock()      {}
