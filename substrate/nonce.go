package substrate

// nonceTracker hands out account nonces for extrinsics this client submits.
// The node only reports nonces it has seen, so an extrinsic accepted into the
// pool but not yet visible there must not have its nonce handed out again.
// Callers hold Client.nonceMu.
type nonceTracker struct {
	next  uint64
	valid bool
}

// allocate returns the nonce for the next extrinsic given the node's view.
func (n *nonceTracker) allocate(onChain uint64) uint64 {
	nonce := onChain
	if n.valid && n.next > nonce {
		nonce = n.next
	}
	n.next = nonce + 1
	n.valid = true
	return nonce
}

// release gives back nonce after the node rejected its extrinsic, if no
// later nonce has been handed out since.
func (n *nonceTracker) release(nonce uint64) {
	if n.valid && n.next == nonce+1 {
		n.next = nonce
	}
}
