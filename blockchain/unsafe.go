package blockchain

// The setters in this file break blocks on purpose. They exist so tests and
// tooling can simulate tampering; nothing on a normal code path calls them.
// Neither re-mines: after UnsafeSetPayload the block usually fails IsValid
// and the next block's stored previous hash no longer matches. After
// UnsafeSetPreviousHash the linkage can be restored while the proof-of-work
// stays broken.

// UnsafeSetPayload overwrites the payload of b.
func (b *Block) UnsafeSetPayload(payload string) {
	b.payload = payload
}

// UnsafeSetPreviousHash overwrites the stored previous hash of b.
func (b *Block) UnsafeSetPreviousHash(hash string) {
	b.setPreviousHash(hash)
}

func (b *Block) setPreviousHash(hash string) {
	b.previousHash = hash
}
