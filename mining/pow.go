package mining

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"golang.org/x/xerrors"
)

const (
	// Difficulty is the number of leading hex characters of a block hash
	// that have to equal Proof.
	Difficulty = 4
	// Proof is the target character of the hash prefix.
	Proof = '6'
)

// target is the hash prefix a solved block must start with.
var target = strings.Repeat(string(Proof), Difficulty)

// Job describes the block a nonce is searched for.
type Job struct {
	Index        uint64
	Payload      string
	PreviousHash string
}

// Solution is the outcome of a successful search.
type Solution struct {
	Job       Job
	Nonce     uint64
	Timestamp time.Time
}

// Digest returns the lowercase hex SHA-256 of index, payload, previous hash
// and nonce concatenated in that order. Integers are written in decimal.
func Digest(index uint64, payload, previousHash string, nonce uint64) string {
	return digest(prefix(index, payload, previousHash), nonce)
}

// MeetsTarget reports whether hash starts with Difficulty Proof characters.
func MeetsTarget(hash string) bool {
	return strings.HasPrefix(hash, target)
}

// Solve searches nonces from 1 upwards until the block hash meets the
// target. It does not return before a solution is found.
func Solve(index uint64, payload, previousHash string) Solution {
	job := Job{Index: index, Payload: payload, PreviousHash: previousHash}
	nonce, _ := search(job, nil)
	return Solution{Job: job, Nonce: nonce, Timestamp: time.Now()}
}

// SolveContext is Solve with cancellation. The search is abandoned as soon
// as ctx is done.
func SolveContext(ctx context.Context, job Job) (Solution, error) {
	nonce, ok := search(job, ctx.Done())
	if !ok {
		return Solution{}, xerrors.Errorf("mining block %d: %w", job.Index, ctx.Err())
	}
	return Solution{Job: job, Nonce: nonce, Timestamp: time.Now()}, nil
}

// search walks the nonce space. It returns false only if quit was closed
// before a solution was found.
func search(job Job, quit <-chan struct{}) (uint64, bool) {
	buf := prefix(job.Index, job.Payload, job.PreviousHash)
	n := len(buf)
	for nonce := uint64(1); ; nonce++ {
		select {
		case <-quit:
			return 0, false
		default:
			// Non-blocking select to fall through
		}
		buf = strconv.AppendUint(buf[:n], nonce, 10)
		sum := sha256.Sum256(buf)
		if MeetsTarget(hex.EncodeToString(sum[:Difficulty/2+1])) {
			return nonce, true
		}
	}
}

func prefix(index uint64, payload, previousHash string) []byte {
	buf := make([]byte, 0, 20+len(payload)+len(previousHash)+20)
	buf = strconv.AppendUint(buf, index, 10)
	buf = append(buf, payload...)
	return append(buf, previousHash...)
}

func digest(prefix []byte, nonce uint64) string {
	sum := sha256.Sum256(strconv.AppendUint(prefix, nonce, 10))
	return hex.EncodeToString(sum[:])
}
