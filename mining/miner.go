package mining

import (
	"sync"
	"time"

	"go.dedis.ch/onet/v3/log"
	"golang.org/x/xerrors"
)

// ErrBusy is returned by Start while a job is still being mined.
var ErrBusy = xerrors.New("miner is already running")

// Listener receives the solution of a finished job.
type Listener func(sol Solution)

// Miner runs one proof-of-work search at a time on a worker goroutine.
type Miner struct {
	sync.Mutex
	started  bool
	quit     chan struct{}
	callback Listener
}

// New returns an idle miner reporting solutions to callback.
func New(callback Listener) *Miner {
	return &Miner{
		callback: callback,
	}
}

// Start begins mining job in the background.
func (m *Miner) Start(job Job) error {
	m.Lock()
	defer m.Unlock()

	if m.started {
		return ErrBusy
	}

	m.quit = make(chan struct{})
	m.started = true
	go m.miningWorker(job, m.quit)
	log.Lvlf3("Miner started on block %d", job.Index)
	return nil
}

// Running reports whether a job is in flight.
func (m *Miner) Running() bool {
	m.Lock()
	defer m.Unlock()
	return m.started
}

func (m *Miner) miningWorker(job Job, quit chan struct{}) {
	start := time.Now()
	nonce, ok := search(job, quit)

	m.Lock()
	// A stopped job must not report, and must not reset the state of a job
	// started after it.
	current := m.quit == quit
	if current {
		m.started = false
	}
	m.Unlock()

	if !ok || !current {
		log.Lvlf3("Mining block %d abandoned", job.Index)
		return
	}
	log.Lvlf2("Mined block %d with nonce %d in %s", job.Index, nonce, time.Since(start))
	if m.callback != nil {
		m.callback(Solution{Job: job, Nonce: nonce, Timestamp: time.Now()})
	}
}

// Stop abandons the running job, if any. This function is safe for
// concurrent access.
func (m *Miner) Stop() {
	m.Lock()
	defer m.Unlock()

	// Nothing to do if the miner is not currently running
	if !m.started {
		return
	}

	close(m.quit)
	m.quit = nil
	m.started = false
	log.Lvl3("Miner stopped")
}
