// Copyright (c) 2020 MinIO Inc. All rights reserved.
// Use of this source code is governed by a license that can be
// found in the LICENSE file.

package rsha256

import (
	"sync"
	"sync/atomic"
	"time"
)

// MaxBatch - most iterations a chain is advanced by per trip through the
// server, so one long Advance cannot hold the lanes for all other chains.
const MaxBatch = 1 << 20

// Server multiplexes many chains onto the lockstep kernels.
type Server interface {
	// NewChain returns a chain starting at seed.
	NewChain(seed Hash) Chain
	// Close stops the server. Chains created by it fail with ErrServerClosed.
	Close()
}

// Chain is one recursion chain driven by a Server. A Chain is not safe for
// concurrent use; run different chains from different goroutines to fill
// the lanes.
type Chain interface {
	// Advance applies n more iterations.
	Advance(n uint64) error
	// Sum returns the current value.
	Sum() Hash
	// Reset restarts the chain at seed.
	Reset(seed Hash)
	// Close releases the chain.
	Close()
}

// Idle time after which partially filled lanes are run anyway.
const flushTimeout = 10 * time.Microsecond

// Message to send across input channel
type chainInput struct {
	uid   uint64
	state Hash
	n     uint64
	sumCh chan Hash
}

// laneInfo - Info for each lane
type laneInfo struct {
	uid      uint64    // unique identification of the chain
	state    Hash      // value to advance
	n        uint64    // iterations to apply
	outputCh chan Hash // channel for output result, nil for a free lane
}

// rsServer - Type to implement parallel handling of chains
type rsServer struct {
	uidCounter uint64
	blocksCh   chan chainInput // Input channel
	done       chan struct{}
	closeOnce  sync.Once
	totalIn    int                // Total number of inputs waiting to be processed
	lanes      [MaxLanes]laneInfo // Array with info per lane
	buf        [MaxLanes * Size]byte
}

// NewServer - Create new object for parallel processing of chains
func NewServer() Server {
	if !useAccel {
		return &fallbackServer{}
	}
	srv := &rsServer{
		blocksCh: make(chan chainInput),
		done:     make(chan struct{}),
	}

	// Start a single goroutine for reading from the input channel
	go srv.process()
	return srv
}

func (s *rsServer) NewChain(seed Hash) Chain {
	uid := atomic.AddUint64(&s.uidCounter, 1)
	return &serverChain{uid: uid, srv: s, state: seed}
}

// process - Sole handler for reading from the input channel
func (s *rsServer) process() {
	processBlock := func(in chainInput) {
		index := in.uid % uint64(len(s.lanes))

		if s.lanes[index].outputCh != nil {
			// If slot is already filled, run what we have
			s.blocks()
		}

		s.totalIn++
		s.lanes[index] = laneInfo{uid: in.uid, state: in.state, n: in.n, outputCh: in.sumCh}
		if s.totalIn == len(s.lanes) {
			// if all lanes are filled, process all lanes
			s.blocks()
		}
	}

	for {
		select {
		case in := <-s.blocksCh:
			processBlock(in)
		case <-s.done:
			return
		}

		for busy := true; busy; {
			select {
			case in := <-s.blocksCh:
				processBlock(in)

			case <-time.After(flushTimeout):
				if s.totalIn > 0 {
					s.blocks()
				}
				busy = false

			case <-s.done:
				// Requests already taken are answered; their chains are waiting.
				if s.totalIn > 0 {
					s.blocks()
				}
				return
			}
		}
	}
}

// Run the lanes through the kernels and send results back
func (s *rsServer) blocks() {
	var remaining [MaxLanes]uint64
	for i, lane := range s.lanes {
		if lane.outputCh != nil {
			remaining[i] = lane.n
		}
	}

	for _, seg := range schedule(remaining) {
		pos := seg.lanes()
		buf := s.buf[:len(pos)*Size]
		for j, p := range pos {
			copy(buf[j*Size:], s.lanes[p].state[:])
		}
		best[len(pos)-1](buf, seg.rounds)
		for j, p := range pos {
			copy(s.lanes[p].state[:], buf[j*Size:])
		}
	}

	s.totalIn = 0
	for i := range s.lanes {
		if s.lanes[i].outputCh != nil {
			s.lanes[i].outputCh <- s.lanes[i].state
		}
		s.lanes[i] = laneInfo{}
	}
}

func (s *rsServer) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// submit hands one batch to the server and waits for the result.
func (s *rsServer) submit(uid uint64, state Hash, n uint64) (Hash, error) {
	select {
	case <-s.done:
		return state, ErrServerClosed
	default:
	}
	sumCh := make(chan Hash, 1)
	select {
	case s.blocksCh <- chainInput{uid: uid, state: state, n: n, sumCh: sumCh}:
	case <-s.done:
		return state, ErrServerClosed
	}
	return <-sumCh, nil
}

// fallbackServer - Fallback when no SHA instructions are available
type fallbackServer struct {
	closed int32
}

func (s *fallbackServer) NewChain(seed Hash) Chain {
	return &fallbackChain{srv: s, state: seed}
}

func (s *fallbackServer) Close() {
	atomic.StoreInt32(&s.closed, 1)
}

func (s *fallbackServer) isClosed() bool {
	return atomic.LoadInt32(&s.closed) != 0
}
