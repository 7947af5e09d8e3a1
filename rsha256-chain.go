// Copyright (c) 2020 MinIO Inc. All rights reserved.
// Use of this source code is governed by a license that can be
// found in the LICENSE file.

package rsha256

// serverChain - Chain advanced by the lanes of an rsServer
type serverChain struct {
	uid    uint64
	srv    *rsServer
	state  Hash
	closed bool
}

// Advance - apply n iterations
func (c *serverChain) Advance(n uint64) error {

	if c.closed {
		return ErrServerClosed
	}

	// break into batches of at most MaxBatch iterations
	for n > 0 {
		b := n
		if b > MaxBatch {
			b = MaxBatch
		}
		sum, err := c.srv.submit(c.uid, c.state, b)
		if err != nil {
			return err
		}
		c.state = sum
		n -= b
	}
	return nil
}

// Sum - Return the current chain value
func (c *serverChain) Sum() Hash { return c.state }

// Reset - restart the chain at seed
func (c *serverChain) Reset(seed Hash) { c.state = seed }

// Close - further Advance calls fail
func (c *serverChain) Close() { c.closed = true }

// fallbackChain - Chain computed in place by the portable code
type fallbackChain struct {
	srv    *fallbackServer
	state  Hash
	closed bool
}

func (c *fallbackChain) Advance(n uint64) error {
	if c.closed || c.srv.isClosed() {
		return ErrServerClosed
	}
	blockGeneric(c.state[:], n)
	return nil
}

func (c *fallbackChain) Sum() Hash       { return c.state }
func (c *fallbackChain) Reset(seed Hash) { c.state = seed }
func (c *fallbackChain) Close()          { c.closed = true }
