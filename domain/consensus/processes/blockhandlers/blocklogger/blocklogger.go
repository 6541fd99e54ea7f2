// Copyright (c) 2015-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blocklogger

import (
	"sync"
	"time"

	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
)

// logInterval is the minimum time between two progress messages
const logInterval = 10 * time.Second

var stats = struct {
	sync.Mutex
	receivedLogBlocks int64
	receivedLogTx     int64
	lastBlockLogTime  time.Time
}{
	lastBlockLogTime: time.Now(),
}

// LogBlock logs the height of a newly accepted block as an information
// message to show progress to the user. In order to prevent spam, it limits
// logging to one message every 10 seconds with duration and totals included.
func LogBlock(block *externalapi.DomainBlock) {
	stats.Lock()
	defer stats.Unlock()

	stats.receivedLogBlocks++
	stats.receivedLogTx += int64(len(block.Transactions))

	now := time.Now()
	duration := now.Sub(stats.lastBlockLogTime)
	if duration < logInterval {
		return
	}

	// Truncate the duration to 10s of milliseconds.
	tDuration := duration.Round(10 * time.Millisecond)

	blockStr := "blocks"
	if stats.receivedLogBlocks == 1 {
		blockStr = "block"
	}
	txStr := "transactions"
	if stats.receivedLogTx == 1 {
		txStr = "transaction"
	}

	log.Infof("Processed %d %s in the last %s (%d %s, height %d, forged by %s)",
		stats.receivedLogBlocks, blockStr, tDuration, stats.receivedLogTx, txStr,
		block.Data.Height, block.Data.GeneratorPublicKey)

	stats.receivedLogBlocks = 0
	stats.receivedLogTx = 0
	stats.lastBlockLogTime = now
}
