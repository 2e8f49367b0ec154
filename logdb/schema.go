// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

// create a table for pool events
const eventTableSchema = `
CREATE TABLE IF NOT EXISTS event (
	callNumber INTEGER NOT NULL,
	eventIndex INTEGER NOT NULL,
	callTime INTEGER NOT NULL,
	name TEXT NOT NULL,
	subject BLOB(20),
	value INTEGER NOT NULL,
	amount BLOB,
	PRIMARY KEY (callNumber, eventIndex)
);

CREATE INDEX IF NOT EXISTS event_i0 ON event(callTime);
CREATE INDEX IF NOT EXISTS event_i1 ON event(name);
CREATE INDEX IF NOT EXISTS event_i2 ON event(subject);
`
