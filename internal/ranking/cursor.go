// Feedcast - Personalized Video Feed Ranking Service
// SPDX-License-Identifier: AGPL-3.0-or-later

package ranking

import (
	"encoding/base64"
	"strconv"
	"strings"
)

// cursorOffsetKey is the payload key encoding the pagination offset,
// e.g. "offset=40" before base64 encoding.
const cursorOffsetKey = "offset"

// encodeCursor produces the opaque pagination token for the given offset.
func encodeCursor(offset int) string {
	payload := cursorOffsetKey + "=" + strconv.Itoa(offset)
	return base64.URLEncoding.EncodeToString([]byte(payload))
}

// decodeCursor extracts the offset from an opaque cursor token. Per
// spec.md §4.5 step 1, an undecodable, malformed, or missing cursor
// yields offset 0 rather than an error.
func decodeCursor(cursor string) int {
	if cursor == "" {
		return 0
	}
	raw, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return 0
	}
	parts := strings.SplitN(string(raw), "=", 2)
	if len(parts) != 2 || parts[0] != cursorOffsetKey {
		return 0
	}
	offset, err := strconv.Atoi(parts[1])
	if err != nil || offset < 0 {
		return 0
	}
	return offset
}
